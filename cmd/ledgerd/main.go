// Package main provides the ledgerd daemon and its CLI subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/supplychain/ledgerd/internal/crypto"
	"github.com/supplychain/ledgerd/internal/ledger"
	"github.com/supplychain/ledgerd/internal/nodeapp"
	"github.com/supplychain/ledgerd/internal/store"
	"github.com/supplychain/ledgerd/pkg/logging"
)

var version = "0.1.0-dev"

func main() {
	root := &cobra.Command{
		Use:     "ledgerd",
		Short:   "ledgerd runs a permissioned supply-chain provenance ledger node",
		Version: version,
	}

	root.AddCommand(newRunCmd(), newKeygenCmd(), newVerifyCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "start a ledgerd node",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := nodeapp.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log := logging.New(&logging.Config{Level: cfg.LogLevel})
			logging.SetDefault(log)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			app, err := nodeapp.Run(ctx, cfg)
			if err != nil {
				return fmt.Errorf("start node: %w", err)
			}

			log.Info("ledgerd started", "node", cfg.NodeName, "addr", cfg.ListenAddr)
			<-ctx.Done()
			log.Info("shutting down")

			return app.Stop()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", filepath.Join(nodeapp.ExpandDataDir("~/.ledgerd"), nodeapp.ConfigFileName), "path to the node's YAML config file")
	return cmd
}

func newKeygenCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "generate a SECP256k1 keypair for local development",
		Long: "keygen generates a fresh SECP256k1 private key and writes its hex encoding to --out. " +
			"Storing and distributing the resulting key file in production is outside this tool's scope.",
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, err := crypto.GenerateKey()
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}

			if dir := filepath.Dir(outPath); dir != "" {
				if err := os.MkdirAll(dir, 0o700); err != nil {
					return fmt.Errorf("create key directory: %w", err)
				}
			}
			if err := os.WriteFile(outPath, []byte(crypto.PrivateKeyToHex(priv)), 0o600); err != nil {
				return fmt.Errorf("write key file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "public key: %s\n", crypto.PublicKeyToHex(priv.PubKey()))
			fmt.Fprintf(cmd.OutOrStdout(), "private key written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "node.key", "output path for the generated private key")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "check the local chain's structural integrity",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.New(&store.Config{DataDir: nodeapp.ExpandDataDir(dataDir)})
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			blocks, err := st.ListBlocks()
			if err != nil {
				return fmt.Errorf("list blocks: %w", err)
			}

			if err := ledger.VerifyChain(blocks); err != nil {
				return fmt.Errorf("chain invalid: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "chain valid: %d blocks\n", len(blocks))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "~/.ledgerd", "node data directory")
	return cmd
}
