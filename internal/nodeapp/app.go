package nodeapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/supplychain/ledgerd/internal/miner"
	"github.com/supplychain/ledgerd/internal/store"
	"github.com/supplychain/ledgerd/internal/sync"
	"github.com/supplychain/ledgerd/internal/transport"
	"github.com/supplychain/ledgerd/internal/validate"
	"github.com/supplychain/ledgerd/pkg/logging"
)

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// App bundles a running node's component handles, for orderly shutdown.
type App struct {
	Store     *store.Store
	Transport *transport.Server
	Miner     *miner.Miner

	cancel context.CancelFunc
}

// Run wires store → validate → consensus → miner → transport → sync in
// the same order a daemon's main package brings a node online: open
// storage, construct dependent services, start background tasks, and
// serve the API. It returns once the API is listening; the forging loop
// runs until ctx is canceled or Stop is called.
func Run(ctx context.Context, cfg *NodeConfig) (*App, error) {
	log := logging.GetDefault().Component(logging.ComponentNodeApp)

	dataDir := ExpandDataDir(cfg.DataDir)
	st, err := store.New(&store.Config{DataDir: dataDir})
	if err != nil {
		return nil, fmt.Errorf("nodeapp: open store: %w", err)
	}
	log.Info("store opened", "path", dataDir)

	state := validate.NewStoreState(st, isNotFound)
	metrics := transport.NewMetrics(st)

	broadcaster := transport.NewBroadcaster(cfg.Peers)
	syncer := sync.New(st, cfg.Peers)

	m := miner.New(miner.Config{
		NodeName:          cfg.NodeName,
		SlotInterval:      cfg.SlotInterval,
		DelegateCount:     cfg.DelegateCount,
		LivenessBumpSlots: cfg.LivenessBumpSlots,
	}, st, state, broadcaster, isNotFound, metrics)

	srv := transport.New(transport.Config{
		NodeName:    cfg.NodeName,
		ListenAddr:  cfg.ListenAddr,
		Store:       st,
		State:       state,
		Broadcaster: broadcaster,
		Syncer:      syncer,
		Metrics:     metrics,
	})

	runCtx, cancel := context.WithCancel(ctx)

	go m.Run(runCtx)

	if err := srv.Start(cfg.ListenAddr); err != nil {
		cancel()
		st.Close()
		return nil, fmt.Errorf("nodeapp: start transport: %w", err)
	}
	log.Info("gossip server listening", "addr", cfg.ListenAddr, "node", cfg.NodeName)

	syncer.TriggerAsync()

	return &App{Store: st, Transport: srv, Miner: m, cancel: cancel}, nil
}

// Stop gracefully shuts down the gossip server, stops the forging loop,
// and closes the store. Safe to call once after Run succeeds.
func (a *App) Stop() error {
	a.cancel()

	if err := a.Transport.Stop(); err != nil {
		return fmt.Errorf("nodeapp: stop transport: %w", err)
	}
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("nodeapp: close store: %w", err)
	}
	return nil
}
