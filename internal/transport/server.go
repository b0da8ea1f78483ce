package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/supplychain/ledgerd/internal/ledger"
	"github.com/supplychain/ledgerd/internal/sync"
	"github.com/supplychain/ledgerd/internal/validate"
	"github.com/supplychain/ledgerd/pkg/logging"
)

// Store is the subset of *store.Store the transport layer needs.
type Store interface {
	Height() (uint64, error)
	GetLastBlock() (*ledger.Block, error)
	GetBlock(index uint64) (*ledger.Block, error)
	ListBlocks() ([]ledger.Block, error)
	AddMempoolTx(tx *ledger.Transaction, arrivalTimestamp float64) error
	HasMempoolTx(txHash string) (bool, error)
	MempoolSize() (int, error)
	CommitBlock(b *ledger.Block) error
}

// Server is the node's HTTP gossip API.
type Server struct {
	nodeName    string
	store       Store
	state       validate.StateSource
	broadcaster *Broadcaster
	syncer      *sync.Syncer
	metrics     *Metrics
	wsHub       *WSHub
	log         *logging.Logger

	httpServer *http.Server
	listener   net.Listener
}

// Config configures a Server.
type Config struct {
	NodeName    string
	ListenAddr  string
	Store       Store
	State       validate.StateSource
	Broadcaster *Broadcaster
	Syncer      *sync.Syncer
	// Metrics, if nil, is built fresh from Store.
	Metrics *Metrics
}

// New builds a Server. Call Start to begin serving.
func New(cfg Config) *Server {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(cfg.Store)
	}
	if cfg.Broadcaster != nil {
		cfg.Broadcaster.SetMetrics(metrics)
	}

	return &Server{
		nodeName:    cfg.NodeName,
		store:       cfg.Store,
		state:       cfg.State,
		broadcaster: cfg.Broadcaster,
		syncer:      cfg.Syncer,
		metrics:     metrics,
		wsHub:       NewWSHub(),
		log:         logging.GetDefault().Component(logging.ComponentTransport),
	}
}

// router builds the chi router. The four required endpoints are
// GET /info, GET /chain, POST /transaction, POST /block; GET /chain/{index},
// GET /metrics, GET /ws are additive and never change the required
// endpoints' behavior or response codes.
func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/info", s.handleInfo)
	r.Get("/chain", s.handleChain)
	r.Get("/chain/{index}", s.handleChainIndex)
	r.Post("/transaction", s.handleTransaction)
	r.Post("/block", s.handleBlock)
	r.Get("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/ws", s.handleWS)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start))
	})
}

// Start begins serving the gossip API on cfg.ListenAddr.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("transport: listen on %s: %w", addr, err)
	}
	s.listener = listener

	go s.wsHub.Run()

	s.httpServer = &http.Server{
		Handler:      s.router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("gossip server error", "error", err)
		}
	}()

	s.log.Info("gossip server started", "addr", addr)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	height, err := s.store.Height()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}

	lastHash := ""
	if height > 0 {
		last, err := s.store.GetLastBlock()
		if err == nil && last != nil {
			lastHash = last.Hash
		}
	}

	writeJSON(w, http.StatusOK, InfoResponse{NodeName: s.nodeName, Height: height, LastHash: lastHash})
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	blocks, err := s.store.ListBlocks()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}
	if blocks == nil {
		blocks = []ledger.Block{}
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (s *Server) handleChainIndex(w http.ResponseWriter, r *http.Request) {
	idxStr := chi.URLParam(r, "index")
	idx, err := strconv.ParseUint(idxStr, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid index"})
		return
	}

	block, err := s.store.GetBlock(idx)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "block not found"})
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
