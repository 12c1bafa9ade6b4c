// Package server wires the arena runtime: the four registries, the gRPC
// health surface, and the chat WebSocket gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/riftvale/crucible.games/internal/platform/timeouts"
	"github.com/riftvale/crucible.games/internal/services/chat"
	"github.com/riftvale/crucible.games/internal/services/inventory"
	"github.com/riftvale/crucible.games/internal/services/matchmaking"
	mmsqlite "github.com/riftvale/crucible.games/internal/services/matchmaking/storage/sqlite"
	"github.com/riftvale/crucible.games/internal/services/world"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Config defines the inputs for the arena process.
type Config struct {
	GRPCAddr          string
	HTTPAddr          string
	ResultsDBPath     string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the arena registries behind a gRPC health surface and a chat
// WebSocket gateway.
type Server struct {
	listener        net.Listener
	grpcServer      *grpc.Server
	health          *health.Server
	httpServer      *http.Server
	shutdownTimeout time.Duration
	store           *mmsqlite.Store

	world       *world.Registry
	chat        *chat.Registry
	inventory   *inventory.Registry
	matchmaking *matchmaking.Registry
}

// New creates a configured arena server.
func New(config Config) (*Server, error) {
	if config.GRPCAddr == "" {
		return nil, errors.New("grpc addr is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}
	dbPath := config.ResultsDBPath
	if dbPath == "" {
		dbPath = mmsqlite.MemoryDSN
	}

	listener, err := net.Listen("tcp", config.GRPCAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", config.GRPCAddr, err)
	}

	store, err := mmsqlite.Open(dbPath)
	if err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("open match result store: %w", err)
	}

	worldRegistry := world.NewRegistry()
	chatRegistry := chat.NewRegistry()
	inventoryRegistry := inventory.NewRegistry()
	matchmakingRegistry := matchmaking.NewRegistry(store)

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("arena.v1.WorldService", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("arena.v1.ChatService", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("arena.v1.InventoryService", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("arena.v1.MatchmakingService", grpc_health_v1.HealthCheckResponse_SERVING)

	server := &Server{
		listener:        listener,
		grpcServer:      grpcServer,
		health:          healthServer,
		shutdownTimeout: config.ShutdownTimeout,
		store:           store,
		world:           worldRegistry,
		chat:            chatRegistry,
		inventory:       inventoryRegistry,
		matchmaking:     matchmakingRegistry,
	}

	if config.HTTPAddr != "" {
		server.httpServer = &http.Server{
			Addr:              config.HTTPAddr,
			Handler:           NewGatewayHandler(chatRegistry),
			ReadHeaderTimeout: config.ReadHeaderTimeout,
		}
	}

	return server, nil
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// World returns the entity registry.
func (s *Server) World() *world.Registry { return s.world }

// Chat returns the chat registry.
func (s *Server) Chat() *chat.Registry { return s.chat }

// Inventory returns the inventory registry.
func (s *Server) Inventory() *inventory.Registry { return s.inventory }

// Matchmaking returns the matchmaking registry.
func (s *Server) Matchmaking() *matchmaking.Registry { return s.matchmaking }

// Run creates and serves an arena server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := New(config)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC and HTTP servers and blocks until they stop or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("arena server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 2)
	go func() {
		serveErr <- handleGRPCErr(s.grpcServer.Serve(s.listener))
	}()
	if s.httpServer != nil {
		log.Printf("arena chat gateway listening at %v", s.httpServer.Addr)
		go func() {
			serveErr <- handleHTTPErr(s.httpServer.ListenAndServe())
		}()
	}

	select {
	case <-ctx.Done():
		s.shutdown()
		return nil
	case err := <-serveErr:
		s.shutdown()
		return err
	}
}

func (s *Server) shutdown() {
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown chat gateway: %v", err)
		}
	}
	s.grpcServer.GracefulStop()
}

func handleGRPCErr(err error) error {
	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return fmt.Errorf("serve gRPC: %w", err)
}

func handleHTTPErr(err error) error {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("serve chat gateway: %w", err)
}

// Close releases the server's resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close match result store: %v", err)
		}
	}
}
