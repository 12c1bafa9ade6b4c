// Package arena parses arena command flags and starts the game runtime.
package arena

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/riftvale/crucible.games/internal/platform/cmd"
	server "github.com/riftvale/crucible.games/internal/services/arena/app"
)

// Config holds arena command configuration.
type Config struct {
	Port          int    `env:"CRUCIBLE_ARENA_PORT" envDefault:"8090"`
	Addr          string `env:"CRUCIBLE_ARENA_ADDR"`
	HTTPAddr      string `env:"CRUCIBLE_ARENA_HTTP_ADDR" envDefault:":8091"`
	ResultsDBPath string `env:"CRUCIBLE_ARENA_RESULTS_DB"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The arena gRPC server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The arena gRPC listen address (overrides -port)")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The chat gateway listen address (empty disables the gateway)")
	fs.StringVar(&cfg.ResultsDBPath, "results-db", cfg.ResultsDBPath, "Path to the match results database (defaults to in-memory)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the arena service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceArena, func(ctx context.Context) error {
		grpcAddr := cfg.Addr
		if grpcAddr == "" {
			grpcAddr = fmt.Sprintf(":%d", cfg.Port)
		}
		return server.Run(ctx, server.Config{
			GRPCAddr:      grpcAddr,
			HTTPAddr:      cfg.HTTPAddr,
			ResultsDBPath: cfg.ResultsDBPath,
		})
	})
}
