package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/maskviz-mcp/internal/config"
	"github.com/ironsheep/maskviz-mcp/internal/metrics"
	"github.com/ironsheep/maskviz-mcp/internal/server"
	"github.com/ironsheep/maskviz-mcp/internal/visualize"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("maskviz-mcp - MCP server for instance segmentation visualization")
	fmt.Println()
	fmt.Println("Usage: maskviz-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config <path>  Read settings from a YAML file")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug       Enable debug logging\n", config.EnvLogLevel)
	fmt.Printf("  %s=:9090    Serve Prometheus metrics\n", config.EnvMetricsAddr)
	fmt.Printf("  %s=42               Fix the random colors\n", config.EnvSeed)
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	var configPath string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Printf("maskviz-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config needs a path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown option %q\n", args[i])
			usage()
			os.Exit(2)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Debug("starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit),
	)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	renderer := visualize.NewRenderer(logger.Named("render"), cfg.Render, rand.New(rand.NewSource(seed)))

	m := metrics.New(nil)
	if cfg.MetricsAddr != "" {
		go func() {
			logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
			if err := m.Serve(cfg.MetricsAddr); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	srv := server.New(server.Options{
		Renderer: renderer,
		Logger:   logger.Named("server"),
		Metrics:  m,
		Version:  Version,
	})
	if err := srv.Run(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newLogger builds a JSON logger on stderr; stdout carries the protocol.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
