package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ns-bridge/internal/config"
	mcpserver "ns-bridge/internal/mcp"
	"ns-bridge/internal/ns"
	"ns-bridge/internal/util"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (YAML or JSON)")
	flag.Parse()

	// Load configuration: defaults, then file, then environment.
	var cfg *config.Config
	var err error

	if *configPath != "" {
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}
	cfg.ApplyEnv()

	// A missing API key is fatal here, never a per-request failure.
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := util.NewLogger(cfg.LogLevel, cfg.IsDevelopment())
	defer logger.Sync()

	client := ns.NewClient(cfg, logger)
	serverConfig := mcpserver.NewConfigFromApp(cfg)

	mcpServer := server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
	)

	toolManager := mcpserver.NewToolManager(client, serverConfig, logger)
	if err := toolManager.RegisterTools(mcpServer); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	resourceManager := mcpserver.NewResourceManager(client, serverConfig, logger)
	if err := resourceManager.RegisterResources(mcpServer); err != nil {
		log.Fatalf("Failed to register resources: %v", err)
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		signal.Stop(sigChan)
		close(sigChan)
	}()

	go func() {
		<-sigChan
		logger.Info("Received shutdown signal, shutting down gracefully...")
		// For stdio mode, the server shuts down when stdin closes.
	}()

	logger.Infow("Starting MCP server", "name", cfg.Name, "base_url", cfg.API.BaseURL)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("STDIO server error: %v", err)
	}

	logger.Info("MCP server shutdown complete")
}
