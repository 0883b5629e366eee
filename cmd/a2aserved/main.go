// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

// a2aserved runs a standalone A2A server with a configurable agent card and
// a built-in echo message handler.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/a2aserve/a2aserve/auth"
	"github.com/a2aserve/a2aserve/log"
	"github.com/a2aserve/a2aserve/metrics"
	"github.com/a2aserve/a2aserve/server"
	"github.com/a2aserve/a2aserve/taskmanager"
)

var version = "0.2.0-dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "a2aserved",
		Short:         "Standalone A2A task server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the A2A server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			rendered, err := renderConfig(cfg)
			if err != nil {
				return err
			}
			cmd.Print(rendered)
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("a2aserved %s\n", version)
		},
	}

	root.AddCommand(serveCmd, configCmd, versionCmd)
	return root
}

func runServe(ctx context.Context, cfg Config) error {
	if cfg.Logging.Development {
		log.SetLogger(log.NewDevelopment())
	}

	m := metrics.New()

	manager, err := taskmanager.NewManager(echoHandler(), taskmanager.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("failed to create task manager: %w", err)
	}

	opts := []server.Option{
		server.WithCORSEnabled(cfg.Server.CORS),
		server.WithReadTimeout(cfg.Server.ReadTimeout),
		server.WithWriteTimeout(cfg.Server.WriteTimeout),
		server.WithIdleTimeout(cfg.Server.IdleTimeout),
		server.WithHTTPRouter(&gorillaRouter{mux.NewRouter()}),
	}
	if cfg.Server.JWKS {
		opts = append(opts, server.WithJWKSEndpoint(true, ""))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, server.WithMetrics(m, cfg.Metrics.Path))
	}
	if provider := authProvider(cfg.Auth); provider != nil {
		opts = append(opts, server.WithAuthProvider(provider))
	}

	a2aServer, err := server.NewA2AServer(agentCard(cfg), manager, opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a2aServer.Start(cfg.Server.Address)
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a2aServer.Stop(shutdownCtx)
	}
}

// echoHandler returns a handler that echoes each user message back as a
// text artifact. It is the default behavior when no agent logic is plugged
// in.
func echoHandler() taskmanager.MessageHandler {
	return taskmanager.MessageHandlerFunc(
		func(ctx context.Context, tc *taskmanager.TaskContext) error {
			if err := tc.SetWorking(""); err != nil {
				return err
			}
			text := tc.ExtractUserText()
			if text == "" {
				return tc.SetRejected("message contains no text to echo")
			}
			return tc.AddTextArtifact("echo", text, "Echo of the incoming message", false, true)
		})
}

func agentCard(cfg Config) server.AgentCard {
	return server.AgentCard{
		Name:        cfg.Agent.Name,
		Description: &cfg.Agent.Description,
		URL:         cfg.Agent.URL,
		Version:     cfg.Agent.Version,
		Capabilities: server.AgentCapabilities{
			Streaming:         &cfg.Agent.Streaming,
			PushNotifications: &cfg.Agent.PushNotifications,
		},
		DefaultInputModes:  cfg.Agent.InputModes,
		DefaultOutputModes: cfg.Agent.OutputModes,
	}
}

func authProvider(cfg AuthConfig) auth.Provider {
	switch cfg.Mode {
	case "apikey":
		return auth.NewAPIKeyAuthProvider(cfg.APIKeys, cfg.APIKeyHeader)
	case "jwt":
		return auth.NewJWTAuthProvider([]byte(cfg.JWTSecret), cfg.JWTAudience, cfg.JWTIssuer)
	default:
		return nil
	}
}

// gorillaRouter adapts *mux.Router to the server.HTTPRouter interface,
// whose Handle has no return value.
type gorillaRouter struct {
	*mux.Router
}

func (r *gorillaRouter) Handle(pattern string, handler http.Handler) {
	r.Router.Handle(pattern, handler)
}
