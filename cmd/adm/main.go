// Package main provides the DirectEd admin CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"directed/cmd/adm/commands"
	"directed/internal/config"
	"directed/internal/di"
	"directed/internal/models"
	"directed/internal/observability"
	"directed/internal/retrieval"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	if os.Getenv(config.ConfigFileEnv) == "" {
		for _, path := range []string{"config.yaml", "../config.yaml", "../../config.yaml"} {
			if _, err := os.Stat(path); err == nil {
				if err := os.Setenv(config.ConfigFileEnv, path); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to set %s: %v\n", config.ConfigFileEnv, err)
					os.Exit(1)
				}
				break
			}
		}
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The admin tool only logs errors and never exports telemetry
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	_, _, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "directed-admin", cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	container := di.NewServiceContainer(cfg, logger)
	if err := container.Initialize(ctx); err != nil {
		logger.Error(ctx, "Failed to initialize services", err)
		os.Exit(1)
	}
	defer func() {
		if err := container.Shutdown(ctx); err != nil {
			logger.Warn(ctx, "Shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	svc, err := container.HandlerServices()
	if err != nil {
		logger.Error(ctx, "Failed to collect services", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "DirectEd assistant administration tool",
		Long: `DirectEd assistant administration tool

Runs the assistant from the command line, loads course material into the
retrieval collection and inspects learner profiles.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	defaults := models.ContentRequest{NumItems: cfg.Content.DefaultNumItems, Level: cfg.Content.DefaultLevel}
	rootCmd.AddCommand(commands.AssistantCommands(svc.Assistant, svc.Content, svc.Profiles, defaults)...)
	rootCmd.AddCommand(commands.RetrievalCommands(func() (*retrieval.Retriever, error) {
		return container.GetRetriever()
	}, logger)...)
	rootCmd.AddCommand(commands.DatabaseCommands(logger, container.GetDatabase(), cfg.ProfileStore.Database.URL))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
