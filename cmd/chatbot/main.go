// Copyright 2025 Inventory Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the inventory assistant chatbot: an HTTP chat service over
// a business inventory database, backed by an external completion API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/inventory-assistant/internal/assistant"
	"github.com/your-org/inventory-assistant/internal/briefing"
	"github.com/your-org/inventory-assistant/internal/config"
	"github.com/your-org/inventory-assistant/internal/history"
	"github.com/your-org/inventory-assistant/internal/inventory"
	"github.com/your-org/inventory-assistant/internal/llm"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "chatbot",
		Short: "AI assistant for the inventory management system",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(serveCmd(), seedCmd(), insightsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the chat HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			logger, err := buildLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("building logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()

			provider, err := inventory.NewProvider(ctx, cfg.Database.Driver, cfg.Database.DSN, logger)
			if err != nil {
				return fmt.Errorf("opening business database: %w", err)
			}
			defer provider.Close()

			store, err := history.NewStore(cfg.Database.ChatDBPath, logger)
			if err != nil {
				return fmt.Errorf("opening conversation store: %w", err)
			}
			defer store.Close()

			service := buildService(cfg, provider, store, logger)

			server := NewServer(cfg, service, store, provider, logger)

			logger.Info("Starting chatbot server",
				zap.String("port", cfg.Server.Port),
				zap.String("driver", cfg.Database.Driver),
				zap.String("model", cfg.OpenAI.Model))

			return server.Router().Run(":" + cfg.Server.Port)
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create and populate a demo SQLite inventory database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithOptions(config.LoadOptions{ConfigPath: configPath})
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if cfg.Database.Driver != "sqlite" {
				return fmt.Errorf("seed supports the sqlite driver only, configured driver is %q", cfg.Database.Driver)
			}

			db, err := sql.Open("sqlite3", cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			if err := inventory.EnsureSchema(db); err != nil {
				return err
			}
			if err := inventory.Seed(db); err != nil {
				return err
			}

			fmt.Printf("Seeded demo inventory at %s\n", cfg.Database.DSN)
			return nil
		},
	}
}

func insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Print a quick inventory summary to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			logger, err := buildLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("building logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			provider, err := inventory.NewProvider(ctx, cfg.Database.Driver, cfg.Database.DSN, logger)
			if err != nil {
				return fmt.Errorf("opening business database: %w", err)
			}
			defer provider.Close()

			store, err := history.NewStore(cfg.Database.ChatDBPath, logger)
			if err != nil {
				return fmt.Errorf("opening conversation store: %w", err)
			}
			defer store.Close()

			service := buildService(cfg, provider, store, logger)
			fmt.Println(service.QuickInsights(ctx))
			return nil
		},
	}
}

// buildService wires the pipeline from configuration
func buildService(cfg *config.Config, provider inventory.Provider, store *history.Store, logger *zap.Logger) *assistant.Service {
	aggregator := briefing.NewAggregator(provider, briefing.AggregatorOptions{
		TopN:                   cfg.Context.TopN,
		CriticalStockThreshold: cfg.Context.CriticalStockThreshold,
	}, logger)

	formatter := briefing.NewFormatter(briefing.FormatterOptions{
		ProductSample:     cfg.Context.ProductSample,
		LowStockThreshold: cfg.Context.LowStockThreshold,
	})

	completer := llm.NewClient(llm.Options{
		APIKey:   cfg.OpenAI.APIKey,
		Endpoint: cfg.OpenAI.Endpoint,
		Model:    cfg.OpenAI.Model,
	}, logger)

	return assistant.NewService(aggregator, formatter, completer, store, assistant.Options{
		Temperature:       cfg.Generation.Temperature,
		RetryTemperature:  cfg.Generation.RetryTemperature,
		TopP:              cfg.Generation.TopP,
		MaxTokens:         cfg.Generation.MaxTokens,
		HistoryLimit:      cfg.Context.HistoryLimit,
		ContextWindow:     cfg.Context.ContextWindow,
		CompletionTimeout: time.Duration(cfg.Generation.TimeoutSeconds) * time.Second,
	}, logger)
}

// buildLogger constructs the zap logger from logging configuration
func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "text" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Output != "" {
		zapCfg.OutputPaths = []string{cfg.Output}
	}

	return zapCfg.Build()
}
