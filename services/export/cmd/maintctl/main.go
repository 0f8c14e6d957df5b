package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/bus"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/db"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
	"github.com/WKyuki/Challenge-Hermes-Reply/services/api"
	"github.com/WKyuki/Challenge-Hermes-Reply/services/export"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "maintctl",
		Short:         "Utility for managing the maintenance pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newSeedCommand())
	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newPublishCommand())
	return cmd
}

func openStore(ctx context.Context) (*api.Store, func(), error) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		return nil, nil, errors.New("DB_DSN is required")
	}

	pool, err := db.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}

	orm, err := db.OpenGorm(ctx, dsn)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	cleanup := func() {
		_ = db.CloseGorm(orm)
		pool.Close()
	}
	return &api.Store{DB: pool, ORM: orm}, cleanup, nil
}

func newSeedCommand() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the equipment and sensor catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := db.Migrate(ctx, store.DB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			catalog := export.DefaultCatalog()
			if catalogPath != "" {
				catalog, err = export.LoadCatalog(catalogPath)
				if err != nil {
					return err
				}
			}

			return export.Seed(ctx, store, catalog, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML catalog file (defaults to the demo fleet)")
	return cmd
}

func newExportCommand() *cobra.Command {
	var (
		equipmentID string
		sinceFlag   string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a measurement window as zstd-compressed NDJSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			since, err := time.Parse(time.RFC3339, sinceFlag)
			if err != nil {
				return fmt.Errorf("parse --since: %w", err)
			}

			store, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			return export.Window(ctx, store, export.WindowConfig{
				EquipmentID: equipmentID,
				Since:       since,
				Output:      output,
				Stdout:      os.Stdout,
			})
		},
	}

	cmd.Flags().StringVar(&equipmentID, "equipment", "", "Limit the export to one equipment id")
	cmd.Flags().StringVar(&sinceFlag, "since", "", "Window start (RFC3339)")
	cmd.Flags().StringVar(&output, "output", "", "Destination file (.ndjson.zst)")
	_ = cmd.MarkFlagRequired("since")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newPublishCommand() *cobra.Command {
	var payloadFile string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a one-shot reading to the raw subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				data []byte
				err  error
			)
			if payloadFile == "-" || payloadFile == "" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(payloadFile)
			}
			if err != nil {
				return err
			}

			var payload reading.Payload
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("parse payload: %w", err)
			}
			if payload.Source == "" {
				payload.Source = reading.SourceBridge
			}

			natsURL := os.Getenv("NATS_URL")
			if natsURL == "" {
				natsURL = "nats://127.0.0.1:4222"
			}

			b, err := bus.New(natsURL)
			if err != nil {
				return fmt.Errorf("connect nats: %w", err)
			}
			defer b.Close()

			if err := b.Publish(ctx, bus.SubjectReadingsRaw, payload); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "published reading for %s/%s\n", payload.EquipmentID, payload.SensorID)
			return nil
		},
	}

	cmd.Flags().StringVar(&payloadFile, "file", "-", "Payload JSON file, - for stdin")
	return cmd
}
