package main

import (
	"fmt"
	"os"

	"github.com/de-tools/housing-atlas/pkg/ingest"
	"github.com/de-tools/housing-atlas/pkg/services/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath    string
	sourcePath string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a weekly housing feed into a new store generation",
		RunE:  runIngest,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "housing-atlas.yaml",
		"Path to the housing-atlas config file")
	rootCmd.Flags().StringVarP(&sourcePath, "source", "s", "",
		"Path to an already-downloaded feed file; when empty the configured source URL is fetched")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	src := sourcePath
	if src == "" {
		if cfg.Ingest.SourceURL == "" {
			return fmt.Errorf("no --source given and no ingest.source_url configured")
		}
		fetcher := ingest.NewFetcher()
		src, err = fetcher.Download(ctx, cfg.Ingest.SourceURL, os.TempDir())
		if err != nil {
			return fmt.Errorf("failed to download feed: %w", err)
		}
	}

	loader := ingest.NewLoader(ingest.LoaderConfig{
		DBPath:       cfg.DBPath,
		ManifestPath: cfg.ManifestPath,
		ArchiveDir:   cfg.ArchiveDir,
		BatchSize:    cfg.Ingest.BatchSize,
		MinRegions:   cfg.Ingest.MinRegions,
	})

	if err := loader.Run(ctx, src); err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}
