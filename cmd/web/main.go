package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/de-tools/housing-atlas/pkg/geo"
	"github.com/de-tools/housing-atlas/pkg/models/domain"
	"github.com/de-tools/housing-atlas/pkg/server"
	"github.com/de-tools/housing-atlas/pkg/services/catalog"
	"github.com/de-tools/housing-atlas/pkg/services/config"
	"github.com/de-tools/housing-atlas/pkg/services/figure"
	"github.com/de-tools/housing-atlas/pkg/services/metrics"
	"github.com/de-tools/housing-atlas/pkg/services/selection"
	"github.com/de-tools/housing-atlas/pkg/store/sqlite"
	"github.com/de-tools/housing-atlas/pkg/store/sqlite/observation"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for Housing Atlas",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "housing-atlas.yaml",
		"Path to the housing-atlas config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sqlite.NewDB(sqlite.Settings{Path: cfg.DBPath, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	if err := sqlite.ValidateColumns(db); err != nil {
		return fmt.Errorf("store schema check failed: %w", err)
	}

	obsStore, err := observation.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create observation store: %w", err)
	}

	cat, err := catalog.New(ctx, obsStore, cfg.VariableInfoFile)
	if err != nil {
		return fmt.Errorf("failed to build catalog: %w", err)
	}

	geoFiles := make(map[domain.GeoType]string, len(cfg.GeoFiles))
	for geoType, file := range cfg.GeoFiles {
		geoFiles[domain.GeoType(geoType)] = file
	}
	shapes, err := geo.Load(cfg.AssetsDir, geoFiles)
	if err != nil {
		return fmt.Errorf("failed to load boundary shapes: %w", err)
	}

	explorer := metrics.NewExplorer(obsStore, cat)
	composer := figure.NewComposer(explorer, cat, shapes, figure.WithCache(cfg.CacheTTL))
	resolver := selection.NewResolver(cfg.MaxSelectedRegions)

	defaults, err := initialDefaults(cfg, cat)
	if err != nil {
		return err
	}

	logger.Info().Str("db", cfg.DBPath).Msg("store opened")
	for _, d := range domain.Durations() {
		if latest, ok := cat.Latest(d); ok {
			logger.Info().Str("duration", string(d)).Str("latest", latest).Msg("periods available")
		}
	}

	webAPI := server.NewWebAPI(logger, server.Config{
		Addr:            net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		ShutdownTimeout: 10 * time.Second,
		Dependencies: server.Dependencies{
			Catalog:  cat,
			Resolver: resolver,
			Composer: composer,
			Defaults: defaults,
		},
	})

	return webAPI.Start()
}

// initialDefaults validates the configured starting state against the
// catalog. The initial variable must be a key variable so the default
// dropdown list can show it.
func initialDefaults(cfg *config.Config, cat *catalog.Catalog) (domain.Defaults, error) {
	duration := domain.Duration(cfg.InitialDuration)
	if !duration.Valid() {
		return domain.Defaults{}, fmt.Errorf("initial_duration %q is not a supported smoothing window", cfg.InitialDuration)
	}

	isKey := false
	for _, v := range cat.Variables(domain.KeyVariables) {
		if v.Name == cfg.InitialVariable {
			isKey = true
			break
		}
	}
	if !isKey {
		return domain.Defaults{}, fmt.Errorf("initial_variable %q must be a key variable", cfg.InitialVariable)
	}

	for _, id := range cfg.InitialRegionIDs {
		if !cat.HasRegion(id) {
			return domain.Defaults{}, fmt.Errorf("initial region id %d is not in the current generation", id)
		}
	}

	return domain.Defaults{
		Variable:  cfg.InitialVariable,
		Duration:  duration,
		RegionIDs: cfg.InitialRegionIDs,
	}, nil
}
