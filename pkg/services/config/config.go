package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Ingest struct {
	SourceURL  string `mapstructure:"source_url"`
	BatchSize  int    `mapstructure:"batch_size"`
	MinRegions int    `mapstructure:"min_regions"`
}

type Config struct {
	DBPath           string            `mapstructure:"db_path"`
	ManifestPath     string            `mapstructure:"manifest_path"`
	ArchiveDir       string            `mapstructure:"archive_dir"`
	AssetsDir        string            `mapstructure:"assets_dir"`
	VariableInfoFile string            `mapstructure:"variable_info_file"`
	GeoFiles         map[string]string `mapstructure:"geo_files"`

	InitialVariable  string `mapstructure:"initial_variable"`
	InitialDuration  string `mapstructure:"initial_duration"`
	InitialRegionIDs []int  `mapstructure:"initial_region_ids"`

	// MaxSelectedRegions bounds the region picker; extra picks are
	// dropped and saturated clicks are ignored.
	MaxSelectedRegions int           `mapstructure:"max_selected_regions"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`

	Server Server `mapstructure:"server"`
	Ingest Ingest `mapstructure:"ingest"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("db_path", "housing.db")
	v.SetDefault("manifest_path", "manifest.tsv")
	v.SetDefault("archive_dir", "archive")
	v.SetDefault("assets_dir", "assets")
	v.SetDefault("variable_info_file", "assets/variable_info.csv")
	v.SetDefault("geo_files", map[string]string{
		"counties": "geodata_counties.json",
		"metros":   "geodata_metros.json",
	})
	v.SetDefault("initial_variable", "median_sale_price")
	v.SetDefault("initial_duration", "4 weeks")
	v.SetDefault("max_selected_regions", 5)
	v.SetDefault("cache_ttl", "5m")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8050")
	v.SetDefault("ingest.batch_size", 10000)
	v.SetDefault("ingest.min_regions", 500)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
