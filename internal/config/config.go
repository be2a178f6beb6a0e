// Package config loads the service configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/cristianadrielbraun/qrblock/internal/courses"
	"github.com/cristianadrielbraun/qrblock/internal/qr"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is set.
const DefaultPath = "config.yaml"

type ServerConfig struct {
	Addr string `yaml:"addr" env:"QRBLOCK_ADDR"`
	// Mode is the gin mode: release, debug or test.
	Mode string `yaml:"mode" env:"QRBLOCK_GIN_MODE"`
}

type SiteConfig struct {
	WWWRoot string `yaml:"wwwroot" env:"QRBLOCK_WWWROOT"`
	// SystemContextID is the file store context logos are uploaded to.
	SystemContextID string `yaml:"system_context_id" env:"QRBLOCK_SYSTEM_CONTEXT_ID"`
}

type CacheConfig struct {
	Root string `yaml:"root" env:"QRBLOCK_CACHE_ROOT"`
	// DirPerm is an octal string such as "0755".
	DirPerm string `yaml:"dir_perm" env:"QRBLOCK_CACHE_DIR_PERM"`
}

type LogoConfig struct {
	CustomLogo  bool   `yaml:"custom_logo" env:"QRBLOCK_CUSTOM_LOGO"`
	SVGFilename string `yaml:"svg_filename" env:"QRBLOCK_LOGO_SVG"`
	PNGFilename string `yaml:"png_filename" env:"QRBLOCK_LOGO_PNG"`
}

type FilesConfig struct {
	Root string `yaml:"root" env:"QRBLOCK_FILES_ROOT"`
	// Index is "memory" or "redis".
	Index     string `yaml:"index" env:"QRBLOCK_FILES_INDEX"`
	RedisAddr string `yaml:"redis_addr" env:"QRBLOCK_REDIS_ADDR"`
	RedisDB   int    `yaml:"redis_db" env:"QRBLOCK_REDIS_DB"`
	RedisKey  string `yaml:"redis_key" env:"QRBLOCK_REDIS_KEY"`
}

type CoursesConfig struct {
	// Source is "static" or "postgres".
	Source      string           `yaml:"source" env:"QRBLOCK_COURSES_SOURCE"`
	PostgresDSN string           `yaml:"postgres_dsn" env:"QRBLOCK_POSTGRES_DSN"`
	TablePrefix string           `yaml:"table_prefix" env:"QRBLOCK_TABLE_PREFIX"`
	Static      map[int64]string `yaml:"static"`
}

type LoggerConfig struct {
	File       string `yaml:"file" env:"QRBLOCK_LOG_FILE"`
	Level      string `yaml:"level" env:"QRBLOCK_LOG_LEVEL"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"QRBLOCK_METRICS_ENABLED"`
	Path    string `yaml:"path"`
}

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Site    SiteConfig    `yaml:"site"`
	Cache   CacheConfig   `yaml:"cache"`
	Logo    LogoConfig    `yaml:"logo"`
	Files   FilesConfig   `yaml:"files"`
	Courses CoursesConfig `yaml:"courses"`
	Logger  LoggerConfig  `yaml:"logger"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", Mode: "release"},
		Site:   SiteConfig{WWWRoot: "http://localhost", SystemContextID: "1"},
		Cache:  CacheConfig{Root: "localcache", DirPerm: "0755"},
		Files:  FilesConfig{Root: "filedir", Index: "memory"},
		Courses: CoursesConfig{
			Source:      "static",
			TablePrefix: "mdl_",
		},
		Logger: LoggerConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Metrics: MetricsConfig{Path: "/metrics"},
	}
}

// Load reads the file named by CONFIG_PATH, or DefaultPath.
func Load() (Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	return LoadFrom(path)
}

// LoadFrom reads path over the defaults, applies QRBLOCK_* environment
// overrides and validates the result. A missing file is not an error.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration and normalizes the site root.
func (c *Config) Validate() error {
	root, err := courses.NormalizeSiteURL(c.Site.WWWRoot)
	if err != nil {
		return fmt.Errorf("site.wwwroot: %w", err)
	}
	c.Site.WWWRoot = root

	if c.Cache.Root == "" {
		return fmt.Errorf("cache.root is required")
	}
	if _, err := c.Cache.Perm(); err != nil {
		return err
	}
	if c.Files.Root == "" {
		return fmt.Errorf("files.root is required")
	}
	switch c.Files.Index {
	case "memory":
	case "redis":
		if c.Files.RedisAddr == "" {
			return fmt.Errorf("files.redis_addr is required for the redis index")
		}
	default:
		return fmt.Errorf("files.index must be memory or redis, got %q", c.Files.Index)
	}
	switch c.Courses.Source {
	case "static":
	case "postgres":
		if c.Courses.PostgresDSN == "" {
			return fmt.Errorf("courses.postgres_dsn is required for the postgres source")
		}
	default:
		return fmt.Errorf("courses.source must be static or postgres, got %q", c.Courses.Source)
	}
	return nil
}

// Perm parses DirPerm.
func (c CacheConfig) Perm() (fs.FileMode, error) {
	if c.DirPerm == "" {
		return 0o755, nil
	}
	v, err := strconv.ParseUint(c.DirPerm, 8, 32)
	if err != nil || v > 0o7777 {
		return 0, fmt.Errorf("cache.dir_perm %q is not an octal permission", c.DirPerm)
	}
	return fs.FileMode(v), nil
}

// LogoSettings exposes the logo configuration to the renderer.
type LogoSettings struct {
	cfg LogoConfig
}

// Settings returns a snapshot of the logo settings.
func (c Config) Settings() LogoSettings {
	return LogoSettings{cfg: c.Logo}
}

func (s LogoSettings) CustomLogoEnabled() bool { return s.cfg.CustomLogo }

func (s LogoSettings) LogoFilename(f qr.Format) string {
	switch f {
	case qr.FormatVector:
		return s.cfg.SVGFilename
	case qr.FormatRaster:
		return s.cfg.PNGFilename
	}
	return ""
}

var _ qr.ConfigStore = LogoSettings{}
