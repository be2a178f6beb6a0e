package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/cristianadrielbraun/qrblock/internal/config"
	"github.com/cristianadrielbraun/qrblock/internal/courses"
	"github.com/cristianadrielbraun/qrblock/internal/filestore"
	"github.com/cristianadrielbraun/qrblock/internal/logging"
	"github.com/cristianadrielbraun/qrblock/internal/metrics"
	"github.com/cristianadrielbraun/qrblock/internal/qr"
)

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg      config.Config
	files    *filestore.Store
	courses  courses.Directory
	composer *qr.Composer
	registry *prometheus.Registry

	closers []func() error
}

func loadConfig() (config.Config, error) {
	if configFile != "" {
		return config.LoadFrom(configFile)
	}
	return config.Load()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)

	a := &app{cfg: cfg}

	index, err := a.fileIndex(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.files = filestore.New(cfg.Files.Root, index)

	if a.courses, err = a.courseDirectory(); err != nil {
		_ = a.Close()
		return nil, err
	}

	perm, err := cfg.Cache.Perm()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var recorder metrics.Recorder = metrics.NewNoopRecorder()
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorderWithRegistry(a.registry)
	}

	a.composer = qr.NewComposer(cfg.Cache.Root, cfg.Settings(), a.files,
		qr.WithMetrics(recorder),
		qr.WithDirPerm(perm),
	)
	return a, nil
}

func (a *app) fileIndex(ctx context.Context) (filestore.Index, error) {
	if a.cfg.Files.Index != "redis" {
		return filestore.NewMemoryIndex(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: a.cfg.Files.RedisAddr,
		DB:   a.cfg.Files.RedisDB,
	})
	a.closers = append(a.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis %s: %w", a.cfg.Files.RedisAddr, err)
	}

	key := a.cfg.Files.RedisKey
	if key == "" {
		key = filestore.DefaultRedisKey
	}
	return filestore.NewRedisIndex(client, key), nil
}

func (a *app) courseDirectory() (courses.Directory, error) {
	if a.cfg.Courses.Source != "postgres" {
		return courses.StaticDirectory(a.cfg.Courses.Static), nil
	}
	dir, err := courses.OpenPostgres(a.cfg.Courses.PostgresDSN, a.cfg.Courses.TablePrefix)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, dir.Close)
	return dir, nil
}

// Close releases connections opened by newApp.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
