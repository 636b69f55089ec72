package main

import (
	"time"

	"github.com/rise-and-shine/thumbnails/cache/rediswr"
	"github.com/rise-and-shine/thumbnails/filestore/miniowr"
	"github.com/rise-and-shine/thumbnails/logger"
	"github.com/rise-and-shine/thumbnails/pg"
	"github.com/rise-and-shine/thumbnails/tracing"
)

// Config is loaded from ./config/${ENVIRONMENT}.yaml.
type Config struct {
	Logger   logger.Config  `yaml:"logger"`
	Postgres pg.Config      `yaml:"postgres"`
	Redis    rediswr.Config `yaml:"redis"`
	Storage  miniowr.Config `yaml:"storage"`
	Tracing  tracing.Config `yaml:"tracing"`
	Startup  StartupConfig  `yaml:"startup"`
}

// StartupConfig bounds waiting for dependencies before running a command.
type StartupConfig struct {
	Attempts uint          `yaml:"attempts" default:"10" validate:"min=1"`
	Delay    time.Duration `yaml:"delay"    default:"2s"`
}
