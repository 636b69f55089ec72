// Command thumbnailctl runs operator tasks against the thumbnail store.
//
// Usage:
//
//	thumbnailctl migrate
//	thumbnailctl health
//	thumbnailctl pending
//	thumbnailctl get -id <id>
//	thumbnailctl list [-page N] [-size N]
//	thumbnailctl purge -id <id>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/cache/rediswr"
	"github.com/rise-and-shine/thumbnails/cfgloader"
	"github.com/rise-and-shine/thumbnails/filestore/miniowr"
	"github.com/rise-and-shine/thumbnails/health"
	"github.com/rise-and-shine/thumbnails/logger"
	"github.com/rise-and-shine/thumbnails/pagination"
	"github.com/rise-and-shine/thumbnails/pg"
	"github.com/rise-and-shine/thumbnails/result"
	"github.com/rise-and-shine/thumbnails/thumbnail/pgrepo"
	"github.com/rise-and-shine/thumbnails/tracing"
	"github.com/rise-and-shine/thumbnails/usecase"
)

const (
	serviceName = "thumbnailctl"
	version     = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := cfgloader.MustLoad[Config]()

	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.SetGlobal(log)
	defer func() { _ = log.Sync() }()

	if err = run(ctx, cfg, log, os.Args[1], os.Args[2:]); err != nil {
		log.Errorx(err)
		stop()
		os.Exit(1) //nolint:gocritic // deferred sync is best-effort
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: thumbnailctl <migrate|health|pending|get|list|purge> [flags]")
}

// app holds the wired dependencies of one command run.
type app struct {
	db          *bun.DB
	thumbnails  *usecase.Thumbnails
	jobs        *usecase.Jobs
	maintenance *usecase.Maintenance
	checker     *health.Checker
	storage     *miniowr.Client
}

func run(ctx context.Context, cfg Config, log logger.Logger, cmd string, args []string) error {
	shutdown, err := tracing.InitGlobalTracer(ctx, cfg.Tracing, serviceName, version)
	if err != nil {
		return errx.Wrap(err)
	}
	defer func() {
		if err := shutdown(); err != nil {
			log.Warnx(err)
		}
	}()

	a, err := wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.db.Close() }()

	if deps, ok := requiredDeps(cmd); ok {
		if err := a.checker.WaitReady(ctx, cfg.Startup.Attempts, cfg.Startup.Delay, deps...); err != nil {
			return err
		}
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	id := fs.String("id", "", "thumbnail id")
	page := fs.Int("page", pagination.DefaultPage, "page number, 1-based")
	size := fs.Int("size", pagination.DefaultPageSize, "page size")
	if err := fs.Parse(args); err != nil {
		return errx.Wrap(err)
	}

	switch cmd {
	case "migrate":
		if err := pgrepo.CreateSchema(ctx, a.db); err != nil {
			return err
		}
		return output(a.storage.EnsureBucket(ctx))
	case "health":
		report := a.checker.Check(ctx)
		if err := printJSON(report); err != nil {
			return err
		}
		if !report.Healthy() {
			return errx.New("service is degraded", errx.WithCode(health.CodeNotReady))
		}
		return nil
	case "pending":
		return output(a.jobs.ListPending(ctx))
	case "get":
		return output(a.thumbnails.GetThumbnailByID(ctx, *id))
	case "list":
		return output(a.thumbnails.ListThumbnails(ctx, pagination.WithPage(*page), pagination.WithPageSize(*size)))
	case "purge":
		return output(a.maintenance.Purge(ctx, *id))
	default:
		usage()
		return errx.New("unknown command", errx.WithDetails(errx.D{"command": cmd}))
	}
}

// requiredDeps lists the dependencies cmd cannot run without. The cache is
// never required: reads fall back to the database. ok is false when cmd
// should not wait at all.
func requiredDeps(cmd string) ([]health.Dependency, bool) {
	switch cmd {
	case "health":
		return nil, false
	case "purge":
		return []health.Dependency{health.Database, health.Storage}, true
	default:
		return []health.Dependency{health.Database}, true
	}
}

func wire(ctx context.Context, cfg Config, log logger.Logger) (*app, error) {
	db, err := pg.NewBunDB(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, err
	}

	rdb := rediswr.NewClient(cfg.Redis)
	c := rediswr.NewCache(rdb, cfg.Redis.KeyPrefix, log)

	store, err := miniowr.New(cfg.Storage, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	repo := pgrepo.New(db, log)
	txm := pg.NewTxManager(db)

	return &app{
		db:          db,
		thumbnails:  usecase.NewThumbnails(repo, c, log),
		jobs:        usecase.NewJobs(repo, txm, log),
		maintenance: usecase.NewMaintenance(repo, txm, c, store, log),
		checker:     health.NewChecker(db, c, store, log),
		storage:     store,
	}, nil
}

// output prints the value of r as JSON, or its failure payload.
func output[T any](r result.Result[T]) error {
	return result.Match(r,
		func(v T) error { return printJSON(v) },
		func(err error) error {
			_ = printJSON(apperr.Describe(err))
			return err
		},
	)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return errx.Wrap(enc.Encode(v))
}
