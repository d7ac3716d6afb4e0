package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nexacrm/ledgerd/cmd/ledgerctl/cli"
	"github.com/nexacrm/ledgerd/internal/app"
	"github.com/nexacrm/ledgerd/internal/platform/cache"
	"github.com/nexacrm/ledgerd/internal/platform/db"
)

// resources owns the connections opened by the commands.
type resources struct {
	mu      sync.Mutex
	closers []func()
}

func (r *resources) add(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, fn)
}

func (r *resources) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loadConfig := sync.OnceValues(app.LoadConfig)
	res := &resources{}

	deps := cli.Deps{
		Exports: func(ctx context.Context) (cli.Exporter, error) {
			cfg, err := loadConfig()
			if err != nil {
				return nil, err
			}
			logger := app.NewLoggerTo(os.Stderr, cfg)
			pool, err := db.New(ctx, cfg.PGDSN)
			if err != nil {
				return nil, err
			}
			res.add(pool.Close)
			redisClient, err := cache.New(ctx, cfg.RedisAddr)
			if err != nil {
				logger.Warn("redis unavailable, preview cache disabled")
			} else {
				res.add(func() { _ = redisClient.Close() })
			}
			return app.NewExportService(cfg, pool, redisClient, nil, logger), nil
		},
		Queue: func(ctx context.Context) (cli.Queue, error) {
			cfg, err := loadConfig()
			if err != nil {
				return nil, err
			}
			jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
			if err != nil {
				return nil, err
			}
			res.add(func() { _ = jobsCLI.Close() })
			return jobsCLI, nil
		},
	}

	err := cli.NewRootCommand(deps).ExecuteContext(ctx)
	res.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
