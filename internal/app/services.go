package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nexacrm/ledgerd/internal/exports"
	"github.com/nexacrm/ledgerd/internal/observability"
)

// NewExportService wires the export service on top of PostgreSQL and the
// Redis preview cache. redisClient and metrics may be nil.
func NewExportService(cfg *Config, pool *pgxpool.Pool, redisClient *redis.Client, metrics *observability.Metrics, logger *slog.Logger) *exports.Service {
	opts := exports.Options{Logger: logger}
	if cfg != nil {
		opts.DefaultSIREN = cfg.FECDefaultSIREN
	}
	if metrics != nil {
		opts.Observer = metrics
	}
	var cache *exports.Cache
	if redisClient != nil && cfg != nil {
		cache = exports.NewCache(redisClient, cfg.PreviewCacheTTL)
	}
	return exports.NewService(exports.NewPostgresRepository(pool), cache, opts)
}
