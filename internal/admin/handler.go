// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

// Counter is one summary figure for the dashboard.
type Counter func(ctx context.Context) (int, error)

// Counters feeds GET /admin/metrics. A nil counter reports zero.
type Counters struct {
	Students            Counter
	Teachers            Counter
	Theses              Counter
	Departments         Counter
	PendingApplications Counter
}

type Handler struct {
	counters   Counters
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	redisPing  func(ctx context.Context) error
	dbPing     func(ctx context.Context) error
}

type HandlerConfig struct {
	Counters   Counters
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
	DBPing     func(ctx context.Context) error
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		counters:   cfg.Counters,
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		redisPing:  cfg.RedisPing,
		dbPing:     cfg.DBPing,
	}
}

// RoleCounter adapts a per-role count such as user.Service.CountByRole.
func RoleCounter(
	count func(ctx context.Context, role string) (int, error),
	role string,
) Counter {
	return func(ctx context.Context) (int, error) {
		return count(ctx, role)
	}
}

// RegisterRoutes adds the dashboard endpoints to r without claiming the
// /admin prefix, which the moderation packages share.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, staffOnly, superadminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.With(staffOnly).Get("/admin/metrics", h.GetMetrics)

		r.Group(func(r chi.Router) {
			r.Use(superadminOnly)
			r.Get("/admin/stats", h.GetSystemStats)
			r.Get("/admin/stats/db", h.GetDatabaseStats)
			r.Get("/admin/stats/redis", h.GetRedisStats)
			r.Get("/admin/stats/runtime", h.GetRuntimeStats)
		})
	})
}

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.Summary(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, metrics)
}

// Summary runs the counters concurrently; the first failure cancels the rest.
func (h *Handler) Summary(ctx context.Context) (*MetricsResponse, error) {
	var out MetricsResponse

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range []struct {
		name  string
		count Counter
		dst   *int
	}{
		{"students", h.counters.Students, &out.Students},
		{"teachers", h.counters.Teachers, &out.Teachers},
		{"theses", h.counters.Theses, &out.Theses},
		{"departments", h.counters.Departments, &out.Departments},
		{"pending applications", h.counters.PendingApplications, &out.PendingApplications},
	} {
		if c.count == nil {
			continue
		}
		g.Go(func() error {
			n, err := c.count(ctx)
			if err != nil {
				return fmt.Errorf("count %s: %w", c.name, err)
			}
			*c.dst = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbHealthy := true
	if h.dbPing != nil {
		if err := h.dbPing(ctx); err != nil {
			dbHealthy = false
		}
	}

	redisHealthy := true
	if h.redisPing != nil {
		if err := h.redisPing(ctx); err != nil {
			redisHealthy = false
		}
	}

	core.OK(w, SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: dbHealthy,
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: redisHealthy,
			Stats:   h.getRedisStats(),
		},
		Runtime: readRuntimeStats(),
	})
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, readRuntimeStats())
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}
