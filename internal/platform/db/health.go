package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// StoreStats summarizes the pool serving the prescription and dose-event
// stores.
type StoreStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
	// WaitCount is how often a caller had to wait for a free connection;
	// a growing value means the pool is undersized for the dose-event
	// write bursts that finalize produces.
	WaitCount int64 `json:"wait_count"`
}

// HealthHandler reports whether the medication store is reachable, with a
// ping round-trip time and pool occupancy for capacity debugging.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		start := time.Now()
		err := pool.Ping(ctx)
		pingMs := time.Since(start).Milliseconds()

		stat := pool.Stat()
		body := map[string]interface{}{
			"ping_ms": pingMs,
			"store": StoreStats{
				TotalConns:    stat.TotalConns(),
				IdleConns:     stat.IdleConns(),
				AcquiredConns: stat.AcquiredConns(),
				MaxConns:      stat.MaxConns(),
				WaitCount:     stat.EmptyAcquireCount(),
			},
		}

		if err != nil {
			body["status"] = "unhealthy"
			body["error"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, body)
		}

		body["status"] = "healthy"
		return c.JSON(http.StatusOK, body)
	}
}
