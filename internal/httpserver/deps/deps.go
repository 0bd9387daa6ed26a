package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/hrtlog/internal/index"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	"github.com/MrSnakeDoc/hrtlog/internal/metrics"
	"github.com/MrSnakeDoc/hrtlog/internal/settings"
	"github.com/MrSnakeDoc/hrtlog/internal/store"
	redisstore "github.com/MrSnakeDoc/hrtlog/internal/store/redis"
)

// Reloader rebuilds the timeline index from the data files
type Reloader interface {
	Reload(ctx context.Context) error
}

type Deps struct {
	Logger           logger.Logger
	StartTime        time.Time
	Version          string
	Commit           string
	BuildDate        string
	GoVersion        string
	TimeNow          func() time.Time     // for testing, defaults to time.Now
	AllowedHosts     []string             // Host headers allowed to access the server
	AllowedCIDRS     []string             // IPs allowed to access the API and probes
	TrustProxy       bool                 // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateBurst        int                  // token bucket size per client on mutating routes
	RateRefillPerMin int                  // tokens refilled per minute
	Store            *store.Store         // record store over the data directory
	Settings         *settings.Manager    // app settings blob
	Index            *index.TimelineIndex // in-memory merged timeline
	Cache            *redisstore.Store    // query cache, nil when Redis is disabled
	Reloader         Reloader             // synchronous reload after a mutation
	ReloadTrigger    chan struct{}        // channel to trigger an asynchronous reload
	Metrics          *metrics.Metrics     // nil disables /metrics and request counting
}

// Now returns d.TimeNow() or time.Now when unset
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
