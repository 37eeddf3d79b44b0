package modules

import (
	"time"

	"github.com/oksasatya/competitor-radar/internal/container"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/ratelimit"
)

// limiter shares counters across instances through Redis when it is wired.
func limiter(prefix string, max int, window time.Duration) ratelimit.Limiter {
	if rdb := container.GetRedis(); rdb != nil {
		return ratelimit.NewRedisLimiter(rdb, "rl:"+prefix+":", max, window)
	}
	return ratelimit.NewMemoryLimiter(max, window, nil)
}
