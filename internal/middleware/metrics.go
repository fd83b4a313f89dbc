package middleware

import (
	"sync"

	"scribe/internal/observability"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	promMu        sync.Mutex
	promByService = map[string]*fiberprometheus.FiberPrometheus{}
)

// InitMetrics returns the Prometheus HTTP instrumentation for serviceName.
// Collectors live in the default registry, so one instance per service name
// is shared by every app built in the process.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promMu.Lock()
	defer promMu.Unlock()
	if prom, ok := promByService[serviceName]; ok {
		return prom
	}
	prom := fiberprometheus.New(serviceName)
	promByService[serviceName] = prom
	return prom
}

// MetricsMiddleware records request metrics and counts page cache outcomes
// reported by the cache middleware through the X-Cache header.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := prom.Middleware(c)
		switch string(c.Response().Header.Peek("X-Cache")) {
		case "hit":
			observability.PageCacheResults.WithLabelValues("hit").Inc()
		case "miss":
			observability.PageCacheResults.WithLabelValues("miss").Inc()
		}
		return err
	}
}
