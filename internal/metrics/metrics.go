package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Counter names.
const (
	StageCalls        = "stage_calls_total"
	FeedbackSubmitted = "feedback_submitted_total"
	SessionsCreated   = "sessions_created_total"
	SessionsExpired   = "sessions_expired_total"
	HTTPRequests      = "http_requests_total"
	HTTPRequestErrors = "http_requests_errors_total"
)

const meterName = "productprose"

// Registry counts pipeline and HTTP events. Every increment is also recorded
// on an OpenTelemetry counter of the same name. A nil *Registry drops everything.
type Registry struct {
	mu     sync.RWMutex
	series map[string]*atomic.Int64
	meter  metric.Meter
	instr  map[string]metric.Int64Counter
}

func NewRegistry() *Registry {
	return &Registry{
		series: make(map[string]*atomic.Int64),
		meter:  otel.GetMeterProvider().Meter(meterName),
		instr:  make(map[string]metric.Int64Counter),
	}
}

// seriesKey renders name{k=v,...} with labels sorted by key.
func seriesKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + labels[k]
	}
	return name + "{" + strings.Join(pairs, ",") + "}"
}

// lookup returns the series and instrument for name, creating them on first use.
func (r *Registry) lookup(name, key string) (*atomic.Int64, metric.Int64Counter) {
	r.mu.RLock()
	c, inst := r.series[key], r.instr[name]
	r.mu.RUnlock()
	if c != nil && inst != nil {
		return c, inst
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c = r.series[key]; c == nil {
		c = new(atomic.Int64)
		r.series[key] = c
	}
	if inst = r.instr[name]; inst == nil {
		if ctr, err := r.meter.Int64Counter(name); err == nil {
			r.instr[name] = ctr
			inst = ctr
		}
	}
	return c, inst
}

// Inc adds n to the counter name with the given labels.
func (r *Registry) Inc(ctx context.Context, name string, labels map[string]string, n int64) {
	if r == nil {
		return
	}
	c, inst := r.lookup(name, seriesKey(name, labels))
	c.Add(n)
	if inst == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	inst.Add(ctx, n, metric.WithAttributes(attrs...))
}

// Value returns the current count, 0 for an unseen series.
func (r *Registry) Value(name string, labels map[string]string) int64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c := r.series[seriesKey(name, labels)]; c != nil {
		return c.Load()
	}
	return 0
}

// SnapshotLines returns one "series value" line per counter, sorted.
func (r *Registry) SnapshotLines() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	lines := make([]string, 0, len(r.series))
	for key, c := range r.series {
		lines = append(lines, fmt.Sprintf("%s %d", key, c.Load()))
	}
	sort.Strings(lines)
	return lines
}

// GinHandlerText serves GET /metrics.
func (r *Registry) GinHandlerText(c *gin.Context) {
	c.String(http.StatusOK, "%s", strings.Join(append(r.SnapshotLines(), ""), "\n"))
}
