// Package obs is the project's structured-logging and metrics seam,
// wrapping github.com/sourcegraph/log and Prometheus the way the teacher
// repo's own service glue does (e.g. grpc/defaults and internal/mountinfo)
// rather than logging through the standard library.
package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	sglog "github.com/sourcegraph/log"
)

var initOnce sync.Once

// Init initializes the global structured logger for serviceName. Only the
// first call takes effect; later calls are no-ops, since sglog.Init panics
// on a second call.
func Init(serviceName string) {
	initOnce.Do(func() {
		sglog.Init(sglog.Resource{Name: serviceName})
	})
}

// Logger is the logger type handed to Query and its collaborators.
type Logger = sglog.Logger

// Scoped returns a logger scoped to name, matching the library's
// conventional "component.subcomponent" scoping (spec.md's ambient
// logging stack).
func Scoped(name string) Logger {
	return sglog.Scoped(name, "")
}

// Field constructors re-exported so callers need not import sglog directly.
func Err(err error) sglog.Field          { return sglog.Error(err) }
func String(k, v string) sglog.Field     { return sglog.String(k, v) }
func Int(k string, v int) sglog.Field    { return sglog.Int(k, v) }
func Bool(k string, v bool) sglog.Field  { return sglog.Bool(k, v) }

// Metrics holds the Prometheus counters exported for query evaluation
// (spec.md's domain-stack metrics component).
type Metrics struct {
	MatchesTotal    *prometheus.CounterVec
	EvalErrorsTotal *prometheus.CounterVec
	ApplyTotal      *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// GetMetrics lazily registers and returns the package's Prometheus
// counters; repeated calls return the same instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			MatchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "jql_query_matches_total",
				Help: "Total number of documents evaluated that matched a query's predicate.",
			}, []string{"collection"}),
			EvalErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "jql_query_eval_errors_total",
				Help: "Total number of errors raised while evaluating a query against a document.",
			}, []string{"collection", "code"}),
			ApplyTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "jql_query_apply_total",
				Help: "Total number of patch-then-project applications performed.",
			}, []string{"collection"}),
		}
	})
	return metrics
}
