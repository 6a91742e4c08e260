// Package metrics defines the prometheus collectors shared by the
// scheduler and worker binaries.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "source_fetch_duration_seconds",
		Help:    "Duration of source HTTP fetches",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
	}, []string{"status"})

	TasksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_tasks_total",
		Help: "Queue tasks processed by type and outcome",
	}, []string{"type", "outcome"})

	PostsDiscovered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_discovered_total",
		Help: "Newly ingested posts across all sources",
	})

	LLMCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_call_duration_seconds",
		Help:    "Duration of LLM calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Tokens consumed by LLM calls",
	}, []string{"model", "type"})
)

// MustRegister registers all collectors on the given registerer.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		FetchDuration,
		TasksTotal,
		PostsDiscovered,
		LLMCallDuration,
		LLMTokensTotal,
	)
}

// ObserveFetch records one source fetch attempt.
func ObserveFetch(start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	FetchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// ObserveTask records one processed queue task.
func ObserveTask(taskType, outcome string) {
	TasksTotal.WithLabelValues(taskType, outcome).Inc()
}

// ObserveLLMCall records duration and token usage of one LLM call.
func ObserveLLMCall(model string, start time.Time, inputTokens, outputTokens, totalTokens int) {
	LLMCallDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	LLMTokensTotal.WithLabelValues(model, "input").Add(float64(inputTokens))
	LLMTokensTotal.WithLabelValues(model, "output").Add(float64(outputTokens))
	LLMTokensTotal.WithLabelValues(model, "total").Add(float64(totalTokens))
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
