package gateway

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the Prometheus collectors for gateway calls.
type Recorder struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRecorder registers the gateway collectors on reg. A nil reg uses the
// default registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdlc_gateway_requests_total",
				Help: "Total number of gateway calls by operation, provider, and outcome",
			},
			[]string{"operation", "provider", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sdlc_gateway_request_duration_seconds",
				Help:    "Duration of gateway calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "provider"},
		),
	}
}

// Observe records one finished call.
func (r *Recorder) Observe(operation, provider string, err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.requestsTotal.WithLabelValues(operation, provider, outcome).Inc()
	r.requestDuration.WithLabelValues(operation, provider).Observe(d.Seconds())
}

// Instrument wraps p so every call is counted and timed. A nil recorder
// returns p unchanged.
func Instrument(p Provider, rec *Recorder) Provider {
	if rec == nil {
		return p
	}
	return &instrumented{next: p, rec: rec}
}

type instrumented struct {
	next Provider
	rec  *Recorder
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) observe(op string, start time.Time, err error) {
	i.rec.Observe(op, i.next.Name(), err, time.Since(start))
}

func (i *instrumented) Verify(ctx context.Context, requirements string) (*VerifyResult, error) {
	start := time.Now()
	res, err := i.next.Verify(ctx, requirements)
	i.observe("verify", start, err)
	return res, err
}

func (i *instrumented) Assess(ctx context.Context, req AssessRequest) (*AssessResult, error) {
	start := time.Now()
	res, err := i.next.Assess(ctx, req)
	i.observe("assess", start, err)
	return res, err
}

func (i *instrumented) ImplementImprovements(ctx context.Context, req ImproveRequest) (*ImproveResult, error) {
	start := time.Now()
	res, err := i.next.ImplementImprovements(ctx, req)
	i.observe("implement_improvements", start, err)
	return res, err
}

func (i *instrumented) Plan(ctx context.Context, requirements string) (string, error) {
	start := time.Now()
	res, err := i.next.Plan(ctx, requirements)
	i.observe("plan", start, err)
	return res, err
}

func (i *instrumented) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	start := time.Now()
	res, err := i.next.Generate(ctx, req)
	i.observe("generate", start, err)
	return res, err
}
