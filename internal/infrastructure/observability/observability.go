package observability

import (
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
)

// Provider bundles the tracer, logger and metric instruments handed to every service.
// Anything not supplied degrades to its no-op counterpart.
type Provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics instruments
}

type Option func(*Provider)

func WithTracer(t observability.Tracer) Option {
	return func(p *Provider) {
		if t != nil {
			p.tracer = t
		}
	}
}

func WithLogger(l observability.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithInstruments installs registered counters and histograms, usually from prometrics.Instruments.
func WithInstruments(counters map[observability.MetricKey]observability.Counter, histograms map[observability.MetricKey]observability.Histogram) Option {
	return func(p *Provider) {
		for k, c := range counters {
			if c != nil {
				p.metrics.counters[k] = c
			}
		}
		for k, h := range histograms {
			if h != nil {
				p.metrics.histograms[k] = h
			}
		}
	}
}

func New(opts ...Option) *Provider {
	p := &Provider{
		tracer: observability.NopTracer(),
		logger: observability.NopLogger(),
		metrics: instruments{
			counters:   map[observability.MetricKey]observability.Counter{},
			histograms: map[observability.MetricKey]observability.Histogram{},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Tracer() observability.Tracer   { return p.tracer }
func (p *Provider) Logger() observability.Logger   { return p.logger }
func (p *Provider) Metrics() observability.Metrics { return p.metrics }

// instruments resolves metric keys; unknown keys get a discarding instrument so a
// missing registration never breaks a use case.
type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (m instruments) Counter(key observability.MetricKey) observability.Counter {
	if c, ok := m.counters[key]; ok {
		return c
	}
	return observability.NopCounter()
}

func (m instruments) Histogram(key observability.MetricKey) observability.Histogram {
	if h, ok := m.histograms[key]; ok {
		return h
	}
	return observability.NopHistogram()
}
