package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"

	"github.com/a3tai/labreport-summarizer/internal/metrics"
	"github.com/a3tai/labreport-summarizer/internal/pdf"
	"github.com/a3tai/labreport-summarizer/internal/pipeline"
)

// engine is the wired extraction stack
type engine struct {
	pipeline *pipeline.Pipeline
	registry *prometheus.Registry
}

func (a *app) newEngine(options ...pipeline.Option) (*engine, error) {
	rules, err := a.cfg.LoadRules()
	if err != nil {
		return nil, eris.Wrap(err, "load rules")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := metrics.New(registry)
	if err != nil {
		return nil, eris.Wrap(err, "register metrics")
	}

	reader := pdf.NewReader(a.cfg.MaxFileSize)
	options = append([]pipeline.Option{pipeline.WithRecorder(recorder)}, options...)

	return &engine{
		pipeline: pipeline.New(reader, rules, a.cfg.PipelineOptions(), options...),
		registry: registry,
	}, nil
}
