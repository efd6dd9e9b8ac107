// Package observability exports validator metrics at the end of a run.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog/log"
)

// Exporter writes a one-shot snapshot of a registry. A process that exits
// right after validating has no scrape window, so metrics are written to
// a node-exporter textfile and/or pushed to a Pushgateway instead.
type Exporter struct {
	gatherer       prometheus.Gatherer
	textfile       string
	pushgatewayURL string
	job            string
}

// ExporterConfig holds export destinations. Empty fields are skipped.
type ExporterConfig struct {
	Textfile       string
	PushgatewayURL string
	Job            string
}

// NewExporter creates an exporter for the given gatherer.
func NewExporter(g prometheus.Gatherer, cfg ExporterConfig) *Exporter {
	job := cfg.Job
	if job == "" {
		job = "server_json_validator"
	}
	return &Exporter{
		gatherer:       g,
		textfile:       cfg.Textfile,
		pushgatewayURL: cfg.PushgatewayURL,
		job:            job,
	}
}

// Enabled reports whether any destination is configured.
func (e *Exporter) Enabled() bool {
	return e.textfile != "" || e.pushgatewayURL != ""
}

// Export writes the snapshot to every configured destination.
// All destinations are attempted; the first error is returned.
func (e *Exporter) Export() error {
	var firstErr error

	if e.textfile != "" {
		if err := prometheus.WriteToTextfile(e.textfile, e.gatherer); err != nil {
			log.Error().Err(err).Str("file", e.textfile).Msg("Failed to write metrics textfile")
			firstErr = fmt.Errorf("write metrics textfile: %w", err)
		} else {
			log.Debug().Str("file", e.textfile).Msg("Metrics textfile written")
		}
	}

	if e.pushgatewayURL != "" {
		err := push.New(e.pushgatewayURL, e.job).
			Gatherer(e.gatherer).
			Push()
		if err != nil {
			log.Error().Err(err).Str("url", e.pushgatewayURL).Msg("Failed to push metrics")
			if firstErr == nil {
				firstErr = fmt.Errorf("push metrics: %w", err)
			}
		} else {
			log.Debug().Str("url", e.pushgatewayURL).Str("job", e.job).Msg("Metrics pushed")
		}
	}

	return firstErr
}
