// Package validation runs the fetch, load and validate pipeline for one
// data document.
package validation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"server-json-validator/internal/document"
	"server-json-validator/internal/observability/logging"
	"server-json-validator/internal/observability/metrics"
	"server-json-validator/internal/schema"
)

// Options are the inputs of a validation run.
type Options struct {
	SchemaURL string
	DataPath  string
	Timeout   time.Duration
}

// Hooks are called as each stage starts. Nil hooks are skipped.
type Hooks struct {
	OnFetch    func(schemaURL string)
	OnLoad     func(dataPath string)
	OnValidate func()
}

// Validator checks a data document against a remote schema.
type Validator struct {
	metrics *metrics.Metrics
	hooks   Hooks
}

// New creates a validator. A nil metrics value gets a private instance.
func New(m *metrics.Metrics, hooks Hooks) *Validator {
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &Validator{metrics: m, hooks: hooks}
}

// Run validates the document at opts.DataPath against the schema at
// opts.SchemaURL. It returns the document summary on success, a *Failure
// when the document does not conform, and an *OperationError otherwise.
// Each stage is attempted once.
func (v *Validator) Run(ctx context.Context, opts Options) (*document.Summary, error) {
	logger := logging.WithRun("validator", opts.SchemaURL, opts.DataPath)

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	loader := schema.NewLoader(ctx, opts.Timeout)

	call(v.hooks.OnFetch, opts.SchemaURL)
	var schemaDoc any
	err := v.stage(logger, StageFetch, func() error {
		data, err := loader.Fetch(opts.SchemaURL)
		if err != nil {
			return err
		}
		v.metrics.RecordSchemaSize(len(data))
		schemaDoc, err = schema.Decode(data)
		return err
	})
	if err != nil {
		return nil, err
	}

	call(v.hooks.OnLoad, opts.DataPath)
	var doc *document.Document
	err = v.stage(logger, StageLoad, func() error {
		var err error
		doc, err = document.Load(opts.DataPath)
		if err != nil {
			return err
		}
		v.metrics.RecordDocumentSize(doc.Size)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if v.hooks.OnValidate != nil {
		v.hooks.OnValidate()
	}
	var validator *schema.Validator
	err = v.stage(logger, StageCompile, func() error {
		var err error
		validator, err = schema.Compile(loader, opts.SchemaURL, schemaDoc)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = v.stage(logger, StageValidate, func() error {
		return validator.Validate(doc.Value)
	})
	if err != nil {
		return nil, err
	}

	summary := document.Summarize(doc.Value)
	logger.Info().
		Str("name", summary.Name).
		Str("version", summary.Version).
		Int("packages", summary.Packages).
		Msg("Document is valid")
	return &summary, nil
}

// stage times fn and classifies its error. A schema violation becomes a
// *Failure; anything else an *OperationError tagged with the stage.
func (v *Validator) stage(logger zerolog.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	var viol *schema.Violation
	if errors.As(err, &viol) {
		v.metrics.RecordStage(name, elapsed.Seconds(), false)
		logger.Info().
			Str("stage", name).
			Strs("path", viol.Path).
			Str("keyword", viol.Keyword).
			Msg(viol.Message)
		return &Failure{Message: viol.Message, Path: viol.Path}
	}

	v.metrics.RecordStage(name, elapsed.Seconds(), err != nil)
	if err != nil {
		logger.Info().Err(err).Str("stage", name).Dur("duration", elapsed).Msg("Stage failed")
		return &OperationError{Stage: name, Err: err}
	}

	logger.Debug().Str("stage", name).Dur("duration", elapsed).Msg("Stage completed")
	return nil
}

func call(fn func(string), arg string) {
	if fn != nil {
		fn(arg)
	}
}
