package app

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"server-json-validator/internal/config"
	"server-json-validator/internal/document"
	"server-json-validator/internal/events"
	"server-json-validator/internal/models"
	"server-json-validator/internal/observability"
	"server-json-validator/internal/observability/logging"
	"server-json-validator/internal/observability/metrics"
	"server-json-validator/internal/report"
	"server-json-validator/internal/validation"
)

// Process exit codes.
const (
	ExitOK   = 0
	ExitFail = 1
)

// Application holds process-wide state for one validator invocation.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	metrics   *metrics.Metrics
	publisher *events.Publisher
	exporter  *observability.Exporter
	printer   *report.Printer
}

// New constructs an Application that reports to out and logs to logOut.
func New(cfg *config.Config, out, logOut io.Writer) *Application {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Observability.LogLevel
	logCfg.Format = cfg.Observability.LogFormat
	if logOut != nil {
		logCfg.Output = logOut
	}
	logging.Init(logCfg)

	m := metrics.NewMetrics()
	a := &Application{
		Cfg:     cfg,
		Logger:  logging.WithComponent("application"),
		metrics: m,
		publisher: events.New(&events.Config{
			Enabled:   cfg.Kafka.Enabled,
			Brokers:   cfg.Kafka.Brokers,
			Topic:     cfg.Kafka.Topic,
			Principal: cfg.Service.Principal,
		}, m),
		exporter: observability.NewExporter(m.Registry, observability.ExporterConfig{
			Textfile:       cfg.Observability.MetricsTextfile,
			PushgatewayURL: cfg.Observability.PushgatewayURL,
			Job:            cfg.Observability.MetricsJob,
		}),
		printer: report.New(out),
	}

	a.Logger.Debug().
		Str("logLevel", cfg.Observability.LogLevel).
		Str("schemaUrl", cfg.Validation.SchemaURL).
		Str("dataPath", cfg.Validation.DataPath).
		Dur("fetchTimeout", cfg.Validation.FetchTimeout).
		Msg("Application created")
	return a
}

// NewDefault constructs an Application on stdout and stderr.
func NewDefault(cfg *config.Config) *Application {
	return New(cfg, os.Stdout, os.Stderr)
}

// Run performs one validation, reports it and returns the exit code.
func (a *Application) Run(ctx context.Context) int {
	runLogger := a.Logger.With().
		Str("method", "Run").
		Logger()

	a.StartupTime = time.Now().UTC()
	runLogger.Debug().
		Time("startupTime", a.StartupTime).
		Msg("Validation starting")

	v := validation.New(a.metrics, a.printer.Hooks())
	summary, err := v.Run(ctx, validation.Options{
		SchemaURL: a.Cfg.Validation.SchemaURL,
		DataPath:  a.Cfg.Validation.DataPath,
		Timeout:   a.Cfg.Validation.FetchTimeout,
	})
	elapsed := time.Since(a.StartupTime)

	result := metrics.ResultSuccess
	if err != nil {
		a.printer.Failure(err)
		result = metrics.ResultError
		var failure *validation.Failure
		if errors.As(err, &failure) {
			result = metrics.ResultInvalid
		}
	} else {
		a.printer.Success(summary)
	}
	a.metrics.RecordRun(result, elapsed.Seconds(), float64(time.Now().Unix()))

	if perr := a.publisher.PublishResult(ctx, a.event(summary, err, elapsed)); perr != nil {
		runLogger.Warn().Err(perr).Msg("Failed to publish validation result")
	}

	if err != nil {
		return ExitFail
	}
	return ExitOK
}

func (a *Application) event(summary *document.Summary, err error, elapsed time.Duration) *models.ValidationEvent {
	ev := &models.ValidationEvent{
		Timestamp:  a.StartupTime.UnixMilli(),
		Principal:  a.Cfg.Service.Principal,
		SchemaURL:  a.Cfg.Validation.SchemaURL,
		DataPath:   a.Cfg.Validation.DataPath,
		DurationMs: elapsed.Milliseconds(),
	}

	var (
		failure *validation.Failure
		opErr   *validation.OperationError
	)
	switch {
	case err == nil:
		ev.EventType = models.EventValidationSucceeded
		ev.Valid = true
		ev.Name = summary.Name
		ev.Version = summary.Version
		ev.Packages = summary.Packages
	case errors.As(err, &failure):
		ev.EventType = models.EventValidationFailed
		ev.Message = failure.Message
		ev.Path = failure.Path
	case errors.As(err, &opErr):
		ev.EventType = models.EventValidationErrored
		ev.Message = opErr.Error()
		ev.Stage = opErr.Stage
	default:
		ev.EventType = models.EventValidationErrored
		ev.Message = err.Error()
	}
	return ev
}

// Shutdown exports metrics and releases the publisher.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	if a.exporter.Enabled() {
		if err := a.exporter.Export(); err != nil {
			shutdownLogger.Warn().Err(err).Msg("Metrics export failed")
		}
	}
	if err := a.publisher.Close(); err != nil {
		shutdownLogger.Warn().Err(err).Msg("Failed to close publisher")
	}

	shutdownLogger.Debug().Msg("Validator shut down")
}
