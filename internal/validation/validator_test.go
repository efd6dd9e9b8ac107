package validation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"server-json-validator/internal/observability/metrics"
)

const testSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["name", "version"],
	"properties": {
		"name": {"type": "string"},
		"version": {"type": "string"},
		"packages": {"type": "array", "items": {"type": "object"}}
	}
}`

func schemaServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dataFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func yamlFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Success_YAML(t *testing.T) {
	srv := schemaServer(t, testSchema)
	path := yamlFile(t, "name: demo\nversion: \"1.0.0\"\npackages:\n  - id: a\n")

	summary, err := New(nil, Hooks{}).Run(context.Background(), Options{SchemaURL: srv.URL, DataPath: path})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if summary.Packages != 1 {
		t.Errorf("expected 1 package, got %d", summary.Packages)
	}
}

func TestRun_Success(t *testing.T) {
	srv := schemaServer(t, testSchema)
	path := dataFile(t, `{"name": "demo", "version": "1.0.0", "packages": [{"id": "a"}, {"id": "b"}]}`)

	summary, err := New(nil, Hooks{}).Run(context.Background(), Options{SchemaURL: srv.URL, DataPath: path, Timeout: time.Second})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if summary.Name != "demo" {
		t.Errorf("expected name 'demo', got %s", summary.Name)
	}
	if summary.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %s", summary.Version)
	}
	if summary.Packages != 2 {
		t.Errorf("expected 2 packages, got %d", summary.Packages)
	}
}

func TestRun_Success_OptionalFieldsAbsent(t *testing.T) {
	srv := schemaServer(t, `{"type": "object"}`)
	path := dataFile(t, `{}`)

	summary, err := New(nil, Hooks{}).Run(context.Background(), Options{SchemaURL: srv.URL, DataPath: path})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if summary.HasName || summary.HasVersion || summary.Packages != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
}

func TestRun_ValidationFailures(t *testing.T) {
	srv := schemaServer(t, testSchema)

	tests := []struct {
		name     string
		doc      string
		wantPath string
	}{
		{"missing required field", `{"name": "demo"}`, "version"},
		{"wrong type", `{"name": "demo", "version": 1.0}`, "version"},
		{"wrong nested type", `{"name": "demo", "version": "1", "packages": [{}, 3]}`, "packages.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, Hooks{}).Run(context.Background(), Options{SchemaURL: srv.URL, DataPath: dataFile(t, tt.doc)})

			var failure *Failure
			if !errors.As(err, &failure) {
				t.Fatalf("expected *Failure, got %T (%v)", err, err)
			}
			if failure.Message == "" {
				t.Error("expected non-empty failure message")
			}
			if got := failure.PathString(); got != tt.wantPath {
				t.Errorf("expected path %q, got %q", tt.wantPath, got)
			}
		})
	}
}

func TestRun_OperationErrors(t *testing.T) {
	srv := schemaServer(t, testSchema)
	badSchema := schemaServer(t, `{"type": `)
	invalidSchema := schemaServer(t, `{"type": 12}`)
	valid := `{"name": "demo", "version": "1.0.0"}`

	closed := httptest.NewServer(http.NotFoundHandler())
	unreachable := closed.URL
	closed.Close()

	tests := []struct {
		name      string
		schemaURL string
		dataPath  func(t *testing.T) string
		wantStage string
	}{
		{"missing data file", srv.URL, func(t *testing.T) string { return filepath.Join(t.TempDir(), "server.json") }, StageLoad},
		{"malformed data", srv.URL, func(t *testing.T) string { return dataFile(t, `{"name": `) }, StageLoad},
		{"malformed yaml data", srv.URL, func(t *testing.T) string { return yamlFile(t, "name: [unclosed\n") }, StageLoad},
		{"unreachable host", unreachable, func(t *testing.T) string { return dataFile(t, valid) }, StageFetch},
		{"malformed schema", badSchema.URL, func(t *testing.T) string { return dataFile(t, valid) }, StageFetch},
		{"invalid schema", invalidSchema.URL, func(t *testing.T) string { return dataFile(t, valid) }, StageCompile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, Hooks{}).Run(context.Background(), Options{SchemaURL: tt.schemaURL, DataPath: tt.dataPath(t), Timeout: time.Second})

			var opErr *OperationError
			if !errors.As(err, &opErr) {
				t.Fatalf("expected *OperationError, got %T (%v)", err, err)
			}
			if opErr.Stage != tt.wantStage {
				t.Errorf("expected stage %s, got %s", tt.wantStage, opErr.Stage)
			}
			if opErr.Error() == "" {
				t.Error("expected non-empty error description")
			}
			var failure *Failure
			if errors.As(err, &failure) {
				t.Error("operation error must not carry a structural path")
			}
		})
	}
}

func TestRun_Idempotent(t *testing.T) {
	srv := schemaServer(t, testSchema)
	v := New(nil, Hooks{})

	tests := []struct {
		name string
		doc  string
	}{
		{"valid", `{"name": "demo", "version": "1.0.0"}`},
		{"invalid", `{"name": 1, "version": 2, "packages": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{SchemaURL: srv.URL, DataPath: dataFile(t, tt.doc)}

			s1, err1 := v.Run(context.Background(), opts)
			s2, err2 := v.Run(context.Background(), opts)

			if (err1 == nil) != (err2 == nil) {
				t.Fatalf("runs disagree: %v vs %v", err1, err2)
			}
			if err1 != nil && err1.Error() != err2.Error() {
				t.Errorf("diagnostics differ: %q vs %q", err1, err2)
			}
			if err1 == nil && *s1 != *s2 {
				t.Errorf("summaries differ: %+v vs %+v", s1, s2)
			}
		})
	}
}

func TestRun_HooksInOrder(t *testing.T) {
	srv := schemaServer(t, testSchema)
	path := dataFile(t, `{"name": "demo", "version": "1.0.0"}`)

	var calls []string
	hooks := Hooks{
		OnFetch:    func(u string) { calls = append(calls, "fetch:"+u) },
		OnLoad:     func(p string) { calls = append(calls, "load:"+p) },
		OnValidate: func() { calls = append(calls, "validate") },
	}

	if _, err := New(nil, hooks).Run(context.Background(), Options{SchemaURL: srv.URL, DataPath: path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"fetch:" + srv.URL, "load:" + path, "validate"}
	if len(calls) != len(want) {
		t.Fatalf("expected hooks %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("hook %d: expected %s, got %s", i, want[i], calls[i])
		}
	}
}

func TestRun_StopsAfterFetchFailure(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()

	loaded := false
	hooks := Hooks{OnLoad: func(string) { loaded = true }}

	_, err := New(nil, hooks).Run(context.Background(), Options{SchemaURL: url, DataPath: "server.json", Timeout: time.Second})
	if err == nil {
		t.Fatal("expected error")
	}
	if loaded {
		t.Error("expected load stage to be skipped after fetch failure")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	srv := schemaServer(t, testSchema)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, Hooks{}).Run(ctx, Options{SchemaURL: srv.URL, DataPath: dataFile(t, `{}`)})

	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Stage != StageFetch {
		t.Errorf("expected fetch operation error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestRun_RecordsMetrics(t *testing.T) {
	srv := schemaServer(t, testSchema)
	m := metrics.NewMetrics()

	_, err := New(m, Hooks{}).Run(context.Background(), Options{SchemaURL: srv.URL, DataPath: filepath.Join(t.TempDir(), "missing.json")})
	if err == nil {
		t.Fatal("expected error")
	}

	if got := testutil.ToFloat64(m.StageErrors.WithLabelValues(StageLoad)); got != 1 {
		t.Errorf("expected 1 load stage error, got %v", got)
	}
	if got := testutil.ToFloat64(m.SchemaBytes); got != float64(len(testSchema)) {
		t.Errorf("expected schema bytes %d, got %v", len(testSchema), got)
	}
}

func TestFailure_Error(t *testing.T) {
	tests := []struct {
		name string
		f    Failure
		want string
	}{
		{"root", Failure{Message: "got array, want object"}, "got array, want object"},
		{"nested", Failure{Message: "got number, want string", Path: []string{"version"}}, "version: got number, want string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
