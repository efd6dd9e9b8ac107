package schema

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// maxSchemaBytes bounds a single schema response.
const maxSchemaBytes = 16 << 20

// Loader fetches schema documents over http(s) or from file URLs.
// It implements jsonschema.URLLoader so remote $refs resolve through the
// same client and timeout as the top-level schema.
type Loader struct {
	ctx    context.Context
	client *http.Client
}

// NewLoader returns a loader whose requests are bound to ctx and time out
// after timeout. jsonschema.URLLoader carries no context, so it is held
// for the lifetime of one validation run.
func NewLoader(ctx context.Context, timeout time.Duration) *Loader {
	return &Loader{
		ctx:    ctx,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the raw bytes at rawURL.
func (l *Loader) Fetch(rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse schema url %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		return l.fetchHTTP(u.String())
	case "file":
		data, err := os.ReadFile(u.Path)
		if err != nil {
			return nil, fmt.Errorf("read schema file: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported schema url scheme %q", u.Scheme)
	}
}

func (l *Loader) fetchHTTP(rawURL string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(l.ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/schema+json, application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch schema: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch schema: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSchemaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read schema body: %w", err)
	}
	if len(data) > maxSchemaBytes {
		return nil, fmt.Errorf("schema at %s exceeds %d bytes", rawURL, maxSchemaBytes)
	}

	log.Debug().
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Schema fetched")

	return data, nil
}

// Load implements jsonschema.URLLoader.
func (l *Loader) Load(rawURL string) (any, error) {
	data, err := l.Fetch(rawURL)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses a JSON schema document, keeping numbers exact.
func Decode(data []byte) (any, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return doc, nil
}
