// Package report prints validation progress and results for humans.
package report

import (
	"errors"
	"fmt"
	"io"

	"server-json-validator/internal/document"
	"server-json-validator/internal/validation"
)

// Printer writes report lines to an output stream.
type Printer struct {
	out io.Writer
}

// New returns a printer writing to out.
func New(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Hooks returns validation hooks that print a progress line per stage.
func (p *Printer) Hooks() validation.Hooks {
	return validation.Hooks{
		OnFetch: func(schemaURL string) {
			fmt.Fprintf(p.out, "Fetching schema from %s...\n", schemaURL)
		},
		OnLoad: func(dataPath string) {
			fmt.Fprintf(p.out, "Loading %s...\n", dataPath)
		},
		OnValidate: func() {
			fmt.Fprintln(p.out, "Validating...")
		},
	}
}

// Success prints the success block. Name and version lines appear only
// when the document has them.
func (p *Printer) Success(s *document.Summary) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "✓ Validation successful!")
	if s.HasName {
		fmt.Fprintf(p.out, "  Name: %s\n", s.Name)
	}
	if s.HasVersion {
		fmt.Fprintf(p.out, "  Version: %s\n", s.Version)
	}
	fmt.Fprintf(p.out, "  Packages: %d\n", s.Packages)
}

// Failure prints the failure block for err.
func (p *Printer) Failure(err error) {
	fmt.Fprintln(p.out)

	var failure *validation.Failure
	if errors.As(err, &failure) {
		fmt.Fprintln(p.out, "✗ Validation failed:")
		fmt.Fprintf(p.out, "  %s\n", failure.Message)
		if path := failure.PathString(); path != "" {
			fmt.Fprintf(p.out, "  Path: %s\n", path)
		}
		return
	}

	fmt.Fprintf(p.out, "✗ Error: %v\n", err)
}
