// Package schema compiles JSON Schema documents and reduces validation
// errors to a single human-readable violation.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Validator compiles a schema and checks documents against it.
type Validator struct {
	schema *jsonschema.Schema
}

// Violation is the most relevant leaf of a validation error tree.
type Violation struct {
	Message string
	// Path locates the mismatch in the data document as object keys and
	// array indices. Empty means the document root.
	Path    []string
	Keyword string
}

func (v *Violation) Error() string {
	if len(v.Path) == 0 {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", strings.Join(v.Path, "."), v.Message)
}

// Compile builds a validator for doc, registered under schemaURL.
// Remote references are resolved through loader.
func Compile(loader *Loader, schemaURL string, doc any) (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	c.UseLoader(jsonschema.SchemeURLLoader{
		"http":  loader,
		"https": loader,
		"file":  jsonschema.FileLoader{},
	})

	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	sch, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: sch}, nil
}

// Validate checks doc. It returns nil, a *Violation when the document does
// not conform, or another error if validation could not run.
func (v *Validator) Validate(doc any) error {
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		return BestMatch(verr)
	}
	return fmt.Errorf("validate: %w", err)
}

var printer = message.NewPrinter(language.English)

// BestMatch picks one leaf of the error tree: the shallowest instance
// location wins, ties are broken lexically so repeated runs report the
// same violation. A missing required property is appended to the path.
func BestMatch(verr *jsonschema.ValidationError) *Violation {
	leaves := collectLeaves(verr, nil)
	sort.SliceStable(leaves, func(i, j int) bool {
		a, b := leaves[i], leaves[j]
		if len(a.InstanceLocation) != len(b.InstanceLocation) {
			return len(a.InstanceLocation) < len(b.InstanceLocation)
		}
		if ka, kb := joinPath(a.InstanceLocation), joinPath(b.InstanceLocation); ka != kb {
			return ka < kb
		}
		return keyword(a) < keyword(b)
	})
	leaf := leaves[0]

	path := append([]string(nil), leaf.InstanceLocation...)
	if req, ok := leaf.ErrorKind.(*kind.Required); ok && len(req.Missing) > 0 {
		path = append(path, req.Missing[0])
	}

	return &Violation{
		Message: leaf.ErrorKind.LocalizedString(printer),
		Path:    path,
		Keyword: keyword(leaf),
	}
}

func collectLeaves(e *jsonschema.ValidationError, out []*jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(e.Causes) == 0 {
		return append(out, e)
	}
	for _, c := range e.Causes {
		out = collectLeaves(c, out)
	}
	return out
}

func keyword(e *jsonschema.ValidationError) string {
	return strings.Join(e.ErrorKind.KeywordPath(), "/")
}

func joinPath(p []string) string {
	return strings.Join(p, "\x00")
}
