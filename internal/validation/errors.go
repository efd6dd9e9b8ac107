package validation

import "strings"

// Pipeline stages, used to label operation errors and metrics.
const (
	StageFetch    = "fetch"
	StageLoad     = "load"
	StageCompile  = "compile"
	StageValidate = "validate"
)

// Failure means the data document is well-formed but does not conform to
// the schema.
type Failure struct {
	Message string
	Path    []string
}

func (f *Failure) Error() string {
	if p := f.PathString(); p != "" {
		return p + ": " + f.Message
	}
	return f.Message
}

// PathString renders the structural path dot-joined, or "" at the root.
func (f *Failure) PathString() string {
	return strings.Join(f.Path, ".")
}

// OperationError is any failure other than a schema violation: network,
// filesystem, decoding or schema compilation.
type OperationError struct {
	Stage string
	Err   error
}

func (e *OperationError) Error() string {
	return e.Err.Error()
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
