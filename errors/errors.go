package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConfig    Phase = "config"    // configuration loading and validation
	PhaseBootstrap Phase = "bootstrap" // engine + catalog startup
	PhaseLoad      Phase = "load"      // engine module loading
	PhaseFetch     Phase = "fetch"     // example content fetch
	PhaseSelect    Phase = "select"    // selection transition
	PhaseRun       Phase = "run"       // run transition
	PhaseEngine    Phase = "engine"    // engine invocation
	PhaseParse     Phase = "parse"     // WIT/manifest parsing
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindInstantiation    Kind = "instantiation"
	KindMissingExport    Kind = "missing_export"
	KindInvalidSignature Kind = "invalid_signature"
	KindInvalidInput     Kind = "invalid_input"
	KindInvalidData      Kind = "invalid_data"
	KindNotInitialized   Kind = "not_initialized"
	KindFetchFailed      Kind = "fetch_failed"
	KindConfig           Kind = "config"
	KindExec             Kind = "exec"
	KindDuplicate        Kind = "duplicate"
)

// Error is the structured error type used throughout the playground
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the location path (example name, entry point, config key)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error for a missing handle
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Path:   []string{name},
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Instantiation creates an engine instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseBootstrap,
		Kind:   KindInstantiation,
		Detail: "instantiate engine",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingExport reports a module export the engine contract requires
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindMissingExport,
		Path:   []string{name},
		Detail: fmt.Sprintf("module does not export %q", name),
	}
}

// InvalidSignature reports an entry point whose type is not func(string) -> string
func InvalidSignature(name, got string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidSignature,
		Path:   []string{name},
		Detail: fmt.Sprintf("entry point must be func(source: string) -> string, got %s", got),
	}
}

// FetchFailed wraps a failed example fetch
func FetchFailed(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseFetch,
		Kind:   KindFetchFailed,
		Path:   []string{name},
		Detail: "fetch example content",
		Cause:  cause,
	}
}

// Config creates a configuration error for key
func Config(key, detail string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindConfig,
		Path:   []string{key},
		Detail: detail,
	}
}

// Exec wraps a failed engine invocation
func Exec(entry string, cause error) *Error {
	return &Error{
		Phase:  PhaseEngine,
		Kind:   KindExec,
		Path:   []string{entry},
		Detail: "execute entry point",
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
