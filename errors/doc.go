// Package errors provides structured error types for the playground.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a location path (example name, entry point, config key),
// a human-readable detail and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBootstrap, errors.KindConfig).
//		Path("catalog", "default").
//		Detail("default example %q is not in the catalog", name).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseSelect, "example", name)
//	err := errors.FetchFailed(name, cause)
//
// All errors implement the standard error interface and support errors.Is/As.
// Two *Error values match under errors.Is when Phase and Kind are equal.
package errors
