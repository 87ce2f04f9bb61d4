// Package errors provides the classified error primitives used across specpreview.
//
// Infrastructure failures (configuration, storage slots, transports, the HTTP
// surface) are reported as ClassifiedError values carrying a category, a
// severity and a retry strategy. Document problems are NOT errors in this
// sense: they travel as diagnostics inside a build result.
//
// Example usage:
//
//	err := errors.StorageError("save slot failed").
//		WithContext("key", "progress").
//		Build()
//
//	wrapped := errors.WrapError(cause, errors.CategoryTransport, "nats connect").
//		Retryable().
//		Build()
package errors
