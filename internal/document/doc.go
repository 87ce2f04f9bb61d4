// Package document holds the in-memory model of an API description and the
// result types produced by building it.
//
// The model is deliberately shallow: it keeps what the preview needs to
// decide visibility (paths, their entries, operation tags) plus the raw
// definitions section. Everything else stays in the source text.
package document
