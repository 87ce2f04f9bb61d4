// Package preview is the reactive core of the previewer: it turns document
// changes into builds, classifies each outcome into a status and a set of
// editor annotations, and answers which paths and operations are visible for
// the current tag selection.
//
// A Controller owns all pipeline state. Its Run loop is the only goroutine
// that reads or writes the PipelineContext; builds run on their own
// goroutines and post their outcome back to the loop, where the last
// completion wins. Everything else talks to the loop through methods that
// return copies.
package preview
