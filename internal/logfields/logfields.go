// Package logfields holds the canonical slog attribute keys used across specpreview.
package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyBuildSeq   = "build_seq"
	KeyStatus     = "status"
	KeyChannel    = "channel"
	KeyGate       = "gate"
	KeyDocument   = "document"
	KeySlot       = "slot"
	KeyErrors     = "errors"
	KeyWarnings   = "warnings"
	KeyTags       = "tags"
	KeyDurationMS = "duration_ms"
	KeyDriver     = "driver"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyHTTPStatus = "http_status"
	KeyError      = "error"
)

func BuildID(id string) slog.Attr    { return slog.String(KeyBuildID, id) }
func BuildSeq(seq uint64) slog.Attr  { return slog.Uint64(KeyBuildSeq, seq) }
func Status(code string) slog.Attr   { return slog.String(KeyStatus, code) }
func Channel(ch string) slog.Attr    { return slog.String(KeyChannel, ch) }
func Gate(name string) slog.Attr     { return slog.String(KeyGate, name) }
func Document(path string) slog.Attr { return slog.String(KeyDocument, path) }
func Slot(key string) slog.Attr      { return slog.String(KeySlot, key) }
func Errors(n int) slog.Attr         { return slog.Int(KeyErrors, n) }
func Warnings(n int) slog.Attr       { return slog.Int(KeyWarnings, n) }
func Tags(tags []string) slog.Attr   { return slog.Any(KeyTags, tags) }
func Driver(name string) slog.Attr   { return slog.String(KeyDriver, name) }
func Method(m string) slog.Attr      { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func HTTPStatus(code int) slog.Attr  { return slog.Int(KeyHTTPStatus, code) }

// Duration reports d in fractional milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
