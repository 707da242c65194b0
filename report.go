package gtfsfilter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type EntryKind int

const (
	EntryKept EntryKind = iota
	EntryCopied
	EntryMissing
)

// ReportEntry is one line of a Report. File is the archive member name, e.g. "trips.txt".
type ReportEntry struct {
	File        string
	Kind        EntryKind
	Kept        int
	Total       int
	Reason      string
	Identifiers []string
}

func (e ReportEntry) Message() string {
	switch e.Kind {
	case EntryCopied:
		return "copied without modification"
	case EntryMissing:
		return fmt.Sprintf("missing identifiers: [%s]", strings.Join(e.Identifiers, ", "))
	default:
		return fmt.Sprintf("kept %d of %d rows (%s)", e.Kept, e.Total, e.Reason)
	}
}

// Report accumulates what a filter run did to each file, in the order it happened.
type Report struct {
	Criterion string
	Entries   []ReportEntry
}

func (r *Report) kept(file string, kept, total int, reason string) {
	r.Entries = append(r.Entries, ReportEntry{File: file, Kind: EntryKept, Kept: kept, Total: total, Reason: reason})
}

func (r *Report) copied(file string) {
	r.Entries = append(r.Entries, ReportEntry{File: file, Kind: EntryCopied})
}

func (r *Report) missing(file string, identifiers []string) {
	r.Entries = append(r.Entries, ReportEntry{File: file, Kind: EntryMissing, Identifiers: identifiers})
}

// For returns the entries recorded for file.
func (r *Report) For(file string) []ReportEntry {
	var out []ReportEntry
	for _, e := range r.Entries {
		if e.File == file {
			out = append(out, e)
		}
	}
	return out
}

func (r *Report) Lines() []string {
	lines := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		lines = append(lines, e.File+": "+e.Message())
	}
	return lines
}

// Log writes every entry to logger. Missing identifiers are logged as warnings.
func (r *Report) Log(logger *slog.Logger) {
	ctx := context.Background()
	for _, e := range r.Entries {
		attrs := []slog.Attr{slog.String("file", e.File)}
		level := slog.LevelInfo
		switch e.Kind {
		case EntryKept:
			attrs = append(attrs, slog.Int("kept", e.Kept), slog.Int("total", e.Total), slog.String("reason", e.Reason))
		case EntryMissing:
			level = slog.LevelWarn
			attrs = append(attrs, slog.Any("identifiers", e.Identifiers))
		}
		logger.LogAttrs(ctx, level, e.File+": "+e.Message(), attrs...)
	}
}
