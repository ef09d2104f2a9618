package logger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// messager matches errors that can report their own message without the wrapped chain,
// as zerr.Error does.
type messager interface {
	Message() string
}

// metadataer matches errors carrying structured key/value context.
type metadataer interface {
	Metadata() map[string]any
}

// ErrorEntry is one link of an error chain prepared for display.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries flattens err into display entries. zerr errors contribute their
// own message and metadata and are unwrapped further; the first foreign error ends the
// chain with its full text. Joined errors contribute each member in order.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry

	current := err
	for current != nil {
		if joined, ok := current.(interface{ Unwrap() []error }); ok {
			for _, member := range joined.Unwrap() {
				entries = append(entries, collectErrorEntries(member)...)
			}
			break
		}

		m, ok := current.(messager)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error()})
			break
		}

		entry := ErrorEntry{Message: m.Message()}
		if md, ok := current.(metadataer); ok {
			entry.Metadata = md.Metadata()
		}
		entries = append(entries, entry)
		current = errors.Unwrap(current)
	}

	return entries
}

// formatErrorEntries renders entries as an "Error:" headline followed by a
// "Caused by:" list. Metadata keys are printed sorted below their message.
func formatErrorEntries(entries []ErrorEntry) string {
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	for i, entry := range entries {
		lines := strings.Split(entry.Message, "\n")

		lead, indent := "Error: ", "       "
		if i > 0 {
			lead, indent = "    → ", "      "
			if i == 1 {
				b.WriteString("\n\n  Caused by:")
			}
			b.WriteString("\n")
		}

		b.WriteString(lead + lines[0])
		for _, line := range lines[1:] {
			b.WriteString("\n" + indent + line)
		}
		for _, key := range slices.Sorted(maps.Keys(entry.Metadata)) {
			fmt.Fprintf(&b, "\n%s%s: %v", indent, key, entry.Metadata[key])
		}
	}

	return b.String()
}
