// Package edit turns a pair of full-file texts into the smallest edit the
// protocol can express.
package edit

import (
	"strings"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/protocol"
)

// Result is either NoEdit or a DocumentEdit
type Result interface {
	// WorkspaceEdit returns the protocol form, or nil for NoEdit
	WorkspaceEdit() *protocol.WorkspaceEdit
}

// NoEdit is returned when the old and new text are identical
type NoEdit struct{}

func (NoEdit) WorkspaceEdit() *protocol.WorkspaceEdit {
	return nil
}

// DocumentEdit is a single replacement valid against one document version
type DocumentEdit struct {
	URI     string
	Version int
	Edit    protocol.TextEdit
}

func (d DocumentEdit) WorkspaceEdit() *protocol.WorkspaceEdit {
	return &protocol.WorkspaceEdit{
		DocumentChanges: []protocol.TextDocumentEdit{
			{
				TextDocument: protocol.VersionedTextDocumentIdentifier{URI: d.URI, Version: d.Version},
				Edits:        []protocol.TextEdit{d.Edit},
			},
		},
	}
}

// Synthesize compares oldText and newText line by line and returns one edit
// covering the contiguous run of lines between their common prefix and common
// suffix. version must be the version oldText was read at.
func Synthesize(uri string, version int, oldText, newText string) Result {
	if oldText == newText {
		return NoEdit{}
	}
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	limit := min(len(oldLines), len(newLines))
	prefix := 0
	for prefix < limit && oldLines[prefix] == newLines[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < limit-prefix &&
		oldLines[len(oldLines)-1-suffix] == newLines[len(newLines)-1-suffix] {
		suffix++
	}

	oldMiddle := oldLines[prefix : len(oldLines)-suffix]
	newMiddle := newLines[prefix : len(newLines)-suffix]

	start := protocol.Position{Line: prefix}
	end := start
	if n := len(oldMiddle); n > 0 {
		last := oldMiddle[n-1]
		if strings.HasSuffix(last, "\n") {
			end = protocol.Position{Line: prefix + n}
		} else {
			end = protocol.Position{Line: prefix + n - 1, Character: protocol.UTF16Len(last)}
		}
	}

	return DocumentEdit{
		URI:     uri,
		Version: version,
		Edit: protocol.TextEdit{
			Range:   protocol.Range{Start: start, End: end},
			NewText: strings.Join(newMiddle, ""),
		},
	}
}

// splitLines splits text after every newline, keeping the terminators.
// Only the final element can lack a trailing newline.
func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
