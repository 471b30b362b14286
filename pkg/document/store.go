// Package document keeps the text and version of every document the editor
// has open.
package document

import (
	"fmt"
	"sync"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/protocol"
)

// Store is the read side used by import operations
type Store interface {
	Text(uri string) (string, bool)
	Version(uri string) (int, bool)
}

// Snapshot is the text and version of a document read together
type Snapshot struct {
	URI     string
	Text    string
	Version int
}

// Memory is an in-process Store fed by editor notifications
type Memory struct {
	mu   sync.RWMutex
	docs map[string]Snapshot
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Snapshot)}
}

func (m *Memory) Open(uri string, version int, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[uri] = Snapshot{URI: uri, Text: text, Version: version}
}

// Change applies content changes in order and records the new version
func (m *Memory) Change(uri string, version int, changes []protocol.TextDocumentContentChangeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[uri]
	if !ok {
		return fmt.Errorf("document not open: %s", uri)
	}
	doc.Text = applyChanges(doc.Text, changes)
	doc.Version = version
	m.docs[uri] = doc
	return nil
}

func (m *Memory) Close(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, uri)
}

func (m *Memory) Text(uri string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[uri]
	return doc.Text, ok
}

func (m *Memory) Version(uri string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[uri]
	return doc.Version, ok
}

// Snapshot reads text and version under one lock
func (m *Memory) Snapshot(uri string) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[uri]
	return doc, ok
}

// URIs returns the open documents in no particular order
func (m *Memory) URIs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uris := make([]string, 0, len(m.docs))
	for uri := range m.docs {
		uris = append(uris, uri)
	}
	return uris
}

// Take reads a snapshot from any Store. The version is read first so an edit
// built from the snapshot can only be too old, never too new.
func Take(s Store, uri string) (Snapshot, bool) {
	if m, ok := s.(*Memory); ok {
		return m.Snapshot(uri)
	}
	version, ok := s.Version(uri)
	if !ok {
		return Snapshot{}, false
	}
	text, ok := s.Text(uri)
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{URI: uri, Text: text, Version: version}, true
}

func applyChanges(text string, changes []protocol.TextDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		start := protocol.OffsetForPosition(text, change.Range.Start)
		end := protocol.OffsetForPosition(text, change.Range.End)
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}
