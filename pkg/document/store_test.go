package document

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/protocol"
)

const uri = "file:///work/main.go"

func TestMemory_lifecycle(t *testing.T) {
	req := require.New(t)
	m := NewMemory()

	_, ok := m.Text(uri)
	req.False(ok)

	m.Open(uri, 1, "package main\n")
	text, ok := m.Text(uri)
	req.True(ok)
	req.Equal("package main\n", text)
	version, ok := m.Version(uri)
	req.True(ok)
	req.Equal(1, version)
	req.Equal([]string{uri}, m.URIs())

	req.NoError(m.Change(uri, 2, []protocol.TextDocumentContentChangeEvent{{Text: "package other\n"}}))
	snap, ok := m.Snapshot(uri)
	req.True(ok)
	req.Equal(Snapshot{URI: uri, Text: "package other\n", Version: 2}, snap)

	m.Close(uri)
	_, ok = m.Snapshot(uri)
	req.False(ok)
	req.Error(m.Change(uri, 3, nil))
}

func TestMemory_rangedChanges(t *testing.T) {
	req := require.New(t)
	m := NewMemory()
	m.Open(uri, 1, "import A\nx = 1\n")

	req.NoError(m.Change(uri, 2, []protocol.TextDocumentContentChangeEvent{
		{
			Range: &protocol.Range{Start: protocol.Position{Line: 1, Character: 0}, End: protocol.Position{Line: 1, Character: 0}},
			Text:  "import B\n",
		},
		{
			Range: &protocol.Range{Start: protocol.Position{Line: 2, Character: 4}, End: protocol.Position{Line: 2, Character: 5}},
			Text:  "2",
		},
	}))
	text, _ := m.Text(uri)
	req.Equal("import A\nimport B\nx = 2\n", text)
}

type splitStore struct {
	text    string
	version int
}

func (s splitStore) Text(string) (string, bool) { return s.text, true }
func (s splitStore) Version(string) (int, bool) { return s.version, true }

func TestTake(t *testing.T) {
	req := require.New(t)

	snap, ok := Take(splitStore{text: "x", version: 4}, uri)
	req.True(ok)
	req.Equal(Snapshot{URI: uri, Text: "x", Version: 4}, snap)

	m := NewMemory()
	_, ok = Take(m, uri)
	req.False(ok)
	m.Open(uri, 9, "y")
	snap, ok = Take(m, uri)
	req.True(ok)
	req.Equal(9, snap.Version)
}

func TestMemory_concurrentAccess(t *testing.T) {
	m := NewMemory()
	m.Open(uri, 0, "")

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(2)
		go func(v int) {
			defer wg.Done()
			_ = m.Change(uri, v, []protocol.TextDocumentContentChangeEvent{{Text: "v"}})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = m.Snapshot(uri)
		}()
	}
	wg.Wait()

	text, ok := m.Text(uri)
	require.True(t, ok)
	require.Equal(t, "v", text)
}

func TestURIConversion(t *testing.T) {
	req := require.New(t)
	req.Equal("/tmp/a b/main.go", URIToPath("file:///tmp/a%20b/main.go"))
	req.Equal("", URIToPath("untitled:Untitled-1"))
	req.Equal("", URIToPath(""))
	req.Equal("file:///tmp/a%20b/main.go", PathToURI("/tmp/a b/main.go"))
}
