package formatter

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/imports"
)

func newTestBackend(symbols ...Symbol) *Backend {
	index := NewSymbolIndex()
	for _, s := range symbols {
		index.Add(s)
	}
	return New(BackendConfig{
		FormatterConfig: FormatterConfig{CurrentProject: "github.com/me/app"},
		Index:           index,
		Logger:          zerolog.Nop(),
	})
}

func goFile(text string) analysis.File {
	return analysis.File{Path: "/work/app/main.go", Text: text}
}

func namespace(ns imports.Namespace) *imports.Namespace {
	return &ns
}

func TestBackend_Imports(t *testing.T) {
	req := require.New(t)
	b := newTestBackend()

	got, err := b.Imports(context.Background(), goFile(`package main

import (
	"fmt"
	m "github.com/x/maps"
	. "github.com/x/prelude"
	_ "embed"
	"gopkg.in/yaml.v3"
)
`))
	req.NoError(err)
	req.Equal([]imports.Existing{
		{Module: "fmt", Qualifier: "fmt"},
		{Module: "github.com/x/maps", Qualifier: "m"},
		{Module: "github.com/x/prelude", Qualifier: ""},
		{Module: "embed", Qualifier: "_"},
		{Module: "gopkg.in/yaml.v3", Qualifier: "yaml"},
	}, got)

	got, err = b.Imports(context.Background(), goFile("not go"))
	req.NoError(err)
	req.Empty(got)
}

func TestBackend_AddQualifiedImport(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend()
	file := goFile("package main\n\nimport \"fmt\"\n")

	t.Run("alias", func(t *testing.T) {
		req := require.New(t)
		got, err := b.AddQualifiedImport(ctx, file, "github.com/x/maps", "m")
		req.NoError(err)
		req.Equal(imports.Updated{Text: "package main\n\nimport (\n\t\"fmt\"\n\n\tm \"github.com/x/maps\"\n)\n"}, got)
	})

	t.Run("package name is not written as an alias", func(t *testing.T) {
		req := require.New(t)
		got, err := b.AddQualifiedImport(ctx, file, "gopkg.in/yaml.v3", "yaml")
		req.NoError(err)
		req.Equal(imports.Updated{Text: "package main\n\nimport (\n\t\"fmt\"\n\n\t\"gopkg.in/yaml.v3\"\n)\n"}, got)
	})

	t.Run("guessed package name keeps its alias", func(t *testing.T) {
		req := require.New(t)
		got, err := b.AddQualifiedImport(ctx, file, "github.com/foo/bar-baz", "bar_baz")
		req.NoError(err)
		req.Equal(imports.Updated{Text: "package main\n\nimport (\n\t\"fmt\"\n\n\tbar_baz \"github.com/foo/bar-baz\"\n)\n"}, got)
	})

	t.Run("already imported", func(t *testing.T) {
		req := require.New(t)
		got, err := b.AddQualifiedImport(ctx, file, "fmt", "fmt")
		req.NoError(err)
		req.Equal(imports.NotApplicable{}, got)
	})

	t.Run("cancelled", func(t *testing.T) {
		req := require.New(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := b.AddQualifiedImport(cancelled, file, "os", "os")
		req.ErrorIs(err, context.Canceled)
	})
}

func TestBackend_AddOpenImport(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	b := newTestBackend()

	text, changed, err := b.AddOpenImport(ctx, goFile("package main\n"), "github.com/x/prelude")
	req.NoError(err)
	req.True(changed)
	req.Equal("package main\n\nimport . \"github.com/x/prelude\"\n", text)

	text, changed, err = b.AddOpenImport(ctx, goFile(text), "github.com/x/prelude")
	req.NoError(err)
	req.False(changed)
	req.Empty(text)
}

func TestBackend_AddExplicitImport(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(
		Symbol{Identifier: "Group", Module: "golang.org/x/sync/errgroup", Namespace: imports.NamespaceType},
		Symbol{Identifier: "Wait", Module: "github.com/me/app/pkg/sync", Namespace: imports.NamespaceValue},
		Symbol{Identifier: "Wait", Module: "golang.org/x/sync/errgroup", Namespace: imports.NamespaceValue},
		Symbol{Identifier: "Wait", Module: "github.com/x/waiter", Namespace: imports.NamespaceType},
	)
	empty := goFile("package main\n")

	tests := []struct {
		name string
		file analysis.File
		req  analysis.Explicit
		want imports.Outcome
	}{
		{
			name: "single candidate",
			file: empty,
			req:  analysis.Explicit{Identifier: "Group"},
			want: imports.Updated{Text: "package main\n\nimport \"golang.org/x/sync/errgroup\"\n"},
		},
		{
			name: "single candidate with qualifier",
			file: empty,
			req:  analysis.Explicit{Identifier: "Group", Qualifier: imports.String("eg")},
			want: imports.Updated{Text: "package main\n\nimport eg \"golang.org/x/sync/errgroup\"\n"},
		},
		{
			name: "ambiguous in index order",
			file: empty,
			req:  analysis.Explicit{Identifier: "Wait"},
			want: imports.Ambiguous{Candidates: []string{"github.com/me/app/pkg/sync", "golang.org/x/sync/errgroup", "github.com/x/waiter"}},
		},
		{
			name: "namespace narrows candidates",
			file: empty,
			req:  analysis.Explicit{Identifier: "Wait", Namespace: namespace(imports.NamespaceType)},
			want: imports.Updated{Text: "package main\n\nimport \"github.com/x/waiter\"\n"},
		},
		{
			name: "kind matches nothing",
			file: empty,
			req:  analysis.Explicit{Identifier: "Group", Namespace: namespace(imports.NamespaceKind)},
			want: imports.NotApplicable{},
		},
		{
			name: "unknown identifier",
			file: empty,
			req:  analysis.Explicit{Identifier: "Nope"},
			want: imports.NotApplicable{},
		},
		{
			name: "candidate already imported",
			file: goFile("package main\n\nimport \"golang.org/x/sync/errgroup\"\n"),
			req:  analysis.Explicit{Identifier: "Wait"},
			want: imports.NotApplicable{},
		},
		{
			name: "blank import does not bring symbols into scope",
			file: goFile("package main\n\nimport _ \"golang.org/x/sync/errgroup\"\n"),
			req:  analysis.Explicit{Identifier: "Group"},
			want: imports.Updated{Text: "package main\n\nimport (\n\t\"golang.org/x/sync/errgroup\"\n\t_ \"golang.org/x/sync/errgroup\"\n)\n"},
		},
		{
			name: "explicit module",
			file: empty,
			req:  analysis.Explicit{Identifier: "Marshal", Module: imports.String("encoding/json")},
			want: imports.Updated{Text: "package main\n\nimport \"encoding/json\"\n"},
		},
		{
			name: "explicit module already imported",
			file: goFile("package main\n\nimport j \"encoding/json\"\n"),
			req:  analysis.Explicit{Identifier: "Marshal", Module: imports.String("encoding/json")},
			want: imports.NotApplicable{},
		},
		{
			name: "unparsable file",
			file: goFile("not go"),
			req:  analysis.Explicit{Identifier: "Group"},
			want: imports.NotApplicable{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got, err := b.AddExplicitImport(ctx, tt.file, tt.req)
			req.NoError(err)
			req.Equal(tt.want, got)
		})
	}
}

func TestBackend_ReorganizeImports(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	b := newTestBackend()

	text, ok, err := b.ReorganizeImports(ctx, goFile("package main\n\nimport \"os\"\nimport \"fmt\"\n"))
	req.NoError(err)
	req.True(ok)
	req.Equal("package main\n\nimport (\n\t\"fmt\"\n\t\"os\"\n)\n", text)

	_, ok, err = b.ReorganizeImports(ctx, goFile("package main\n\nimport \"C\"\n"))
	req.NoError(err)
	req.False(ok)

	_, ok, err = b.ReorganizeImports(ctx, goFile("not go"))
	req.NoError(err)
	req.False(ok)
}

func TestBackend_ListModules(t *testing.T) {
	req := require.New(t)
	b := newTestBackend(
		Symbol{Identifier: "Group", Module: "golang.org/x/sync/errgroup", Namespace: imports.NamespaceType},
	)

	got, err := b.ListModules(context.Background(), goFile("package main\n"))
	req.NoError(err)
	req.Contains(got, "fmt")
	req.Contains(got, "golang.org/x/sync/errgroup")
	req.NotContains(got, "C")
	req.IsIncreasing(got)
}
