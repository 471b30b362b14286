package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis/mocks"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/imports"
)

var testFile = analysis.File{Path: "/work/Main.hs", Text: "module Main where\n\nimport Data.List\n"}

func newResolver(a analysis.Analyzer) *Resolver {
	return New(a, ResolverConfig{OpenModule: "Prelude", Logger: zerolog.Nop()})
}

func namespace(ns imports.Namespace) *imports.Namespace {
	return &ns
}

func TestResolver_Select(t *testing.T) {
	r := newResolver(nil)

	tests := []struct {
		name string
		req  imports.Request
		want Strategy
	}{
		{"module and qualifier", imports.Request{Identifier: "insert", Module: imports.String("Data.Map"), Qualifier: imports.String("M")}, StrategyQualified},
		{"qualified open module", imports.Request{Identifier: "map", Module: imports.String("Prelude"), Qualifier: imports.String("P")}, StrategyQualified},
		{"open module", imports.Request{Identifier: "map", Module: imports.String("Prelude")}, StrategyOpen},
		{"other module", imports.Request{Identifier: "insert", Module: imports.String("Data.Map")}, StrategyExplicit},
		{"no module", imports.Request{Identifier: "insert"}, StrategyExplicit},
		{"qualifier only", imports.Request{Identifier: "insert", Qualifier: imports.String("M")}, StrategyExplicit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, r.Select(tt.req))
		})
	}
}

func TestResolver_Select_noOpenModule(t *testing.T) {
	r := New(nil, ResolverConfig{})
	require.Equal(t, StrategyExplicit, r.Select(imports.Request{Identifier: "x", Module: imports.String("")}))
}

func TestResolver_qualified(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate pair is not applicable without calling the service", func(t *testing.T) {
		req := require.New(t)
		m := mocks.NewAnalyzer(t)
		existing := []imports.Existing{{Module: "Data.Map", Qualifier: "M"}}

		got, err := newResolver(m).Resolve(ctx, imports.Request{
			Identifier: "insert",
			Module:     imports.String("Data.Map"),
			Qualifier:  imports.String("M"),
		}, testFile, existing)
		req.NoError(err)
		req.Equal(imports.NotApplicable{}, got)
		m.AssertNotCalled(t, "AddQualifiedImport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("same module under another qualifier is added", func(t *testing.T) {
		req := require.New(t)
		m := mocks.NewAnalyzer(t)
		m.On("AddQualifiedImport", ctx, testFile, "Data.Map", "Map").
			Return(imports.Updated{Text: "new"}, nil).Once()

		got, err := newResolver(m).Resolve(ctx, imports.Request{
			Identifier: "insert",
			Module:     imports.String("Data.Map"),
			Qualifier:  imports.String("Map"),
		}, testFile, []imports.Existing{{Module: "Data.Map", Qualifier: "M"}})
		req.NoError(err)
		req.Equal(imports.Updated{Text: "new"}, got)
	})

	t.Run("qualified takes precedence over the open module", func(t *testing.T) {
		req := require.New(t)
		m := mocks.NewAnalyzer(t)
		m.On("AddQualifiedImport", ctx, testFile, "Prelude", "P").
			Return(imports.Updated{Text: "qualified prelude"}, nil).Once()

		got, err := newResolver(m).Resolve(ctx, imports.Request{
			Identifier: "map",
			Module:     imports.String("Prelude"),
			Qualifier:  imports.String("P"),
		}, testFile, []imports.Existing{{Module: "Prelude"}})
		req.NoError(err)
		req.Equal(imports.Updated{Text: "qualified prelude"}, got)
	})
}

func TestResolver_open(t *testing.T) {
	ctx := context.Background()
	request := imports.Request{Identifier: "map", Module: imports.String("Prelude")}

	t.Run("already open is not applicable", func(t *testing.T) {
		req := require.New(t)
		m := mocks.NewAnalyzer(t)

		got, err := newResolver(m).Resolve(ctx, request, testFile, []imports.Existing{{Module: "Prelude"}})
		req.NoError(err)
		req.Equal(imports.NotApplicable{}, got)
		m.AssertNotCalled(t, "AddOpenImport", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("qualified import of the same module does not count", func(t *testing.T) {
		req := require.New(t)
		m := mocks.NewAnalyzer(t)
		m.On("AddOpenImport", ctx, testFile, "Prelude").Return("with prelude", true, nil).Once()

		got, err := newResolver(m).Resolve(ctx, request, testFile, []imports.Existing{{Module: "Prelude", Qualifier: "P"}})
		req.NoError(err)
		req.Equal(imports.Updated{Text: "with prelude"}, got)
	})

	t.Run("nothing to do maps to not applicable", func(t *testing.T) {
		req := require.New(t)
		m := mocks.NewAnalyzer(t)
		m.On("AddOpenImport", ctx, testFile, "Prelude").Return("", false, nil).Once()

		got, err := newResolver(m).Resolve(ctx, request, testFile, nil)
		req.NoError(err)
		req.Equal(imports.NotApplicable{}, got)
		req.NotEqual(imports.Updated{Text: ""}, got)
	})

	t.Run("service failure is returned", func(t *testing.T) {
		req := require.New(t)
		m := mocks.NewAnalyzer(t)
		m.On("AddOpenImport", ctx, testFile, "Prelude").Return("", false, errors.New("pipe closed")).Once()

		got, err := newResolver(m).Resolve(ctx, request, testFile, nil)
		req.EqualError(err, "pipe closed")
		req.Nil(got)
	})
}

func TestResolver_explicit(t *testing.T) {
	ctx := context.Background()

	t.Run("ambiguous candidates keep service order", func(t *testing.T) {
		req := require.New(t)
		m := mocks.NewAnalyzer(t)
		m.On("AddExplicitImport", ctx, testFile, analysis.Explicit{Identifier: "insert"}).
			Return(imports.Ambiguous{Candidates: []string{"Data.Map", "Data.HashMap"}}, nil).Once()

		got, err := newResolver(m).Resolve(ctx, imports.Request{Identifier: "insert"}, testFile, nil)
		req.NoError(err)
		req.Equal(imports.Ambiguous{Candidates: []string{"Data.Map", "Data.HashMap"}}, got)
	})

	t.Run("no local duplicate guard", func(t *testing.T) {
		req := require.New(t)
		m := mocks.NewAnalyzer(t)
		explicit := analysis.Explicit{Identifier: "insert", Module: imports.String("Data.Map")}
		m.On("AddExplicitImport", ctx, testFile, explicit).Return(imports.NotApplicable{}, nil).Once()

		got, err := newResolver(m).Resolve(ctx, imports.Request{Identifier: "insert", Module: imports.String("Data.Map")},
			testFile, []imports.Existing{{Module: "Data.Map"}})
		req.NoError(err)
		req.Equal(imports.NotApplicable{}, got)
	})

	t.Run("request fields are forwarded", func(t *testing.T) {
		req := require.New(t)
		m := mocks.NewAnalyzer(t)
		explicit := analysis.Explicit{
			Identifier: "Text",
			Qualifier:  imports.String("T"),
			Namespace:  namespace(imports.NamespaceType),
		}
		m.On("AddExplicitImport", ctx, testFile, explicit).Return(imports.Updated{Text: "t"}, nil).Once()

		got, err := newResolver(m).Resolve(ctx, imports.Request{
			Identifier: "Text",
			Qualifier:  imports.String("T"),
			Namespace:  namespace(imports.NamespaceType),
		}, testFile, nil)
		req.NoError(err)
		req.Equal(imports.Updated{Text: "t"}, got)
	})

	t.Run("nil outcome becomes not applicable", func(t *testing.T) {
		req := require.New(t)
		m := mocks.NewAnalyzer(t)
		m.On("AddExplicitImport", ctx, testFile, analysis.Explicit{Identifier: "x"}).Return(nil, nil).Once()

		got, err := newResolver(m).Resolve(ctx, imports.Request{Identifier: "x"}, testFile, nil)
		req.NoError(err)
		req.Equal(imports.NotApplicable{}, got)
	})
}

func TestResolver_explicitLogLine(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	m := mocks.NewAnalyzer(t)
	explicit := analysis.Explicit{Identifier: "lookup", Module: imports.String("Data.Map"), Namespace: namespace(imports.NamespaceValue)}
	m.On("AddExplicitImport", mock.Anything, testFile, explicit).Return(imports.NotApplicable{}, nil).Once()

	r := New(m, ResolverConfig{OpenModule: "Prelude", Logger: zerolog.New(&buf)})
	_, err := r.Resolve(context.Background(), imports.Request{
		Identifier: "lookup",
		Module:     imports.String("Data.Map"),
		Namespace:  namespace(imports.NamespaceValue),
	}, testFile, nil)
	req.NoError(err)

	var entry map[string]any
	req.NoError(json.Unmarshal(buf.Bytes(), &entry))
	req.Equal("info", entry["level"])
	req.Equal("lookup", entry["identifier"])
	req.Equal("Data.Map", entry["module"])
	req.Equal("value", entry["namespace"])
}

func TestStrategy_String(t *testing.T) {
	req := require.New(t)
	req.Equal("qualified", StrategyQualified.String())
	req.Equal("open", StrategyOpen.String())
	req.Equal("explicit", StrategyExplicit.String())
}
