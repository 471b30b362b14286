package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/imports"
)

// Analyzer is a mock implementation of analysis.Analyzer
type Analyzer struct {
	mock.Mock
}

var _ analysis.Analyzer = (*Analyzer)(nil)

// NewAnalyzer creates a mock whose expectations are asserted on test cleanup.
// A call with no matching expectation fails the test.
func NewAnalyzer(t interface {
	mock.TestingT
	Cleanup(func())
}) *Analyzer {
	m := &Analyzer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *Analyzer) Imports(ctx context.Context, file analysis.File) ([]imports.Existing, error) {
	ret := _m.Called(ctx, file)
	var r0 []imports.Existing
	if v := ret.Get(0); v != nil {
		r0 = v.([]imports.Existing)
	}
	return r0, ret.Error(1)
}

func (_m *Analyzer) AddQualifiedImport(ctx context.Context, file analysis.File, module, qualifier string) (imports.Outcome, error) {
	ret := _m.Called(ctx, file, module, qualifier)
	var r0 imports.Outcome
	if v := ret.Get(0); v != nil {
		r0 = v.(imports.Outcome)
	}
	return r0, ret.Error(1)
}

func (_m *Analyzer) AddOpenImport(ctx context.Context, file analysis.File, module string) (string, bool, error) {
	ret := _m.Called(ctx, file, module)
	return ret.String(0), ret.Bool(1), ret.Error(2)
}

func (_m *Analyzer) AddExplicitImport(ctx context.Context, file analysis.File, req analysis.Explicit) (imports.Outcome, error) {
	ret := _m.Called(ctx, file, req)
	var r0 imports.Outcome
	if v := ret.Get(0); v != nil {
		r0 = v.(imports.Outcome)
	}
	return r0, ret.Error(1)
}

func (_m *Analyzer) ReorganizeImports(ctx context.Context, file analysis.File) (string, bool, error) {
	ret := _m.Called(ctx, file)
	return ret.String(0), ret.Bool(1), ret.Error(2)
}

func (_m *Analyzer) ListModules(ctx context.Context, file analysis.File) ([]string, error) {
	ret := _m.Called(ctx, file)
	var r0 []string
	if v := ret.Get(0); v != nil {
		r0 = v.([]string)
	}
	return r0, ret.Error(1)
}
