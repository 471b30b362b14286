package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/imports"
)

type stubAnalyzer struct {
	closed bool
	err    error
}

func (s *stubAnalyzer) Imports(context.Context, File) ([]imports.Existing, error) { return nil, nil }
func (s *stubAnalyzer) AddQualifiedImport(context.Context, File, string, string) (imports.Outcome, error) {
	return imports.NotApplicable{}, nil
}
func (s *stubAnalyzer) AddOpenImport(context.Context, File, string) (string, bool, error) {
	return "", false, nil
}
func (s *stubAnalyzer) AddExplicitImport(context.Context, File, Explicit) (imports.Outcome, error) {
	return imports.NotApplicable{}, nil
}
func (s *stubAnalyzer) ReorganizeImports(context.Context, File) (string, bool, error) {
	return "", false, nil
}
func (s *stubAnalyzer) ListModules(context.Context, File) ([]string, error) { return nil, nil }

type closingAnalyzer struct{ stubAnalyzer }

func (c *closingAnalyzer) Close() error {
	c.closed = true
	return c.err
}

func TestSession(t *testing.T) {
	req := require.New(t)

	var none *Session
	req.False(none.Active())
	req.NoError(none.Close())

	req.False((&Session{Name: "empty"}).Active())

	plain := NewSession("plain", &stubAnalyzer{})
	req.True(plain.Active())
	req.NoError(plain.Close())

	closer := &closingAnalyzer{}
	closer.err = errors.New("boom")
	s := NewSession("remote", closer)
	req.EqualError(s.Close(), "boom")
	req.True(closer.closed)
}
