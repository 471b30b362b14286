// Package analysis defines the boundary to the service that parses import
// blocks and produces rewritten file text.
//
// The service may live in-process (see package formatter) or in a separate
// long-lived process (see package remote). Either way every call is a single
// request and response with no partial results and no retry.
package analysis

import (
	"context"
	"io"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/imports"
)

// File is the snapshot of one source file sent to the service
type File struct {
	Path string
	Text string
}

// Explicit asks the service to import one identifier, choosing the module
// itself when Module is nil.
type Explicit struct {
	Identifier string
	Module     *string
	Qualifier  *string
	Namespace  *imports.Namespace
}

// Analyzer is the import mutation service
type Analyzer interface {
	// Imports returns the imports currently present in the file
	Imports(ctx context.Context, file File) ([]imports.Existing, error)

	// AddQualifiedImport adds `module` under the alias `qualifier`
	AddQualifiedImport(ctx context.Context, file File, module, qualifier string) (imports.Outcome, error)

	// AddOpenImport adds an import exposing all of module's symbols
	// unqualified. changed is false when there was nothing to do.
	AddOpenImport(ctx context.Context, file File, module string) (text string, changed bool, err error)

	// AddExplicitImport imports one identifier. The outcome may be Updated,
	// Ambiguous or NotApplicable.
	AddExplicitImport(ctx context.Context, file File, req Explicit) (imports.Outcome, error)

	// ReorganizeImports returns the file with its import block in canonical
	// form. ok is false when the service has no opinion about the file.
	ReorganizeImports(ctx context.Context, file File) (text string, ok bool, err error)

	// ListModules returns the modules the file can import from
	ListModules(ctx context.Context, file File) ([]string, error)
}

// Session is the handle to an active analysis service. A nil *Session means
// no service is available.
type Session struct {
	Name     string
	Analyzer Analyzer
}

func NewSession(name string, a Analyzer) *Session {
	return &Session{Name: name, Analyzer: a}
}

// Active reports whether the session can serve requests
func (s *Session) Active() bool {
	return s != nil && s.Analyzer != nil
}

// Close stops the underlying service if it holds resources
func (s *Session) Close() error {
	if !s.Active() {
		return nil
	}
	if c, ok := s.Analyzer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
