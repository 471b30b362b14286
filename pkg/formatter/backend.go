package formatter

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/imports"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/std"
)

// BackendConfig configures the in-process analysis service for Go files
type BackendConfig struct {
	FormatterConfig
	Index  *SymbolIndex // nil means an empty index
	Logger zerolog.Logger
}

// Backend implements analysis.Analyzer for Go source. It holds no per-file
// state: every call parses the text it is given.
type Backend struct {
	formatter *formatter
	index     *SymbolIndex
	logger    zerolog.Logger
}

var _ analysis.Analyzer = (*Backend)(nil)

// New creates a Backend grouping imports by the configured organizations
func New(config BackendConfig) *Backend {
	index := config.Index
	if index == nil {
		index = NewSymbolIndex()
	}
	return &Backend{
		formatter: newFormatter(config.FormatterConfig),
		index:     index,
		logger:    config.Logger,
	}
}

// Index returns the symbol index used to resolve explicit imports
func (b *Backend) Index() *SymbolIndex {
	return b.index
}

// parseImports returns the deduplicated imports of file. ok is false when
// the import section cannot be parsed.
func (b *Backend) parseImports(file analysis.File) ([]Import, bool) {
	c, err := b.formatter.parse(file.Path, []byte(file.Text))
	if err != nil {
		b.logger.Debug().Err(err).Str("path", file.Path).Msg("cannot read import section")
		return nil, false
	}
	return b.formatter.extractImports(c), true
}

func (b *Backend) Imports(ctx context.Context, file analysis.File) ([]imports.Existing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parsed, _ := b.parseImports(file)
	existing := make([]imports.Existing, 0, len(parsed))
	for _, imp := range parsed {
		existing = append(existing, imp.existing())
	}
	return existing, nil
}

func (b *Backend) AddQualifiedImport(ctx context.Context, file analysis.File, module, qualifier string) (imports.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.add(file, qualifier, module), nil
}

func (b *Backend) AddOpenImport(ctx context.Context, file analysis.File, module string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	text, changed := b.addNamed(file, ".", module)
	return text, changed, nil
}

// AddExplicitImport imports the module providing req.Identifier. With no
// module given, the symbol index picks one; several matches are returned as
// Ambiguous in index order. A request whose module, or one of whose
// candidates, is already imported is NotApplicable.
func (b *Backend) AddExplicitImport(ctx context.Context, file analysis.File, req analysis.Explicit) (imports.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parsed, ok := b.parseImports(file)
	if !ok {
		return imports.NotApplicable{}, nil
	}
	imported := make(map[string]bool, len(parsed))
	for _, imp := range parsed {
		if imp.Name != "_" {
			imported[imp.Path] = true
		}
	}
	qualifier := imports.Deref(req.Qualifier)

	if req.Module != nil {
		if imported[*req.Module] {
			return imports.NotApplicable{}, nil
		}
		return b.add(file, qualifier, *req.Module), nil
	}

	self, _ := b.index.PackageOf(filepath.Dir(file.Path))
	var candidates []string
	for _, module := range b.index.Lookup(req.Identifier, req.Namespace) {
		if module == self {
			continue
		}
		if imported[module] {
			b.logger.Debug().
				Str("identifier", req.Identifier).
				Str("module", module).
				Msg("identifier already in scope")
			return imports.NotApplicable{}, nil
		}
		candidates = append(candidates, module)
	}

	switch len(candidates) {
	case 0:
		return imports.NotApplicable{}, nil
	case 1:
		return b.add(file, qualifier, candidates[0]), nil
	default:
		return imports.Ambiguous{Candidates: candidates}, nil
	}
}

func (b *Backend) ReorganizeImports(ctx context.Context, file analysis.File) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	out, err := b.formatter.Format(file.Path, []byte(file.Text))
	if err != nil {
		if !stderrors.Is(err, errCgo) {
			b.logger.Debug().Err(err).Str("path", file.Path).Msg("cannot reorganize imports")
		}
		return "", false, nil
	}
	return string(out), true, nil
}

// ListModules returns the standard library and every indexed module, sorted
func (b *Backend) ListModules(ctx context.Context, file analysis.File) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	self, _ := b.index.PackageOf(filepath.Dir(file.Path))

	seen := make(map[string]bool)
	var modules []string
	for _, m := range append(std.Packages(), b.index.Modules()...) {
		if m == self || seen[m] {
			continue
		}
		seen[m] = true
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules, nil
}

// add imports module under qualifier. A qualifier equal to a package name
// that the path spells out is dropped so the import is written without a
// redundant alias.
func (b *Backend) add(file analysis.File, qualifier, module string) imports.Outcome {
	if qualifier == PackageName(module) && conventionalName(module) {
		qualifier = ""
	}
	text, changed := b.addNamed(file, qualifier, module)
	if !changed {
		return imports.NotApplicable{}
	}
	return imports.Updated{Text: text}
}

func (b *Backend) addNamed(file analysis.File, name, module string) (string, bool) {
	out, changed, err := b.formatter.addImport(file.Path, []byte(file.Text), name, module)
	if err != nil {
		b.logger.Debug().Err(err).Str("path", file.Path).Str("module", module).Msg("cannot add import")
		return "", false
	}
	if !changed {
		return "", false
	}
	return string(out), true
}
