package formatter

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/config"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/errors"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/imports"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/utils"
)

// Symbol is an exported identifier and the import path that provides it
type Symbol struct {
	Identifier string
	Module     string
	Namespace  imports.Namespace
}

// SymbolIndex maps identifiers to the modules exporting them. Lookups return
// modules in the order they were added.
type SymbolIndex struct {
	mu       sync.RWMutex
	symbols  map[string][]Symbol
	modules  map[string]bool
	packages map[string]string // directory -> import path
}

func NewSymbolIndex() *SymbolIndex {
	return &SymbolIndex{
		symbols:  make(map[string][]Symbol),
		modules:  make(map[string]bool),
		packages: make(map[string]string),
	}
}

// Add records sym unless an identical entry exists
func (x *SymbolIndex) Add(sym Symbol) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.add(sym)
}

func (x *SymbolIndex) add(sym Symbol) {
	for _, s := range x.symbols[sym.Identifier] {
		if s == sym {
			return
		}
	}
	x.symbols[sym.Identifier] = append(x.symbols[sym.Identifier], sym)
	x.modules[sym.Module] = true
}

// AddConfigured records symbols declared in configuration. An entry without
// a namespace is added as both a value and a type.
func (x *SymbolIndex) AddConfigured(symbols []config.Symbol) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, s := range symbols {
		if s.Identifier == "" || s.Module == "" {
			return fmt.Errorf("symbol entry needs identifier and module: %+v", s)
		}
		if s.Namespace == "" {
			x.add(Symbol{Identifier: s.Identifier, Module: s.Module, Namespace: imports.NamespaceValue})
			x.add(Symbol{Identifier: s.Identifier, Module: s.Module, Namespace: imports.NamespaceType})
			continue
		}
		ns, err := imports.ParseNamespace(s.Namespace)
		if err != nil {
			return err
		}
		x.add(Symbol{Identifier: s.Identifier, Module: s.Module, Namespace: ns})
	}
	return nil
}

// Lookup returns the modules exporting identifier, optionally restricted to
// one namespace. Each module appears once.
func (x *SymbolIndex) Lookup(identifier string, ns *imports.Namespace) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var modules []string
	seen := make(map[string]bool)
	for _, s := range x.symbols[identifier] {
		if ns != nil && s.Namespace != *ns {
			continue
		}
		if seen[s.Module] {
			continue
		}
		seen[s.Module] = true
		modules = append(modules, s.Module)
	}
	return modules
}

// Modules returns every indexed module, sorted
func (x *SymbolIndex) Modules() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	modules := make([]string, 0, len(x.modules))
	for m := range x.modules {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules
}

// PackageOf returns the import path of the indexed package in dir
func (x *SymbolIndex) PackageOf(dir string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	p, ok := x.packages[filepath.Clean(dir)]
	return p, ok
}

// IndexDir scans the Go module containing root and records the exported
// top-level declarations of every importable package under root. Files that
// fail to parse are skipped.
func (x *SymbolIndex) IndexDir(ctx context.Context, root string, exclude []string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	moduleDir, module := utils.FindModuleRoot(filepath.Join(root, "go.mod"))
	if module == "" {
		return nil
	}

	files, err := utils.FindGoFiles(root, exclude...)
	if err != nil {
		return fmt.Errorf("%s: %w", errors.ErrMsgFailedToIndexSymbols, err)
	}

	type parsed struct {
		dir, importPath, name string
		symbols               []Symbol
	}
	results := make([]parsed, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		importPath, ok := utils.ImportPath(moduleDir, module, filepath.Dir(path))
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			symbols, name := exportedSymbols(path, importPath)
			results[i] = parsed{dir: filepath.Dir(path), importPath: importPath, name: name, symbols: symbols}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// files are added in walk order so lookups stay deterministic
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, r := range results {
		if r.name == "" || r.name == "main" {
			continue
		}
		x.packages[r.dir] = r.importPath
		for _, s := range r.symbols {
			x.add(s)
		}
	}
	return nil
}

// exportedSymbols parses one file and returns its exported top-level
// declarations together with its package name
func exportedSymbols(path, importPath string) ([]Symbol, string) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, ""
	}

	var symbols []Symbol
	add := func(name *ast.Ident, ns imports.Namespace) {
		if name.IsExported() {
			symbols = append(symbols, Symbol{Identifier: name.Name, Module: importPath, Namespace: ns})
		}
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				add(d.Name, imports.NamespaceValue)
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					add(s.Name, imports.NamespaceType)
				case *ast.ValueSpec:
					for _, name := range s.Names {
						add(name, imports.NamespaceValue)
					}
				}
			}
		}
	}
	return symbols, file.Name.Name
}
