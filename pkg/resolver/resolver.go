// Package resolver decides which import mutation satisfies a request to add
// a symbol, and performs it through the analysis service.
package resolver

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/imports"
)

// Strategy is the kind of import mutation chosen for a request
type Strategy int

const (
	StrategyQualified Strategy = iota
	StrategyOpen
	StrategyExplicit
)

func (s Strategy) String() string {
	switch s {
	case StrategyQualified:
		return "qualified"
	case StrategyOpen:
		return "open"
	default:
		return "explicit"
	}
}

type ResolverConfig struct {
	OpenModule string // module that is imported unqualified, e.g. a prelude
	Logger     zerolog.Logger
}

// Resolver holds no per-request state and is safe for concurrent use
type Resolver struct {
	analyzer analysis.Analyzer
	config   ResolverConfig
}

func New(analyzer analysis.Analyzer, config ResolverConfig) *Resolver {
	return &Resolver{
		analyzer: analyzer,
		config:   config,
	}
}

// Select picks the mutation strategy for req. Strategies are tried in order:
// qualified, open, explicit.
func (r *Resolver) Select(req imports.Request) Strategy {
	switch {
	case req.Module != nil && req.Qualifier != nil:
		return StrategyQualified
	case req.Module != nil && r.config.OpenModule != "" && *req.Module == r.config.OpenModule:
		return StrategyOpen
	default:
		return StrategyExplicit
	}
}

// Resolve performs at most one import mutation for req against file.
// existing must be the import set parsed from the same file text. The error
// is non-nil only when the analysis service itself failed.
func (r *Resolver) Resolve(ctx context.Context, req imports.Request, file analysis.File, existing []imports.Existing) (imports.Outcome, error) {
	var (
		outcome imports.Outcome
		err     error
	)
	switch r.Select(req) {
	case StrategyQualified:
		outcome, err = r.addQualified(ctx, file, *req.Module, *req.Qualifier, existing)
	case StrategyOpen:
		outcome, err = r.addOpen(ctx, file, *req.Module, existing)
	default:
		outcome, err = r.addExplicit(ctx, file, req)
	}
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		return imports.NotApplicable{}, nil
	}
	return outcome, nil
}

func (r *Resolver) addQualified(ctx context.Context, file analysis.File, module, qualifier string, existing []imports.Existing) (imports.Outcome, error) {
	if imports.Contains(existing, module, qualifier) {
		r.config.Logger.Debug().
			Str("module", module).
			Str("qualifier", qualifier).
			Msg("qualified import already present")
		return imports.NotApplicable{}, nil
	}
	return r.analyzer.AddQualifiedImport(ctx, file, module, qualifier)
}

func (r *Resolver) addOpen(ctx context.Context, file analysis.File, module string, existing []imports.Existing) (imports.Outcome, error) {
	if imports.ContainsUnqualified(existing, module) {
		r.config.Logger.Debug().Str("module", module).Msg("open import already present")
		return imports.NotApplicable{}, nil
	}
	text, changed, err := r.analyzer.AddOpenImport(ctx, file, module)
	if err != nil {
		return nil, err
	}
	if !changed {
		return imports.NotApplicable{}, nil
	}
	return imports.Updated{Text: text}, nil
}

// addExplicit has no local duplicate guard: the service decides whether the
// identifier is already in scope.
func (r *Resolver) addExplicit(ctx context.Context, file analysis.File, req imports.Request) (imports.Outcome, error) {
	namespace := "any"
	if req.Namespace != nil {
		namespace = req.Namespace.String()
	}
	r.config.Logger.Info().
		Str("identifier", req.Identifier).
		Str("module", imports.Deref(req.Module)).
		Str("namespace", namespace).
		Msg("adding explicit import")

	return r.analyzer.AddExplicitImport(ctx, file, analysis.Explicit{
		Identifier: req.Identifier,
		Module:     req.Module,
		Qualifier:  req.Qualifier,
		Namespace:  req.Namespace,
	})
}
