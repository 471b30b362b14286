// Package diagnostic reports when a file's import block differs from the
// canonical form produced by the analysis service.
package diagnostic

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/protocol"
)

const (
	// Code identifies the import diagnostic to code actions
	Code    = "HintOrganiseImports"
	Message = "Imports are not organised"

	DefaultSource  = "gil"
	DefaultKeyword = "import"
)

type DetectorConfig struct {
	Keyword string // line prefix that marks an import declaration
	Source  string
	Logger  zerolog.Logger
}

type Detector struct {
	analyzer analysis.Analyzer
	config   DetectorConfig
}

func New(analyzer analysis.Analyzer, config DetectorConfig) *Detector {
	if config.Keyword == "" {
		config.Keyword = DefaultKeyword
	}
	if config.Source == "" {
		config.Source = DefaultSource
	}
	return &Detector{
		analyzer: analyzer,
		config:   config,
	}
}

// Check returns zero or one diagnostics for file. The result is never nil so
// it can be published as-is to clear earlier diagnostics.
func (d *Detector) Check(ctx context.Context, file analysis.File) ([]protocol.Diagnostic, error) {
	diagnostics := []protocol.Diagnostic{}

	canonical, ok, err := d.analyzer.ReorganizeImports(ctx, file)
	if err != nil {
		return diagnostics, err
	}
	if !ok || canonical == file.Text {
		return diagnostics, nil
	}

	end := LastImportLine(file.Text, d.config.Keyword)
	d.config.Logger.Debug().
		Str("path", file.Path).
		Int("endLine", end).
		Msg("import block is not canonical")

	return append(diagnostics, protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: end, Character: 0},
		},
		Severity: protocol.SeverityHint,
		Code:     Code,
		Source:   d.config.Source,
		Message:  Message,
	}), nil
}

// LastImportLine returns the zero-based index of the last line whose trimmed
// content starts with keyword, or 0 when there is none. This is a prefix
// match: an identifier such as "imported" also counts.
func LastImportLine(text, keyword string) int {
	last := 0
	for i, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), keyword) {
			last = i
		}
	}
	return last
}

// IsImportDiagnostic reports whether d was produced by a Detector
func IsImportDiagnostic(d protocol.Diagnostic) bool {
	return d.Code == Code
}
