package remote

import (
	"fmt"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/imports"
)

// Methods served by an analysis process
const (
	MethodList         = "imports/list"
	MethodAddQualified = "imports/addQualified"
	MethodAddOpen      = "imports/addOpen"
	MethodAddExplicit  = "imports/addExplicit"
	MethodReorganize   = "imports/reorganize"
	MethodListModules  = "imports/listModules"
	MethodShutdown     = "shutdown"
)

// Outcome kinds on the wire
const (
	KindUpdated       = "updated"
	KindAmbiguous     = "ambiguous"
	KindNotApplicable = "notApplicable"
)

type FileParams struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

func fileParams(file analysis.File) FileParams {
	return FileParams{Path: file.Path, Text: file.Text}
}

type ExistingImport struct {
	Module    string `json:"module"`
	Qualifier string `json:"qualifier,omitempty"`
}

type QualifiedParams struct {
	FileParams
	Module    string `json:"module"`
	Qualifier string `json:"qualifier"`
}

type OpenParams struct {
	FileParams
	Module string `json:"module"`
}

type OpenResult struct {
	Text    string `json:"text"`
	Changed bool   `json:"changed"`
}

type ExplicitParams struct {
	FileParams
	Identifier string             `json:"identifier"`
	Module     *string            `json:"module,omitempty"`
	Qualifier  *string            `json:"qualifier,omitempty"`
	Namespace  *imports.Namespace `json:"namespace,omitempty"`
}

type ReorganizeResult struct {
	Text string `json:"text"`
	OK   bool   `json:"ok"`
}

// OutcomeResult is the tagged encoding of imports.Outcome
type OutcomeResult struct {
	Kind       string   `json:"kind"`
	Text       string   `json:"text,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

func (r OutcomeResult) outcome() (imports.Outcome, error) {
	switch r.Kind {
	case KindUpdated:
		return imports.Updated{Text: r.Text}, nil
	case KindAmbiguous:
		return imports.Ambiguous{Candidates: r.Candidates}, nil
	case KindNotApplicable:
		return imports.NotApplicable{}, nil
	default:
		return nil, fmt.Errorf("unknown outcome kind %q", r.Kind)
	}
}

// EncodeOutcome is the inverse of the client's decoding, for servers
// written in Go
func EncodeOutcome(o imports.Outcome) OutcomeResult {
	switch o := o.(type) {
	case imports.Updated:
		return OutcomeResult{Kind: KindUpdated, Text: o.Text}
	case imports.Ambiguous:
		return OutcomeResult{Kind: KindAmbiguous, Candidates: o.Candidates}
	default:
		return OutcomeResult{Kind: KindNotApplicable}
	}
}
