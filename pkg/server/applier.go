package server

import (
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/edit"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/protocol"
)

// Applier hands an edit to the editor. Delivery is fire-and-forget: the
// editor's answer, including a rejected stale version, is not awaited.
type Applier interface {
	Apply(label string, result edit.Result) error
}

type clientApplier struct {
	server *Server
}

func (a *clientApplier) Apply(label string, result edit.Result) error {
	we := result.WorkspaceEdit()
	if we == nil {
		return nil
	}
	return a.server.request("workspace/applyEdit", protocol.ApplyWorkspaceEditParams{
		Label: label,
		Edit:  *we,
	})
}
