package server

import (
	"context"
	"encoding/json"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/diagnostic"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/document"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/protocol"
)

const organizeTitle = "Organise imports"

func (s *Server) handleDidOpen(msg *protocol.Message) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Debug().Err(err).Msg("ignoring malformed didOpen")
		return nil
	}
	doc := params.TextDocument
	s.docs.Open(doc.URI, doc.Version, doc.Text)
	s.scheduleDiagnostics(doc.URI)
	return nil
}

func (s *Server) handleDidChange(msg *protocol.Message) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Debug().Err(err).Msg("ignoring malformed didChange")
		return nil
	}
	uri := params.TextDocument.URI
	if err := s.docs.Change(uri, params.TextDocument.Version, params.ContentChanges); err != nil {
		s.logger.Debug().Err(err).Str("uri", uri).Msg("ignoring change")
		return nil
	}
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) handleDidSave(msg *protocol.Message) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Debug().Err(err).Msg("ignoring malformed didSave")
		return nil
	}
	s.scheduleDiagnostics(params.TextDocument.URI)
	return nil
}

func (s *Server) handleDidClose(msg *protocol.Message) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Debug().Err(err).Msg("ignoring malformed didClose")
		return nil
	}
	uri := params.TextDocument.URI
	s.docs.Close(uri)
	return s.notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
}

// scheduleDiagnostics checks the current text of uri in the background
func (s *Server) scheduleDiagnostics(uri string) {
	snap, ok := document.Take(s.docs, uri)
	if !ok {
		return
	}
	cfg, session := s.state()
	if !session.Active() {
		return
	}
	detector := diagnostic.New(session.Analyzer, diagnostic.DetectorConfig{
		Keyword: cfg.ImportKeyword,
		Logger:  s.logger,
	})
	s.goAsync(func(ctx context.Context) {
		s.publishDiagnostics(ctx, detector, snap)
	})
}

func (s *Server) publishDiagnostics(ctx context.Context, detector *diagnostic.Detector, snap document.Snapshot) {
	file := analysis.File{Path: document.URIToPath(snap.URI), Text: snap.Text}
	diagnostics, err := detector.Check(ctx, file)
	if err != nil {
		s.logger.Warn().Err(err).Str("uri", snap.URI).Msg("import check failed")
		return
	}
	// a newer version has its own check queued
	if current, ok := s.docs.Version(snap.URI); !ok || current != snap.Version {
		return
	}
	version := snap.Version
	err = s.notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         snap.URI,
		Version:     &version,
		Diagnostics: diagnostics,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish diagnostics")
	}
}

// handleCodeAction offers one quick fix when the request carries an import
// diagnostic
func (s *Server) handleCodeAction(msg *protocol.Message) error {
	var params protocol.CodeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.replyError(msg.ID, protocol.CodeInvalidParams, "invalid params")
	}

	var matched []protocol.Diagnostic
	for _, d := range params.Context.Diagnostics {
		if diagnostic.IsImportDiagnostic(d) {
			matched = append(matched, d)
		}
	}
	actions := []protocol.CodeAction{}
	if len(matched) > 0 {
		arg, err := json.Marshal(URIArgs{URI: params.TextDocument.URI})
		if err != nil {
			return s.replyError(msg.ID, protocol.CodeInternalError, err.Error())
		}
		actions = append(actions, protocol.CodeAction{
			Title:       organizeTitle,
			Kind:        protocol.CodeActionQuickFix,
			Diagnostics: matched,
			IsPreferred: true,
			Command: &protocol.Command{
				Title:     organizeTitle,
				Command:   CommandOrganizeImports,
				Arguments: []json.RawMessage{arg},
			},
		})
	}
	return s.reply(msg.ID, actions)
}
