package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/config"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/document"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/edit"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/errors"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/imports"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/protocol"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/resolver"
)

const (
	CommandAddImportFromCompletion = "gil.addImportFromCompletion"
	CommandAddModuleImport         = "gil.addModuleImport"
	CommandOrganizeImports         = "gil.organizeImports"
	CommandListModules             = "gil.listModules"
)

// Commands returns the command names advertised at initialize
func Commands() []string {
	return []string{
		CommandAddImportFromCompletion,
		CommandAddModuleImport,
		CommandOrganizeImports,
		CommandListModules,
	}
}

// AddImportArgs is the argument of gil.addImportFromCompletion
type AddImportArgs struct {
	Identifier string             `json:"identifier"`
	Module     *string            `json:"module,omitempty"`
	Qualifier  *string            `json:"qualifier,omitempty"`
	URI        string             `json:"uri"`
	Namespace  *imports.Namespace `json:"namespace,omitempty"`
}

// ModuleImportArgs is the argument of gil.addModuleImport
type ModuleImportArgs struct {
	Module    string  `json:"module"`
	Qualifier *string `json:"qualifier,omitempty"`
	URI       string  `json:"uri"`
}

// URIArgs is the argument of gil.organizeImports and gil.listModules
type URIArgs struct {
	URI string `json:"uri"`
}

// AmbiguousResult is returned when several modules could provide an
// identifier, so the editor can let the user pick one
type AmbiguousResult struct {
	Identifier string   `json:"identifier"`
	Candidates []string `json:"candidates"`
}

// commandRun is everything a command needs, captured on the read loop
type commandRun struct {
	config  config.Config
	session *analysis.Session
	snap    document.Snapshot
	file    analysis.File
}

// handleExecuteCommand never answers with an error: failures become a null
// result and a log line.
func (s *Server) handleExecuteCommand(msg *protocol.Message) error {
	var params protocol.ExecuteCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Debug().Err(err).Msg("ignoring malformed executeCommand")
		return s.reply(msg.ID, nil)
	}

	exec, err := s.prepareCommand(params)
	if err != nil {
		s.logCommandError(params.Command, err)
		return s.reply(msg.ID, nil)
	}

	id := msg.ID
	s.goAsync(func(ctx context.Context) {
		result, err := exec(ctx)
		if err != nil {
			s.logCommandError(params.Command, err)
			result = nil
		}
		if err := s.reply(id, result); err != nil {
			s.logger.Warn().Err(err).Str("command", params.Command).Msg("failed to answer command")
		}
	})
	return nil
}

// prepareCommand validates the arguments and snapshots state. The returned
// function does the analysis work off the read loop.
func (s *Server) prepareCommand(params protocol.ExecuteCommandParams) (func(context.Context) (any, error), error) {
	switch params.Command {
	case CommandAddImportFromCompletion:
		var args AddImportArgs
		if err := decodeArgs(params.Arguments, &args); err != nil {
			return nil, err
		}
		if args.Identifier == "" || args.URI == "" {
			return nil, fmt.Errorf("%w: identifier and uri are required", errors.ErrMalformedRequest)
		}
		run, err := s.snapshot(args.URI, true)
		if err != nil {
			return nil, err
		}
		req := imports.Request{
			Identifier: args.Identifier,
			Module:     args.Module,
			Qualifier:  args.Qualifier,
			Namespace:  args.Namespace,
		}
		return func(ctx context.Context) (any, error) {
			return s.addImport(ctx, run, req)
		}, nil

	case CommandAddModuleImport:
		var args ModuleImportArgs
		if err := decodeArgs(params.Arguments, &args); err != nil {
			return nil, err
		}
		if args.Module == "" || args.URI == "" {
			return nil, fmt.Errorf("%w: module and uri are required", errors.ErrMalformedRequest)
		}
		run, err := s.snapshot(args.URI, false)
		if err != nil {
			return nil, err
		}
		module := args.Module
		req := imports.Request{Identifier: module, Module: &module, Qualifier: args.Qualifier}
		return func(ctx context.Context) (any, error) {
			return s.addImport(ctx, run, req)
		}, nil

	case CommandOrganizeImports:
		var args URIArgs
		if err := decodeArgs(params.Arguments, &args); err != nil {
			return nil, err
		}
		run, err := s.snapshot(args.URI, false)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return nil, s.organize(ctx, run)
		}, nil

	case CommandListModules:
		var args URIArgs
		if err := decodeArgs(params.Arguments, &args); err != nil {
			return nil, err
		}
		session := s.currentSession()
		if !session.Active() {
			return nil, errors.ErrNoSession
		}
		file := analysis.File{Path: document.URIToPath(args.URI)}
		if text, ok := s.docs.Text(args.URI); ok {
			file.Text = text
		}
		return func(ctx context.Context) (any, error) {
			modules, err := session.Analyzer.ListModules(ctx, file)
			if err != nil {
				return nil, err
			}
			if modules == nil {
				modules = []string{}
			}
			return modules, nil
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown command %q", errors.ErrMalformedRequest, params.Command)
	}
}

// snapshot captures configuration, session and document text at one instant.
// The document version is read before the text.
func (s *Server) snapshot(uri string, completion bool) (commandRun, error) {
	cfg, session := s.state()
	if completion && !cfg.AutoAddImport {
		return commandRun{}, errors.ErrDisabled
	}
	if !session.Active() {
		return commandRun{}, errors.ErrNoSession
	}
	snap, ok := document.Take(s.docs, uri)
	if !ok {
		return commandRun{}, fmt.Errorf("%w: %s", errors.ErrDocumentNotOpen, uri)
	}
	return commandRun{
		config:  cfg,
		session: session,
		snap:    snap,
		file:    analysis.File{Path: document.URIToPath(uri), Text: snap.Text},
	}, nil
}

func (s *Server) addImport(ctx context.Context, run commandRun, req imports.Request) (any, error) {
	analyzer := run.session.Analyzer
	existing, err := analyzer.Imports(ctx, run.file)
	if err != nil {
		return nil, err
	}

	r := resolver.New(analyzer, resolver.ResolverConfig{
		OpenModule: run.config.OpenModule,
		Logger:     s.logger,
	})
	outcome, err := r.Resolve(ctx, req, run.file, existing)
	if err != nil {
		return nil, err
	}

	switch o := outcome.(type) {
	case imports.Updated:
		s.apply("Add import", edit.Synthesize(run.snap.URI, run.snap.Version, run.snap.Text, o.Text))
	case imports.Ambiguous:
		s.logger.Info().
			Str("identifier", req.Identifier).
			Strs("candidates", o.Candidates).
			Msg("ambiguous import")
		return AmbiguousResult{Identifier: req.Identifier, Candidates: o.Candidates}, nil
	default:
		s.logger.Debug().Str("identifier", req.Identifier).Msg("nothing to import")
	}
	return nil, nil
}

func (s *Server) organize(ctx context.Context, run commandRun) error {
	text, ok, err := run.session.Analyzer.ReorganizeImports(ctx, run.file)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.apply(organizeTitle, edit.Synthesize(run.snap.URI, run.snap.Version, run.snap.Text, text))
	return nil
}

func (s *Server) apply(label string, result edit.Result) {
	if err := s.applier.Apply(label, result); err != nil {
		s.logger.Warn().Err(err).Msg("failed to send edit")
	}
}

func (s *Server) logCommandError(command string, err error) {
	switch {
	case stderrors.Is(err, errors.ErrNoSession) && command == CommandListModules:
		s.logger.Error().Err(err).Str("command", command).Msg("cannot list modules")
	case stderrors.Is(err, errors.ErrMalformedRequest),
		stderrors.Is(err, errors.ErrDisabled),
		stderrors.Is(err, errors.ErrNoSession),
		stderrors.Is(err, errors.ErrDocumentNotOpen):
		s.logger.Debug().Err(err).Str("command", command).Msg("command ignored")
	default:
		s.logger.Error().Err(err).Str("command", command).Msg("command failed")
	}
}

// decodeArgs reads the first command argument into v
func decodeArgs(arguments []json.RawMessage, v any) error {
	if len(arguments) == 0 {
		return fmt.Errorf("%w: missing arguments", errors.ErrMalformedRequest)
	}
	if err := json.Unmarshal(arguments[0], v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMalformedRequest, err)
	}
	return nil
}
