// Package server exposes the import assistant to editors as a language
// server speaking JSON-RPC over stdio.
//
// The read loop is single-threaded: document notifications are applied to the
// store in arrival order. Commands and diagnostic checks snapshot what they
// need on the loop and then run on their own goroutines.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/config"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/document"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/protocol"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/version"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit"
	ErrExit = stderrors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown"
	ErrExitWithoutShutdown = stderrors.New("lsp exit without shutdown")
)

// SessionFunc starts the analysis session for a workspace root. It is called
// once, while handling initialize.
type SessionFunc func(ctx context.Context, root string) (*analysis.Session, error)

// Options carries everything the server depends on
type Options struct {
	Config *config.Config // nil means config.Default()

	// Session is used as-is when NewSession is nil. A nil session means no
	// analysis service is available.
	Session    *analysis.Session
	NewSession SessionFunc

	// Applier delivers edits to the editor; nil sends workspace/applyEdit
	// over the same connection.
	Applier Applier

	Logger zerolog.Logger
}

// Server handles one editor connection
type Server struct {
	in     *bufio.Reader
	out    io.Writer
	sendMu sync.Mutex
	nextID atomic.Int64

	logger  zerolog.Logger
	docs    *document.Memory
	applier Applier

	mu         sync.RWMutex // guards config and session
	config     *config.Config
	session    *analysis.Session
	newSession SessionFunc

	ctx               context.Context
	group             errgroup.Group
	shutdownRequested bool
}

func New(in io.Reader, out io.Writer, opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		in:         bufio.NewReader(in),
		out:        out,
		logger:     opts.Logger,
		docs:       document.NewMemory(),
		applier:    opts.Applier,
		config:     cfg.Clone(),
		session:    opts.Session,
		newSession: opts.NewSession,
		ctx:        context.Background(),
	}
	if s.applier == nil {
		s.applier = &clientApplier{server: s}
	}
	return s
}

// Run serves messages until exit or end of input. In-flight commands finish
// and the analysis session is closed before Run returns.
func (s *Server) Run(ctx context.Context) error {
	s.ctx = ctx
	defer s.stop()

	for {
		payload, err := protocol.ReadMessage(s.in)
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg protocol.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn().Err(err).Msg("failed to parse message")
			continue
		}
		// responses to our own requests (workspace/applyEdit) are not awaited
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			if stderrors.Is(err, ErrExit) {
				return nil
			}
			return err
		}
	}
}

func (s *Server) stop() {
	if err := s.group.Wait(); err != nil {
		s.logger.Warn().Err(err).Msg("background work failed")
	}
	s.mu.Lock()
	session := s.session
	s.session = nil
	s.mu.Unlock()
	if err := session.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close analysis session")
	}
}

func (s *Server) handleMessage(msg *protocol.Message) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		s.shutdownRequested = true
		return s.reply(msg.ID, nil)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/codeAction":
		return s.handleCodeAction(msg)
	default:
		if len(msg.ID) > 0 {
			return s.replyError(msg.ID, protocol.CodeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *protocol.Message) error {
	var params protocol.InitializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.replyError(msg.ID, protocol.CodeInvalidParams, "invalid params")
		}
	}
	root := document.URIToPath(params.RootURI)
	if root == "" {
		root = params.RootPath
	}

	s.mu.Lock()
	changed := s.config.ApplySettings(params.InitializationOptions)
	s.mu.Unlock()
	if changed {
		s.logger.Info().Msg("settings applied from initializationOptions")
	}

	if s.newSession != nil {
		session, err := s.newSession(s.ctx, root)
		if err != nil {
			s.logger.Error().Err(err).Str("root", root).Msg("analysis session unavailable")
		}
		s.mu.Lock()
		s.session = session
		s.mu.Unlock()
	}
	s.logger.Info().
		Str("root", root).
		Bool("analysis", s.currentSession().Active()).
		Msg("initialized")

	result := protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.SyncIncremental,
				Save:      true,
			},
			CodeActionProvider: &protocol.CodeActionOptions{
				CodeActionKinds: []string{protocol.CodeActionQuickFix},
			},
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: Commands(),
			},
		},
		ServerInfo: &protocol.ServerInfo{Name: version.Name, Version: version.Version},
	}
	return s.reply(msg.ID, result)
}

func (s *Server) handleDidChangeConfiguration(msg *protocol.Message) error {
	var params protocol.DidChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Debug().Err(err).Msg("ignoring malformed configuration change")
		return nil
	}
	s.mu.Lock()
	changed := s.config.ApplySettings(params.Settings)
	autoAdd, openModule := s.config.AutoAddImport, s.config.OpenModule
	s.mu.Unlock()
	if changed {
		s.logger.Info().
			Bool("autoAddImport", autoAdd).
			Str("openModule", openModule).
			Msg("configuration changed")
	}
	return nil
}

// state returns a copy of the configuration and the current session
func (s *Server) state() (config.Config, *analysis.Session) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.config, s.session
}

func (s *Server) currentSession() *analysis.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// goAsync runs fn on the server's group. fn never fails the group; errors are
// logged where they happen.
func (s *Server) goAsync(fn func(ctx context.Context)) {
	ctx := s.ctx
	s.group.Go(func() error {
		fn(ctx)
		return nil
	})
}

func (s *Server) send(v any) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return protocol.WriteJSON(s.out, v)
}

func (s *Server) reply(id json.RawMessage, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return s.replyError(id, protocol.CodeInternalError, err.Error())
	}
	return s.send(protocol.Message{JSONRPC: protocol.Version, ID: id, Result: raw})
}

func (s *Server) replyError(id json.RawMessage, code int, message string) error {
	return s.send(protocol.Message{
		JSONRPC: protocol.Version,
		ID:      id,
		Error:   &protocol.ResponseError{Code: code, Message: message},
	})
}

func (s *Server) notify(method string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return s.send(protocol.Message{JSONRPC: protocol.Version, Method: method, Params: raw})
}

// request sends a request to the editor without waiting for its response
func (s *Server) request(method string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	id := strconv.AppendInt(nil, s.nextID.Add(1), 10)
	return s.send(protocol.Message{JSONRPC: protocol.Version, ID: id, Method: method, Params: raw})
}
