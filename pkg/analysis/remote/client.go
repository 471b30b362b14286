// Package remote talks to an analysis service running as a separate process.
//
// Messages use LSP base-protocol framing (Content-Length headers) carrying
// JSON-RPC 2.0. Calls may be issued concurrently; responses are matched to
// callers by request id. Nothing is retried.
package remote

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/errors"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/imports"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/protocol"
)

const (
	defaultTimeout = 10 * time.Second
	stopGrace      = 2 * time.Second
)

type ClientOption func(*Client) *Client

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) *Client {
		c.logger = logger
		return c
	}
}

// WithTimeout bounds every call. Zero or negative keeps the default.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) *Client {
		if timeout > 0 {
			c.timeout = timeout
		}
		return c
	}
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Client implements analysis.Analyzer over a JSON-RPC connection
type Client struct {
	logger  zerolog.Logger
	timeout time.Duration

	cmd *exec.Cmd

	writer  io.WriteCloser
	writeMu sync.Mutex

	nextID    atomic.Int64
	pending   map[int64]chan *protocol.Message
	pendingMu sync.Mutex

	closed  atomic.Bool
	done    chan struct{} // closed when the read loop exits
	readErr error
}

var _ analysis.Analyzer = (*Client)(nil)

// NewClient speaks to a service reading requests from w and writing
// responses to r. Closing the client closes w.
func NewClient(r io.Reader, w io.WriteCloser, options ...ClientOption) *Client {
	c := &Client{
		logger:  zerolog.Nop(),
		timeout: defaultTimeout,
		writer:  w,
		pending: make(map[int64]chan *protocol.Message),
		done:    make(chan struct{}),
	}
	for _, opt := range options {
		c = opt(c)
	}
	go c.readLoop(bufio.NewReader(r))
	return c
}

// Start launches argv as a child process and connects to its stdio. The
// child's stderr is passed through.
func Start(argv []string, options ...ClientOption) (*Client, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%s: empty command", errors.ErrMsgFailedToStartAnalysis)
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ErrMsgFailedToStartAnalysis, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ErrMsgFailedToStartAnalysis, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%s %s: %w", errors.ErrMsgFailedToStartAnalysis, argv[0], err)
	}

	c := NewClient(stdout, stdin, options...)
	c.cmd = cmd
	c.logger.Info().Strs("command", argv).Int("pid", cmd.Process.Pid).Msg("analysis process started")
	return c, nil
}

func (c *Client) readLoop(r *bufio.Reader) {
	defer close(c.done)
	for {
		payload, err := protocol.ReadMessage(r)
		if err != nil {
			if !c.closed.Load() && !stderrors.Is(err, io.EOF) {
				c.logger.Warn().Err(err).Msg("analysis connection failed")
			}
			c.readErr = err
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Warn().Err(err).Msg("dropping malformed analysis message")
			continue
		}
		if !msg.IsResponse() {
			c.logger.Debug().Str("method", msg.Method).Msg("ignoring analysis notification")
			continue
		}
		id, err := strconv.ParseInt(string(msg.ID), 10, 64)
		if err != nil {
			c.logger.Warn().Str("id", string(msg.ID)).Msg("dropping response with foreign id")
			continue
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[id]
		c.pendingMu.Unlock()
		if !ok {
			c.logger.Debug().Int64("id", id).Msg("response for abandoned call")
			continue
		}
		select {
		case ch <- &msg:
		default:
			c.logger.Warn().Int64("id", id).Msg("dropping duplicate response")
		}
	}
}

func (c *Client) write(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.WriteJSON(c.writer, v)
}

// call sends one request and decodes the result into result
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	if c.closed.Load() {
		return errors.ErrAnalysisClosed
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	id := c.nextID.Add(1)
	ch := make(chan *protocol.Message, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	if err := c.write(request{JSONRPC: protocol.Version, ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("%s %s: %w", errors.ErrMsgAnalysisCallFailed, method, err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s %s: %w", errors.ErrMsgAnalysisCallFailed, method, ctx.Err())
	case <-c.done:
		return fmt.Errorf("%w: %v", errors.ErrAnalysisClosed, c.readErr)
	case resp := <-ch:
		if resp.Error != nil {
			return &analysis.RemoteError{Method: method, Code: resp.Error.Code, Message: resp.Error.Message}
		}
		if result == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("%s %s: %w", errors.ErrMsgFailedToDecodeResult, method, err)
		}
		return nil
	}
}

func (c *Client) Imports(ctx context.Context, file analysis.File) ([]imports.Existing, error) {
	var result []ExistingImport
	if err := c.call(ctx, MethodList, fileParams(file), &result); err != nil {
		return nil, err
	}
	existing := make([]imports.Existing, 0, len(result))
	for _, e := range result {
		existing = append(existing, imports.Existing{Module: e.Module, Qualifier: e.Qualifier})
	}
	return existing, nil
}

func (c *Client) AddQualifiedImport(ctx context.Context, file analysis.File, module, qualifier string) (imports.Outcome, error) {
	var result OutcomeResult
	params := QualifiedParams{FileParams: fileParams(file), Module: module, Qualifier: qualifier}
	if err := c.call(ctx, MethodAddQualified, params, &result); err != nil {
		return nil, err
	}
	return c.decodeOutcome(MethodAddQualified, result)
}

func (c *Client) AddOpenImport(ctx context.Context, file analysis.File, module string) (string, bool, error) {
	var result OpenResult
	params := OpenParams{FileParams: fileParams(file), Module: module}
	if err := c.call(ctx, MethodAddOpen, params, &result); err != nil {
		return "", false, err
	}
	return result.Text, result.Changed, nil
}

func (c *Client) AddExplicitImport(ctx context.Context, file analysis.File, req analysis.Explicit) (imports.Outcome, error) {
	var result OutcomeResult
	params := ExplicitParams{
		FileParams: fileParams(file),
		Identifier: req.Identifier,
		Module:     req.Module,
		Qualifier:  req.Qualifier,
		Namespace:  req.Namespace,
	}
	if err := c.call(ctx, MethodAddExplicit, params, &result); err != nil {
		return nil, err
	}
	return c.decodeOutcome(MethodAddExplicit, result)
}

func (c *Client) ReorganizeImports(ctx context.Context, file analysis.File) (string, bool, error) {
	var result ReorganizeResult
	if err := c.call(ctx, MethodReorganize, fileParams(file), &result); err != nil {
		return "", false, err
	}
	return result.Text, result.OK, nil
}

func (c *Client) ListModules(ctx context.Context, file analysis.File) ([]string, error) {
	var result []string
	if err := c.call(ctx, MethodListModules, fileParams(file), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) decodeOutcome(method string, result OutcomeResult) (imports.Outcome, error) {
	outcome, err := result.outcome()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", errors.ErrMsgFailedToDecodeResult, method, err)
	}
	return outcome, nil
}

// Close asks the service to shut down, closes its input and, for a child
// process, waits briefly before killing it. Pending calls fail with
// ErrAnalysisClosed.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if err := c.write(request{JSONRPC: protocol.Version, Method: MethodShutdown}); err != nil {
		c.logger.Debug().Err(err).Msg("shutdown notification not delivered")
	}
	err := c.writer.Close()

	if c.cmd == nil {
		return err
	}
	exited := make(chan error, 1)
	go func() { exited <- c.cmd.Wait() }()
	select {
	case <-exited:
	case <-time.After(stopGrace):
		c.logger.Warn().Int("pid", c.cmd.Process.Pid).Msg("analysis process did not exit, killing it")
		_ = c.cmd.Process.Kill()
		<-exited
	}
	return err
}
