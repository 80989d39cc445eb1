package typeenrich

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/standardbeagle/codeir/internal/diag"
)

// responseQueue is a bounded, thread-safe pending-request table. Grounded
// in the original implementation's LRUResponseQueue (typescript_lsp.py):
// responses that never get collected (a timed-out request) must not leak
// memory, so entries beyond maxSize are evicted oldest-first.
type responseQueue struct {
	mu      sync.Mutex
	order   []int
	pending map[int]chan json.RawMessage
	maxSize int
}

func newResponseQueue(maxSize int) *responseQueue {
	return &responseQueue{pending: make(map[int]chan json.RawMessage), maxSize: maxSize}
}

func (q *responseQueue) register(id int) chan json.RawMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch := make(chan json.RawMessage, 1)
	q.pending[id] = ch
	q.order = append(q.order, id)
	if len(q.order) > q.maxSize {
		evict := q.order[0]
		q.order = q.order[1:]
		if stale, ok := q.pending[evict]; ok {
			close(stale)
			delete(q.pending, evict)
		}
	}
	return ch
}

func (q *responseQueue) deliver(id int, payload json.RawMessage) {
	q.mu.Lock()
	ch, ok := q.pending[id]
	if ok {
		delete(q.pending, id)
	}
	q.mu.Unlock()
	if ok {
		ch <- payload
		close(ch)
	}
}

// Client is one LSP client process (one per language server instance).
// Its lifecycle follows the state machine in state.go; transport errors
// always force the client to StateStopped and the enricher falls back to
// "nodes keep whatever type they already had" (§4.4) rather than failing
// the build.
type Client struct {
	mu    sync.Mutex
	sm    stateMachine
	log   *diag.Logger
	cmd   *exec.Cmd
	stdin io.WriteCloser

	nextID    atomic.Int64
	responses *responseQueue
}

// NewClient spawns serverCmd (e.g. "pyright-langserver --stdio",
// "typescript-language-server --stdio") and starts its read loop. The
// client begins in StateStarting and moves to StateInitialized once the
// server's "initialize" response arrives via Initialize.
func NewClient(ctx context.Context, log *diag.Logger, serverCmd string, args ...string) (*Client, error) {
	c := &Client{log: log, responses: newResponseQueue(100)}
	if err := c.sm.transition(StateStarting); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, serverCmd, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.sm.forceStopped()
		return nil, fmt.Errorf("typeenrich: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.sm.forceStopped()
		return nil, fmt.Errorf("typeenrich: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		c.sm.forceStopped()
		return nil, fmt.Errorf("typeenrich: start %s: %w", serverCmd, err)
	}

	c.cmd = cmd
	c.stdin = stdin
	go c.readLoop(bufio.NewReader(stdout))

	return c, nil
}

// readLoop parses LSP's Content-Length-framed JSON-RPC messages off the
// server's stdout and routes responses to their waiting caller by id.
// Any I/O error here is a transport error: the client is forced to
// StateStopped and the loop exits.
func (c *Client) readLoop(r *bufio.Reader) {
	for {
		length, err := readContentLength(r)
		if err != nil {
			c.mu.Lock()
			c.sm.forceStopped()
			c.mu.Unlock()
			return
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(r, body); err != nil {
			c.mu.Lock()
			c.sm.forceStopped()
			c.mu.Unlock()
			return
		}

		var msg struct {
			ID     *int            `json:"id"`
			Result json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(body, &msg); err != nil {
			c.log.Warnf("lsp: dropping unparseable message: %v", err)
			continue
		}
		if msg.ID != nil {
			c.responses.deliver(*msg.ID, msg.Result)
		}
	}
}

func readContentLength(r *bufio.Reader) (int, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Content-Length:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:")))
			if err != nil {
				return 0, err
			}
			length = n
		}
	}
	if length < 0 {
		return 0, fmt.Errorf("typeenrich: missing Content-Length header")
	}
	return length, nil
}

// call sends a JSON-RPC request and blocks for its response or ctx's
// deadline, whichever comes first (§4.4: "a per-file timeout").
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := int(c.nextID.Add(1))
	ch := c.responses.register(id)

	req := struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Method  string `json:"method"`
		Params  any    `json:"params"`
	}{JSONRPC: "2.0", ID: id, Method: method, Params: params}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	_, werr := fmt.Fprintf(c.stdin, "Content-Length: %d\r\n\r\n%s", len(body), body)
	c.mu.Unlock()
	if werr != nil {
		c.mu.Lock()
		c.sm.forceStopped()
		c.mu.Unlock()
		return nil, fmt.Errorf("typeenrich: write request: %w", werr)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("typeenrich: response evicted before delivery (id=%d)", id)
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// notify sends a JSON-RPC notification (no "id", no response expected) —
// used for textDocument/didOpen, which the LSP spec defines as fire-and-
// forget.
func (c *Client) notify(method string, params any) error {
	req := struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params"`
	}{JSONRPC: "2.0", Method: method, Params: params}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	c.mu.Lock()
	_, werr := fmt.Fprintf(c.stdin, "Content-Length: %d\r\n\r\n%s", len(body), body)
	c.mu.Unlock()
	if werr != nil {
		c.mu.Lock()
		c.sm.forceStopped()
		c.mu.Unlock()
		return fmt.Errorf("typeenrich: write notification: %w", werr)
	}
	return nil
}

// Initialize sends the "initialize" request and, on success, transitions
// starting -> initialized -> active.
func (c *Client) Initialize(ctx context.Context, rootURI lsp.DocumentURI) error {
	params := lsp.InitializeParams{RootURI: rootURI}
	if _, err := c.call(ctx, "initialize", params); err != nil {
		c.mu.Lock()
		c.sm.forceStopped()
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sm.transition(StateInitialized); err != nil {
		return err
	}
	return c.sm.transition(StateActive)
}

// DidOpen sends a textDocument/didOpen notification for uri with its full
// text, so the server has the document in sync before the first Hover
// against it (§4.4: "Opens files lazily (one didOpen per file per
// session)"). Callers are responsible for the "once per file per
// session" part; DidOpen itself just sends the notification each time
// it's called.
func (c *Client) DidOpen(ctx context.Context, uri lsp.DocumentURI, languageID, text string) error {
	c.mu.Lock()
	active := c.sm.state() == StateActive
	c.mu.Unlock()
	if !active {
		return fmt.Errorf("typeenrich: client not active (state=%s)", c.sm.state())
	}

	params := lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{
			URI:        uri,
			LanguageID: languageID,
			Version:    1,
			Text:       text,
		},
	}
	return c.notify("textDocument/didOpen", params)
}

// Hover queries hover info (type information) at the given position.
func (c *Client) Hover(ctx context.Context, uri lsp.DocumentURI, pos lsp.Position) (*lsp.Hover, error) {
	c.mu.Lock()
	active := c.sm.state() == StateActive
	c.mu.Unlock()
	if !active {
		return nil, fmt.Errorf("typeenrich: client not active (state=%s)", c.sm.state())
	}

	params := lsp.TextDocumentPositionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
		Position:     pos,
	}
	raw, err := c.call(ctx, "textDocument/hover", params)
	if err != nil {
		return nil, err
	}
	var hover lsp.Hover
	if err := json.Unmarshal(raw, &hover); err != nil {
		return nil, err
	}
	return &hover, nil
}

// Shutdown transitions active -> draining -> stopped and terminates the
// server process.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if err := c.sm.transition(StateDraining); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	_, _ = c.call(ctx, "shutdown", nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.sm.transition(StateStopped)
	if c.stdin != nil {
		_ = c.stdin.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	return nil
}

// State reports the client's current lifecycle state.
func (c *Client) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sm.state()
}
