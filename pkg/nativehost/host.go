// Package nativehost runs the dispatcher as a Chrome native-messaging host.
//
// The extension keeps a thin background shim: it forwards context-menu
// selections and popup searches over the native port, executes the COMMAND
// messages the host sends back (tabs.sendMessage, scripting.insertCSS,
// scripting.executeScript) and reports each outcome as a COMMAND_RESULT.
// Popup replies travel as REPLY messages keyed by the shim's replyId.
package nativehost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/hazyhaar/scoutlens/pkg/delivery"
	"github.com/hazyhaar/scoutlens/pkg/dispatch"
	"github.com/hazyhaar/scoutlens/pkg/envelope"
	"github.com/hazyhaar/scoutlens/pkg/kit"
)

const msgTooLarge = "result too large to display"

// DefaultCommandTimeout bounds how long the host waits for a COMMAND_RESULT.
const DefaultCommandTimeout = 10 * time.Second

var (
	ErrClosed         = errors.New("native port closed")
	ErrCommandTimeout = errors.New("command timed out")
)

// CommandError is a COMMAND the extension reported as failed, e.g. a
// tabs.sendMessage with no content script listening.
type CommandError struct {
	Op    string
	TabID int
	Msg   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s on tab %d: %s", e.Op, e.TabID, e.Msg)
}

// Dispatcher is satisfied by *dispatch.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, in dispatch.Inbound) bool
	Wait()
}

// Host owns one native port. It implements delivery.PageTransport.
type Host struct {
	r      io.Reader
	w      io.Writer
	logger *slog.Logger

	commandTimeout time.Duration
	cssFile        string
	scriptFile     string

	wmu sync.Mutex // serializes frames on w

	mu      sync.Mutex
	pending map[string]chan commandResult
	closed  bool
}

var _ delivery.PageTransport = (*Host)(nil)

// Option configures a Host.
type Option func(*Host)

// WithCommandTimeout overrides DefaultCommandTimeout.
func WithCommandTimeout(d time.Duration) Option {
	return func(h *Host) { h.commandTimeout = d }
}

// WithAssets names the extension files injected into pages that have no
// listener yet. Defaults: styles.css and content.js.
func WithAssets(css, script string) Option {
	return func(h *Host) {
		h.cssFile = css
		h.scriptFile = script
	}
}

// NewHost reads browser messages from r and writes host messages to w
// (stdin and stdout when launched by Chrome).
func NewHost(r io.Reader, w io.Writer, logger *slog.Logger, opts ...Option) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Host{
		r:              r,
		w:              w,
		logger:         logger,
		commandTimeout: DefaultCommandTimeout,
		cssFile:        "styles.css",
		scriptFile:     "content.js",
		pending:        make(map[string]chan commandResult),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run reads messages until the browser closes the port, then fails any
// outstanding commands and waits for in-flight requests to finish.
// A clean close returns nil.
func (h *Host) Run(ctx context.Context, d Dispatcher) error {
	ctx = kit.WithTransport(ctx, "native")
	h.logger.Info("native host started")

	var runErr error
	for {
		data, err := ReadMessage(h.r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				runErr = err
			}
			break
		}
		h.handle(ctx, d, data)
	}

	h.shutdown()
	d.Wait()
	h.logger.Info("native host stopped", "error", runErr)
	return runErr
}

func (h *Host) handle(ctx context.Context, d Dispatcher, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Warn("undecodable native message", "error", err, "bytes", len(data))
		return
	}

	switch msg.Type {
	case TypeSelectionSearch:
		page := ""
		if msg.TabID > 0 {
			page = strconv.Itoa(msg.TabID)
		}
		d.Dispatch(ctx, dispatch.SelectionTrigger{Query: msg.SelectionText, PageContextID: page})

	case TypeManualSearch:
		replyID := msg.ReplyID
		d.Dispatch(ctx, dispatch.WindowRequest{
			Query:     msg.Query,
			IsLocator: msg.IsURL,
			Reply:     func(env envelope.Envelope) { h.reply(replyID, env) },
		})

	case TypeCommandResult:
		h.complete(msg.ID, commandResult{ok: msg.OK, err: msg.Error})

	default:
		h.logger.Warn("unknown native message type", "type", msg.Type)
	}
}

func (h *Host) reply(replyID string, env envelope.Envelope) {
	err := h.write(outboundMessage{Type: TypeReply, ReplyID: replyID, Payload: &env})
	if errors.Is(err, ErrMessageTooLarge) {
		h.logger.Warn("reply too large for native port, sending error", "reply_id", replyID, "envelope", env)
		fallback := envelope.Error(msgTooLarge)
		err = h.write(outboundMessage{Type: TypeReply, ReplyID: replyID, Payload: &fallback})
	}
	if err != nil {
		h.logger.Error("reply not sent", "reply_id", replyID, "error", err)
	}
}

// Send asks the extension to post env to the page's content script. An
// envelope over the outbound cap is replaced by an ERROR so the overlay
// still gets a terminal message.
func (h *Host) Send(ctx context.Context, page delivery.PageContext, env envelope.Envelope) error {
	tab, err := tabID(page)
	if err != nil {
		return err
	}
	err = h.command(ctx, outboundMessage{Op: OpSendMessage, TabID: tab, Message: &env})
	if !errors.Is(err, ErrMessageTooLarge) {
		return err
	}
	h.logger.Warn("envelope too large for native port, sending error", "tab", tab, "envelope", env)
	fallback := envelope.Error(msgTooLarge)
	return h.command(ctx, outboundMessage{Op: OpSendMessage, TabID: tab, Message: &fallback})
}

// InjectAssets asks the extension to insert the overlay stylesheet.
func (h *Host) InjectAssets(ctx context.Context, page delivery.PageContext) error {
	tab, err := tabID(page)
	if err != nil {
		return err
	}
	return h.command(ctx, outboundMessage{Op: OpInsertCSS, TabID: tab, Files: []string{h.cssFile}})
}

// ActivateHandler asks the extension to execute the content script, which
// registers the page's message listener.
func (h *Host) ActivateHandler(ctx context.Context, page delivery.PageContext) error {
	tab, err := tabID(page)
	if err != nil {
		return err
	}
	return h.command(ctx, outboundMessage{Op: OpExecuteScript, TabID: tab, Files: []string{h.scriptFile}})
}

func (h *Host) command(ctx context.Context, msg outboundMessage) error {
	msg.Type = TypeCommand
	msg.ID = kit.NewRequestID()
	ch := make(chan commandResult, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	h.pending[msg.ID] = ch
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.pending, msg.ID)
		h.mu.Unlock()
	}()

	if err := h.write(msg); err != nil {
		return err
	}

	timer := time.NewTimer(h.commandTimeout)
	defer timer.Stop()
	select {
	case res, ok := <-ch:
		if !ok {
			return ErrClosed
		}
		if !res.ok {
			return &CommandError{Op: msg.Op, TabID: msg.TabID, Msg: res.err}
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s on tab %d", ErrCommandTimeout, msg.Op, msg.TabID)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Host) complete(id string, res commandResult) {
	h.mu.Lock()
	ch, ok := h.pending[id]
	if ok {
		delete(h.pending, id)
	}
	h.mu.Unlock()
	if !ok {
		h.logger.Debug("result for unknown command", "id", id)
		return
	}
	ch <- res
}

// shutdown fails every waiting command and refuses new ones.
func (h *Host) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.pending {
		close(ch)
		delete(h.pending, id)
	}
}

func (h *Host) write(msg outboundMessage) error {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	return WriteMessage(h.w, msg)
}

func tabID(page delivery.PageContext) (int, error) {
	id, err := strconv.Atoi(string(page))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("page context %q is not a tab id", page)
	}
	return id, nil
}
