// Package overleaf is the client for the project realtime channel. One
// Client performs a single authenticated session against one project:
// connect, implicit join, file content fetches and pushes, disconnect.
//
// The wire schema for content fetch and push acknowledgments is pinned
// against the live service and kept entirely inside this package; callers
// only see snapshots, byte slices and hashes.
package overleaf

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/olsync/olsync/internal/auth"
	"github.com/olsync/olsync/internal/state"
	"github.com/olsync/olsync/internal/utils"
)

// State is the connection lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	AwaitingJoin
	Joined
	Closed
	Errored
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingJoin:
		return "awaiting-join"
	case Joined:
		return "joined"
	case Closed:
		return "closed"
	case Errored:
		return "errored"
	}
	return "unknown"
}

const (
	// DefaultJoinTimeout bounds the wait for the join response; the server
	// pushes it asynchronously, it is never requested explicitly.
	DefaultJoinTimeout = 10 * time.Second
	// DefaultRequestTimeout bounds each correlated request/response exchange.
	DefaultRequestTimeout = 10 * time.Second
	// DefaultConnectRetries is the number of extra dial attempts at the
	// initial connect stage. Never applied mid-join or mid-operation.
	DefaultConnectRetries = 2

	connectRetryDelay = 1 * time.Second
	socketPath        = "/socket.io/websocket"
)

// Options tune the client. Zero durations take the defaults above; a
// ConnectRetries of zero disables retrying entirely.
type Options struct {
	ServerURL      string
	JoinTimeout    time.Duration
	RequestTimeout time.Duration
	ConnectRetries int
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.JoinTimeout <= 0 {
		out.JoinTimeout = DefaultJoinTimeout
	}
	if out.RequestTimeout <= 0 {
		out.RequestTimeout = DefaultRequestTimeout
	}
	if out.ConnectRetries < 0 {
		out.ConnectRetries = 0
	}
	return out
}

// dialer opens the transport connection. Swapped out in tests.
type dialer func(ctx context.Context, wsURL string, header http.Header) (*websocket.Conn, error)

func defaultDialer(ctx context.Context, wsURL string, header http.Header) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: header,
	})
	return conn, err
}

// Client drives one authenticated realtime session for one project.
type Client struct {
	opts      Options
	session   *auth.Session
	projectID string
	dial      dialer

	mu       sync.Mutex
	state    State
	sock     *socket
	pending  map[string]chan *frame
	joinedCh chan struct{}
	joinErr  error
	project  state.Project
	snapshot state.Snapshot
	lastErr  error
}

// NewClient builds a client for projectID using session. The session is
// borrowed read-only for the lifetime of one command.
func NewClient(session *auth.Session, projectID string, opts Options) *Client {
	return &Client{
		opts:      opts.withDefaults(),
		session:   session,
		projectID: projectID,
		dial:      defaultDialer,
		state:     Disconnected,
		pending:   make(map[string]chan *frame),
		joinedCh:  make(chan struct{}),
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// FetchProjectState drives the client through connect and join and returns
// the server-observed project state. The connection stays open for
// subsequent content operations.
func (c *Client) FetchProjectState(ctx context.Context) (state.Project, state.Snapshot, error) {
	c.mu.Lock()
	switch c.state {
	case Joined:
		project, snapshot := c.project, c.snapshot.Clone()
		c.mu.Unlock()
		return project, snapshot, nil
	case Closed:
		c.mu.Unlock()
		return state.Project{}, nil, ErrClosed
	case Disconnected:
		c.state = Connecting
		c.mu.Unlock()
	default:
		st, cause := c.state, c.lastErr
		c.mu.Unlock()
		if cause != nil {
			return state.Project{}, nil, fmt.Errorf("overleaf: fetch state in %s state: %w", st, cause)
		}
		return state.Project{}, nil, fmt.Errorf("overleaf: fetch state in %s state", st)
	}

	if err := c.connect(ctx); err != nil {
		c.fail(err)
		return state.Project{}, nil, err
	}

	if err := c.awaitJoin(ctx); err != nil {
		c.fail(err)
		return state.Project{}, nil, err
	}

	c.mu.Lock()
	project, snapshot := c.project, c.snapshot.Clone()
	c.mu.Unlock()
	return project, snapshot, nil
}

// connect dials the channel with a bounded number of retries and starts the
// frame pumps. The session cookie travels as the auth header, the project id
// as a connection parameter; joining is implicit.
func (c *Client) connect(ctx context.Context) error {
	wsURL, err := c.socketURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Cookie", c.session.CookieHeader())

	var conn *websocket.Conn
	var dialErr error
	for attempt := 0; attempt <= c.opts.ConnectRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying connect", "attempt", attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * connectRetryDelay):
			}
		}

		conn, dialErr = c.dial(ctx, wsURL, header)
		if dialErr == nil {
			break
		}
		slog.Warn("connect failed", "attempt", attempt+1, "error", dialErr)
	}
	if dialErr != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, dialErr)
	}

	sock := newSocket(conn)
	sock.Start(ctx)

	c.mu.Lock()
	c.sock = sock
	c.state = AwaitingJoin
	c.mu.Unlock()

	go c.dispatch(sock)
	return nil
}

// awaitJoin blocks until the join response event arrives, the server rejects
// the session, the connection drops, or the join timeout fires.
func (c *Client) awaitJoin(ctx context.Context) error {
	timer := time.NewTimer(c.opts.JoinTimeout)
	defer timer.Stop()

	c.mu.Lock()
	joinedCh := c.joinedCh
	sock := c.sock
	c.mu.Unlock()

	resolve := func() error {
		c.mu.Lock()
		err := c.joinErr
		c.mu.Unlock()
		if err != nil {
			return err
		}
		c.setState(Joined)
		slog.Debug("joined project", "project", c.projectID)
		return nil
	}

	select {
	case <-joinedCh:
		return resolve()

	case <-sock.closed:
		// A join result recorded just before the socket went down wins.
		select {
		case <-joinedCh:
			return resolve()
		default:
			return ErrDisconnected
		}

	case <-timer.C:
		return fmt.Errorf("%w: join response after %s", ErrProtocolTimeout, c.opts.JoinTimeout)

	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch routes inbound frames: correlated responses to their waiting
// request, server-initiated events to the lifecycle handling.
func (c *Client) dispatch(sock *socket) {
	for f := range sock.frameRx {
		if f.Id != "" {
			c.resolvePending(f)
			continue
		}

		switch f.Name {
		case eventJoinProject:
			c.handleJoin(f)

		case eventServerError:
			var payload serverErrorPayload
			if err := f.decodePayload(&payload); err != nil {
				slog.Warn("malformed server error", "error", err)
				continue
			}
			c.fail(&ServerError{Code: payload.Code, Message: payload.Message})

		case eventForceDisconnect:
			// An unsolicited disconnect is reported, never swallowed.
			c.fail(ErrDisconnected)

		default:
			slog.Debug("ignoring event", "name", f.Name)
		}
	}

	// Socket is gone; nothing pending can ever complete.
	c.failPending(ErrDisconnected)
}

func (c *Client) handleJoin(f *frame) {
	var payload joinPayload
	err := f.decodePayload(&payload)

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.joinedCh:
		return // duplicate join event
	default:
	}

	if err != nil {
		c.joinErr = err
	} else {
		c.project = state.Project{ID: payload.Project.Id, Name: payload.Project.Name}
		c.snapshot = flattenTree(payload.Project.RootFolder, payload.Project.Version)
	}
	close(c.joinedCh)
}

func (c *Client) resolvePending(f *frame) {
	c.mu.Lock()
	ch, ok := c.pending[f.Id]
	if ok {
		delete(c.pending, f.Id)
	}
	c.mu.Unlock()

	if !ok {
		slog.Debug("dropping uncorrelated frame", "name", f.Name, "id", f.Id)
		return
	}
	ch <- f
}

// failPending drops all in-flight correlation tokens after the socket is
// gone. Waiters observe the closed socket and fail with ErrDisconnected.
func (c *Client) failPending(err error) {
	c.mu.Lock()
	c.pending = make(map[string]chan *frame)
	if c.state != Closed && c.state != Errored {
		c.state = Errored
		c.lastErr = err
	}
	c.mu.Unlock()
}

// fail moves the client into the errored state, keeping the first error. A
// join still in flight is completed with the same error so the waiter sees
// the real cause rather than a bare disconnect.
func (c *Client) fail(err error) {
	c.mu.Lock()
	if c.state != Closed && c.state != Errored {
		c.state = Errored
		c.lastErr = err
	}
	select {
	case <-c.joinedCh:
	default:
		c.joinErr = err
		close(c.joinedCh)
	}
	sock := c.sock
	c.mu.Unlock()

	if sock != nil {
		sock.Close()
	}
}

// Err returns the error that moved the client into the errored state.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// request performs one correlated request/response exchange with a bounded
// wait. Each request carries a single-shot uuid token.
func (c *Client) request(ctx context.Context, name string, payload any) (*frame, error) {
	c.mu.Lock()
	if c.state != Joined {
		st := c.state
		c.mu.Unlock()
		if st == Closed {
			return nil, ErrClosed
		}
		return nil, ErrNotJoined
	}
	sock := c.sock
	id := uuid.NewString()
	ch := make(chan *frame, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	f, err := newFrame(name, id, payload)
	if err != nil {
		return nil, err
	}
	if err := sock.Send(f); err != nil {
		return nil, err
	}

	timer := time.NewTimer(c.opts.RequestTimeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Name == eventServerError {
			var errPayload serverErrorPayload
			if err := resp.decodePayload(&errPayload); err != nil {
				return nil, err
			}
			return nil, &ServerError{Code: errPayload.Code, Message: errPayload.Message}
		}
		return resp, nil

	case <-sock.closed:
		return nil, ErrDisconnected

	case <-timer.C:
		return nil, fmt.Errorf("%w: %s response after %s", ErrProtocolTimeout, name, c.opts.RequestTimeout)

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FetchFile retrieves the content of one file named in the snapshot. Only
// valid after the join handshake.
func (c *Client) FetchFile(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.request(ctx, eventGetDocument, &getDocumentPayload{Path: path})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}

	var payload docContentPayload
	if err := resp.decodePayload(&payload); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}

	return decodeContent(payload.Content)
}

// PushFile uploads new content for one file and returns the server-recorded
// hash and revision. Absence of an acknowledgment within the request timeout
// fails the push.
func (c *Client) PushFile(ctx context.Context, path string, content []byte) (state.FileEntry, error) {
	payload := &updateDocumentPayload{
		Path:    path,
		Content: encodeContent(content),
		Hash:    utils.ContentHash(content),
	}

	resp, err := c.request(ctx, eventUpdateDocument, payload)
	if err != nil {
		return state.FileEntry{}, fmt.Errorf("push %s: %w", path, err)
	}

	var ack updateAckPayload
	if err := resp.decodePayload(&ack); err != nil {
		return state.FileEntry{}, fmt.Errorf("push %s: %w", path, err)
	}

	return state.FileEntry{
		Hash:    ack.Hash,
		Size:    int64(len(content)),
		Version: ack.Version,
	}, nil
}

// Close releases the connection. Safe to call on every exit path and more
// than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return
	}
	c.state = Closed
	sock := c.sock
	c.sock = nil
	c.mu.Unlock()

	if sock != nil {
		sock.Close()
	}
	slog.Debug("connection closed", "project", c.projectID)
}

// socketURL builds the channel endpoint carrying the project identifier as a
// connection parameter.
func (c *Client) socketURL() (string, error) {
	base, err := url.Parse(c.opts.ServerURL)
	if err != nil {
		return "", fmt.Errorf("overleaf: parse server url: %w", err)
	}

	base.Path = socketPath
	query := url.Values{}
	query.Set("projectId", c.projectID)
	query.Set("t", strconv.FormatInt(time.Now().Unix(), 10))
	base.RawQuery = query.Encode()

	return toWebsocketURL(base.String()), nil
}

// toWebsocketURL converts an HTTP URL to a WebSocket URL.
func toWebsocketURL(u string) string {
	if strings.HasPrefix(u, "https://") {
		return "wss://" + u[8:]
	} else if strings.HasPrefix(u, "http://") {
		return "ws://" + u[7:]
	}
	return u
}

// flattenTree converts the server's nested folder representation into the
// flat path->entry snapshot. The first root folder is the project root; its
// own name is not part of any path.
func flattenTree(roots []folderNode, version int64) state.Snapshot {
	snapshot := state.Snapshot{}
	if len(roots) == 0 {
		return snapshot
	}
	flattenFolder(&roots[0], "", version, snapshot)
	return snapshot
}

func flattenFolder(folder *folderNode, prefix string, version int64, snapshot state.Snapshot) {
	add := func(entries []treeEntry) {
		for _, entry := range entries {
			entryVersion := entry.Version
			if entryVersion == 0 {
				entryVersion = version
			}
			snapshot[prefix+entry.Name] = state.FileEntry{
				Hash:    entry.Hash,
				Size:    entry.Size,
				Version: entryVersion,
			}
		}
	}
	add(folder.Docs)
	add(folder.FileRefs)

	for i := range folder.Folders {
		sub := &folder.Folders[i]
		flattenFolder(sub, prefix+sub.Name+"/", version, snapshot)
	}
}
