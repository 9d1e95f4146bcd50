package overleaf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
)

const (
	socketChannelSize  = 64
	socketPingPeriod   = 15 * time.Second
	socketPingTimeout  = 5 * time.Second
	socketWriteTimeout = 5 * time.Second
	socketMaxFrameSize = 16 * 1024 * 1024 // 16MB, project files travel inline
)

// socket owns one websocket connection and pumps frames between the
// connection and typed channels.
type socket struct {
	conn      *websocket.Conn
	frameRx   chan *frame // frames received from the server
	frameTx   chan *frame // frames queued for the server
	closed    chan struct{}
	closing   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func newSocket(conn *websocket.Conn) *socket {
	conn.SetReadLimit(socketMaxFrameSize)
	return &socket{
		conn:    conn,
		frameRx: make(chan *frame, socketChannelSize),
		frameTx: make(chan *frame, socketChannelSize),
		closed:  make(chan struct{}),
		closing: make(chan struct{}),
	}
}

func (s *socket) Start(ctx context.Context) {
	s.wg.Add(2)
	go s.writeLoop(ctx)
	go s.readLoop(ctx)
}

func (s *socket) Close() {
	s.closeConnection(websocket.StatusNormalClosure, "shutdown")
	s.wg.Wait()
}

// Send queues a frame for the server. It fails fast when the socket is
// closing instead of blocking on a dead connection.
func (s *socket) Send(f *frame) error {
	select {
	case <-s.closing:
		return ErrDisconnected
	case s.frameTx <- f:
		return nil
	default:
		return errors.New("overleaf: send queue full")
	}
}

func (s *socket) closeConnection(status websocket.StatusCode, reason string) {
	s.closeOnce.Do(func() {
		close(s.closing)
		s.conn.Close(status, reason)
		s.wg.Wait()
		close(s.closed)
		close(s.frameRx)
	})
}

func (s *socket) readLoop(ctx context.Context) {
	defer func() {
		slog.Debug("socket reader shutdown")
		s.wg.Done()
		s.closeConnection(websocket.StatusNormalClosure, "shutdown")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closing:
			return
		default:
		}

		_, raw, err := s.conn.Read(ctx)
		if err != nil {
			if !isExpectedCloseError(err) {
				slog.Warn("socket recv", "error", err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			slog.Warn("socket recv decode", "error", err)
			continue
		}

		select {
		case <-s.closing:
			return
		case s.frameRx <- &f:
		default:
			slog.Warn("socket recv buffer full", "dropped", f.Name)
		}
	}
}

func (s *socket) writeLoop(ctx context.Context) {
	pingTicker := time.NewTicker(socketPingPeriod)
	defer func() {
		slog.Debug("socket writer shutdown")
		pingTicker.Stop()
		s.wg.Done()
		s.closeConnection(websocket.StatusNormalClosure, "shutdown")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-s.closing:
			return

		case f := <-s.frameTx:
			payload, err := json.Marshal(f)
			if err != nil {
				slog.Error("socket send encode", "error", err)
				continue
			}

			ctxWrite, cancel := context.WithTimeout(ctx, socketWriteTimeout)
			err = s.conn.Write(ctxWrite, websocket.MessageText, payload)
			cancel()

			if err != nil {
				slog.Error("socket send", "error", err)
				return
			}

		case <-pingTicker.C:
			ctxPing, cancel := context.WithTimeout(ctx, socketPingTimeout)
			err := s.conn.Ping(ctxPing)
			cancel()

			if err != nil {
				slog.Error("socket ping", "error", err)
				return
			}
		}
	}
}

// isExpectedCloseError returns true if the error is an expected connection
// closure rather than a fault worth logging.
func isExpectedCloseError(err error) bool {
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		return true
	}

	return errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, net.ErrClosed)
}
