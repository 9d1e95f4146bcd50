package overleaf

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork wraps transport-level connect failures.
	ErrNetwork = errors.New("overleaf: connection failed")
	// ErrProtocolTimeout means an expected event never arrived in time.
	ErrProtocolTimeout = errors.New("overleaf: timed out waiting for server")
	// ErrNotJoined means an operation was issued before the join handshake
	// completed.
	ErrNotJoined = errors.New("overleaf: not joined to a project")
	// ErrDisconnected means the server closed the channel mid-operation.
	ErrDisconnected = errors.New("overleaf: server disconnected")
	// ErrClosed means the client was already closed.
	ErrClosed = errors.New("overleaf: client closed")
)

// Server error codes observed on the channel.
const (
	CodeNotAuthorized   = "E_NOT_AUTHORIZED"
	CodeProjectNotFound = "E_PROJECT_NOT_FOUND"
)

// ServerError is an explicit error/rejection payload pushed by the server.
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("overleaf: server error %s: %s", e.Code, e.Message)
}

// IsNotAuthorized reports whether err is a server rejection of the session
// credential.
func IsNotAuthorized(err error) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.Code == CodeNotAuthorized
}

// IsProjectNotFound reports whether err is a server rejection of the project
// identifier.
func IsProjectNotFound(err error) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.Code == CodeProjectNotFound
}
