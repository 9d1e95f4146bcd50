package overleaf

import (
	"encoding/base64"
	"fmt"

	"github.com/goccy/go-json"
)

// Event names on the realtime channel. The join response is pushed by the
// server without an explicit request; joining is implicit in the connection
// parameters. Everything else is a correlated request/response exchange.
const (
	eventJoinProject     = "joinProjectResponse"
	eventGetDocument     = "getDocument"
	eventDocContent      = "documentContent"
	eventUpdateDocument  = "updateDocument"
	eventUpdateAck       = "updateAck"
	eventServerError     = "serverError"
	eventForceDisconnect = "forceDisconnect"
)

// frame is the envelope for every message on the channel. Id correlates a
// response with its request and is empty on server-initiated events.
type frame struct {
	Name    string          `json:"name"`
	Id      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (f *frame) decodePayload(v any) error {
	if len(f.Payload) == 0 {
		return fmt.Errorf("overleaf: event %q has no payload", f.Name)
	}
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return fmt.Errorf("overleaf: decode %q payload: %w", f.Name, err)
	}
	return nil
}

func newFrame(name, id string, payload any) (*frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("overleaf: encode %q payload: %w", name, err)
	}
	return &frame{Name: name, Id: id, Payload: raw}, nil
}

// joinPayload is the file tree and metadata delivered with the join response.
type joinPayload struct {
	Project struct {
		Id         string       `json:"_id"`
		Name       string       `json:"name"`
		RootFolder []folderNode `json:"rootFolder"`
		Version    int64        `json:"version"`
	} `json:"project"`
}

// folderNode mirrors the server's nested folder representation. Docs and
// file refs carry the same per-entry metadata.
type folderNode struct {
	Name     string       `json:"name"`
	Docs     []treeEntry  `json:"docs"`
	FileRefs []treeEntry  `json:"fileRefs"`
	Folders  []folderNode `json:"folders"`
}

type treeEntry struct {
	Id      string `json:"_id"`
	Name    string `json:"name"`
	Hash    string `json:"hash"`
	Size    int64  `json:"size"`
	Version int64  `json:"version"`
}

type getDocumentPayload struct {
	Path string `json:"path"`
}

type docContentPayload struct {
	Path    string `json:"path"`
	Content string `json:"content"` // base64
	Hash    string `json:"hash"`
}

type updateDocumentPayload struct {
	Path    string `json:"path"`
	Content string `json:"content"` // base64
	Hash    string `json:"hash"`
}

type updateAckPayload struct {
	Path    string `json:"path"`
	Hash    string `json:"hash"`
	Version int64  `json:"version"`
}

type serverErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func encodeContent(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func decodeContent(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("overleaf: decode file content: %w", err)
	}
	return data, nil
}
