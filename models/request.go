package models

import (
	"bytes"
	"encoding/json"
)

// Request is one inbound command from the management plane (or the local CLI).
type Request struct {
	RequestID json.RawMessage `json:"requestId,omitempty"`
	Action    string          `json:"action,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	CLI       bool            `json:"cli,omitempty"`
}

// HasRequestID reports whether the request carried a non-null correlation id.
func (r Request) HasRequestID() bool {
	id := bytes.TrimSpace(r.RequestID)
	return len(id) > 0 && !bytes.Equal(id, []byte("null"))
}

// ContainersPayload is the data of stop, restart and remove requests.
type ContainersPayload struct {
	Containers []string `json:"containers"`
}

// RenamePayload is the data of rename requests: old name -> new name.
type RenamePayload struct {
	Containers map[string]string `json:"containers"`
}

// ComposePayload is the data of create and upgrade requests. Compose holds
// the service document as text; Name selects the upgraded service.
type ComposePayload struct {
	Name    string `json:"name,omitempty"`
	Compose string `json:"compose,omitempty"`
}
