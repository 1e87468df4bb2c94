package transport

import (
	"github.com/goccy/go-json"

	"github.com/vango-dev/spendsync/pkg/api"
	"github.com/vango-dev/spendsync/pkg/update"
)

// FrameType identifies a WebSocket frame.
type FrameType string

const (
	// FrameRequest carries a command from client to server.
	FrameRequest FrameType = "request"

	// FrameResponse settles a request.
	FrameResponse FrameType = "response"

	// FramePush carries descriptors the server sends on its own.
	FramePush FrameType = "push"
)

// Frame is the JSON text message exchanged over the WebSocket.
type Frame struct {
	Type      FrameType           `json:"type"`
	RequestID string              `json:"requestID,omitempty"`
	Command   api.Command         `json:"command,omitempty"`
	Params    map[string]any      `json:"params,omitempty"`
	JSONCode  int                 `json:"jsonCode,omitempty"`
	Message   string              `json:"message,omitempty"`
	Updates   []update.Descriptor `json:"onyxData,omitempty"`
}

// RequestFrame wraps req.
func RequestFrame(req api.Request) Frame {
	return Frame{Type: FrameRequest, RequestID: req.ID, Command: req.Command, Params: req.Params}
}

// ResponseFrame wraps resp as the answer to requestID.
func ResponseFrame(requestID string, resp *api.Response) Frame {
	return Frame{
		Type:      FrameResponse,
		RequestID: requestID,
		JSONCode:  resp.JSONCode,
		Message:   resp.Message,
		Updates:   resp.Updates,
	}
}

// PushFrame wraps server-initiated descriptors.
func PushFrame(updates []update.Descriptor) Frame {
	return Frame{Type: FramePush, Updates: updates}
}

// Request returns the request carried by a request frame.
func (f Frame) Request() api.Request {
	return api.Request{ID: f.RequestID, Command: f.Command, Params: f.Params}
}

// Response returns the response carried by a response frame.
func (f Frame) Response() *api.Response {
	return &api.Response{JSONCode: f.JSONCode, Message: f.Message, Updates: f.Updates}
}

// EncodeFrame serializes f.
func EncodeFrame(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

// DecodeFrame parses a frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, err
}
