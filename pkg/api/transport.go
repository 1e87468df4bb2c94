package api

import (
	"context"

	"github.com/vango-dev/spendsync/pkg/update"
)

// CodeSuccess is the jsonCode of a successful response.
const CodeSuccess = 200

// Request is one remote command invocation.
type Request struct {
	ID      string         `json:"requestID"`
	Command Command        `json:"command"`
	Params  map[string]any `json:"params"`
}

// Response is the settled result of a Request.
type Response struct {
	// JSONCode is 200 on success; any other value is a failure.
	JSONCode int `json:"jsonCode"`

	// Message is an optional server message.
	Message string `json:"message,omitempty"`

	// Updates are descriptors the server asks the client to apply before the
	// request's own success or failure descriptors.
	Updates []update.Descriptor `json:"onyxData,omitempty"`
}

// OK reports whether the response is a success.
func (r *Response) OK() bool {
	return r != nil && r.JSONCode == CodeSuccess
}

// Transport sends commands to the remote API.
// Retries, backoff and queueing, if any, happen inside the transport.
type Transport interface {
	Write(ctx context.Context, req Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) (*Response, error)

// Write implements Transport.
func (f TransportFunc) Write(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
