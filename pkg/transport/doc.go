// Package transport provides api.Transport implementations.
//
// HTTPTransport posts each command to {baseURL}/api/{command} and retries
// network errors and 5xx responses with exponential backoff. A response with
// a jsonCode other than 200 is final and is never retried.
//
// WSTransport keeps one WebSocket connection open, multiplexes concurrent
// commands over it by request id, and forwards server push frames to a
// callback (usually Dispatcher.ApplyServerUpdates).
//
//	tr, err := transport.DialWS(ctx, "ws://localhost:8080/ws",
//	    transport.WithPushHandler(func(ds []update.Descriptor) {
//	        dispatcher.ApplyServerUpdates(ds)
//	    }))
//
// Both transports encode with goccy/go-json.
package transport
