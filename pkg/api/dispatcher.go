package api

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/spendsync/pkg/state"
	"github.com/vango-dev/spendsync/pkg/update"
)

const defaultTracerName = "spendsync"

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics sets the collectors updated on every write.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithTracer sets the tracer used for write spans.
// Default: otel.Tracer("spendsync").
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// WithTimeout bounds every transport call. Zero means no bound.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithContext sets the parent context of every transport call.
func WithContext(ctx context.Context) Option {
	return func(d *Dispatcher) {
		if ctx != nil {
			d.baseCtx = ctx
		}
	}
}

// WithIDGenerator replaces the request id generator.
func WithIDGenerator(fn func() string) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.newID = fn
		}
	}
}

// Writer issues a command with its descriptor set.
// *Dispatcher implements it.
type Writer interface {
	Write(command Command, params map[string]any, set update.Set) *Pending
}

// Dispatcher applies descriptor sets around remote commands.
//
// Write applies the optimistic descriptors synchronously, sends the command
// on its own goroutine and, when the command settles, applies the
// server-supplied updates followed by the success or failure descriptors.
// The dispatcher never retries. Writes touching the same key are not
// reconciled: whichever settles last wins.
type Dispatcher struct {
	store     *state.Store
	transport Transport
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	timeout   time.Duration
	baseCtx   context.Context
	newID     func() string

	mu       sync.Mutex
	closed   bool
	pending  int
	inflight map[state.Key]int
	wg       sync.WaitGroup
}

// New creates a dispatcher writing to store and sending through transport.
func New(store *state.Store, transport Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:     store,
		transport: transport,
		logger:    slog.Default(),
		tracer:    otel.Tracer(defaultTracerName),
		baseCtx:   context.Background(),
		newID:     uuid.NewString,
		inflight:  make(map[state.Key]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Store returns the store the dispatcher writes to.
func (d *Dispatcher) Store() *state.Store {
	return d.store
}

// Write applies set.Optimistic, then sends command with params.
// The returned Pending settles after the success or failure descriptors have
// been applied. Failures are never returned to the caller; they are visible
// only through the store.
func (d *Dispatcher) Write(command Command, params map[string]any, set update.Set) *Pending {
	id := d.newID()
	p := newPending(id, command)
	keys := set.Keys()

	if err := update.Apply(d.store, set.Optimistic); err != nil {
		d.logger.Error("optimistic update failed", "command", command, "request_id", id, "error", err)
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("write after close", "command", command, "request_id", id)
		d.settle(p, set, nil, OutcomeFailure)
		return p
	}
	overlapping := d.trackLocked(keys)
	d.pending++
	d.wg.Add(1)
	d.mu.Unlock()

	if len(overlapping) > 0 {
		d.logger.Warn("write overlaps in-flight write",
			"command", command,
			"request_id", id,
			"keys", overlapping)
	}
	d.metrics.writeStarted(command, len(overlapping) > 0)

	req := Request{ID: id, Command: command, Params: maps.Clone(params)}
	go d.run(p, req, set, keys)
	return p
}

func (d *Dispatcher) run(p *Pending, req Request, set update.Set, keys []state.Key) {
	defer d.wg.Done()
	start := time.Now()

	ctx := d.baseCtx
	var cancel context.CancelFunc
	if d.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	ctx, span := d.tracer.Start(ctx, "api.write "+string(req.Command),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("spendsync.command", string(req.Command)),
			attribute.String("spendsync.request_id", req.ID),
		),
	)
	defer span.End()

	resp, err := d.send(ctx, req)

	outcome := OutcomeFailure
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Warn("write failed", "command", req.Command, "request_id", req.ID, "error", err)
	case !resp.OK():
		span.SetAttributes(attribute.Int("spendsync.json_code", resp.JSONCode))
		span.SetStatus(codes.Error, fmt.Sprintf("jsonCode %d", resp.JSONCode))
		d.logger.Info("write rejected",
			"command", req.Command,
			"request_id", req.ID,
			"json_code", resp.JSONCode,
			"message", resp.Message)
	default:
		outcome = OutcomeSuccess
		span.SetAttributes(attribute.Int("spendsync.json_code", resp.JSONCode))
		span.SetStatus(codes.Ok, "")
	}

	d.mu.Lock()
	d.untrackLocked(keys)
	d.pending--
	d.mu.Unlock()
	d.metrics.writeSettled(req.Command, outcome, time.Since(start))

	d.settle(p, set, resp, outcome)
}

// send calls the transport, turning a panic into an error.
func (d *Dispatcher) send(ctx context.Context, req Request) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("transport panic: %v", r)
		}
	}()
	resp, err = d.transport.Write(ctx, req)
	if err == nil && resp == nil {
		err = fmt.Errorf("transport returned no response")
	}
	return resp, err
}

// settle applies server updates and the settlement descriptors in one batch.
func (d *Dispatcher) settle(p *Pending, set update.Set, resp *Response, outcome Outcome) {
	var descriptors []update.Descriptor
	if resp != nil && len(resp.Updates) > 0 {
		descriptors = append(descriptors, resp.Updates...)
		d.metrics.serverUpdates(len(resp.Updates))
	}
	if outcome == OutcomeSuccess {
		descriptors = append(descriptors, set.Success...)
	} else {
		descriptors = append(descriptors, set.Failure...)
	}
	if err := update.Apply(d.store, descriptors); err != nil {
		d.logger.Error("settlement update failed", "command", p.command, "request_id", p.id, "error", err)
	}
	p.finish(outcome)
}

// ApplyServerUpdates applies descriptors pushed by the server outside of any
// request.
func (d *Dispatcher) ApplyServerUpdates(descriptors []update.Descriptor) error {
	d.metrics.serverUpdates(len(descriptors))
	return update.Apply(d.store, descriptors)
}

// InFlight returns the number of writes that have not settled.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Close stops accepting writes and waits for in-flight writes to settle or
// for ctx to end. Writes issued after Close apply their optimistic and
// failure descriptors immediately.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// trackLocked records the keys of a new write and returns those that were
// already in flight.
func (d *Dispatcher) trackLocked(keys []state.Key) []string {
	var overlapping []string
	for _, k := range keys {
		if d.inflight[k] > 0 {
			overlapping = append(overlapping, string(k))
		}
		d.inflight[k]++
	}
	return overlapping
}

func (d *Dispatcher) untrackLocked(keys []state.Key) {
	for _, k := range keys {
		if d.inflight[k] <= 1 {
			delete(d.inflight, k)
			continue
		}
		d.inflight[k]--
	}
}
