package logger

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Operation is a scoped span over a named unit of work. It emits an
// opening event on creation and a closing event (with every recorded
// field, elapsed duration, and a success/error status) on Close.
type Operation struct {
	id    string
	name  string
	log   *slog.Logger
	start time.Time

	mu     sync.Mutex
	fields []slog.Attr
	failed bool
	chain  []string
	closed bool
}

// StartOperation opens a span on the installed pipeline's root logger.
func StartOperation(name string) *Operation {
	if p := global.Load(); p != nil {
		return p.StartOperation(name)
	}
	return startOperation(slog.Default(), name)
}

// StartOperation opens a span on this pipeline.
func (p *Pipeline) StartOperation(name string) *Operation {
	return startOperation(p.logger, name)
}

func startOperation(log *slog.Logger, name string) *Operation {
	op := &Operation{
		id:    uuid.NewString(),
		name:  name,
		log:   log,
		start: time.Now(),
	}
	log.Info("operation started",
		"target", "operation",
		"operation", name,
		"operation_id", op.id)
	return op
}

// ID returns the process-unique operation id.
func (o *Operation) ID() string { return o.id }

// Field records a structured field emitted with the closing event.
func (o *Operation) Field(key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fields = append(o.fields, slog.Any(key, value))
}

// Success marks the operation completed; Close will report status success.
func (o *Operation) Success() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = false
	o.chain = nil
}

// Error marks the operation failed and captures err's full source chain
// as an ordered list of messages, outermost first.
func (o *Operation) Error(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = true
	o.chain = o.chain[:0]
	for e := err; e != nil; e = errors.Unwrap(e) {
		o.chain = append(o.chain, e.Error())
	}
}

// Close emits the closing event. Subsequent calls are no-ops, so Close
// is safe to defer alongside explicit Success/Error reporting.
func (o *Operation) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true

	status := "success"
	if o.failed {
		status = "error"
	}
	attrs := make([]any, 0, 2*(len(o.fields)+5))
	attrs = append(attrs,
		"target", "operation",
		"operation", o.name,
		"operation_id", o.id,
		"duration_ms", time.Since(o.start).Milliseconds(),
		"status", status,
	)
	for _, f := range o.fields {
		attrs = append(attrs, f.Key, f.Value.Any())
	}
	if o.failed {
		attrs = append(attrs, "error_chain", o.chain)
		o.log.Error("operation finished", attrs...)
		return
	}
	o.log.Info("operation finished", attrs...)
}
