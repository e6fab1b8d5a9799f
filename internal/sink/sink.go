// Package sink receives emitted declarations. Every record is a complete JSON
// line; sinks must not reorder or buffer across records.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Record is one emitted declaration.
type Record struct {
	DeclID     string
	Kind       string
	Name       string
	PseudoRoot string
	Location   []string
	// JSON is the rendered line without its trailing newline.
	JSON []byte
}

// Sink stores or forwards records.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

// LineSink writes each record as one line to an io.Writer.
type LineSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineSink creates a sink that prints records to w.
func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: w}
}

// Write prints rec and a newline in a single write.
func (s *LineSink) Write(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line := make([]byte, 0, len(rec.JSON)+1)
	line = append(line, rec.JSON...)
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("write record %s: %w", rec.DeclID, err)
	}
	return nil
}

// Close is a no-op; the writer belongs to the caller.
func (s *LineSink) Close() error {
	return nil
}

// Multi fans records out to several sinks in order.
type Multi []Sink

// Write stops at the first failing sink.
func (m Multi) Write(ctx context.Context, rec Record) error {
	for _, s := range m {
		if err := s.Write(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Collector keeps records in memory. Batch extraction uses it to hold one
// translation unit's output until it can be flushed in input order.
type Collector struct {
	Records []Record
}

// Write appends rec.
func (c *Collector) Write(ctx context.Context, rec Record) error {
	c.Records = append(c.Records, rec)
	return nil
}

// Close is a no-op.
func (c *Collector) Close() error {
	return nil
}

// Replay writes every collected record to dst.
func (c *Collector) Replay(ctx context.Context, dst Sink) error {
	for _, rec := range c.Records {
		if err := dst.Write(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
