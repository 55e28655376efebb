package mapresolve

import (
	"context"
	"errors"
	"sync"

	"github.com/meigma/mapresolve/mapping"
)

// Outcome is the single-assignment result of a pipeline run.
//
// Exactly one value is ever published. Callers that start waiting before or
// after publication observe the same table or the same error.
type Outcome struct {
	done  chan struct{}
	once  sync.Once
	table *mapping.Table
	err   error
}

func newOutcome() *Outcome {
	return &Outcome{done: make(chan struct{})}
}

// publish sets the outcome. Later calls are ignored and report false.
func (o *Outcome) publish(table *mapping.Table, err error) bool {
	if err == nil && table == nil {
		err = errors.New("mapping pipeline produced no table")
	}
	published := false
	o.once.Do(func() {
		if err != nil {
			table = nil
		}
		o.table = table
		o.err = err
		close(o.done)
		published = true
	})
	return published
}

// Done returns a channel closed once the outcome is published.
func (o *Outcome) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the outcome is published or ctx is done.
// Giving up on ctx does not affect the pipeline.
func (o *Outcome) Wait(ctx context.Context) (*mapping.Table, error) {
	select {
	case <-o.done:
		return o.table, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Poll returns the outcome without blocking; done is false until it is published.
func (o *Outcome) Poll() (table *mapping.Table, done bool, err error) {
	select {
	case <-o.done:
		return o.table, true, o.err
	default:
		return nil, false, nil
	}
}

// Then calls fn with the outcome once it is published. fn runs on its own
// goroutine, including when the outcome is already available.
func (o *Outcome) Then(fn func(*mapping.Table, error)) {
	go func() {
		<-o.done
		fn(o.table, o.err)
	}()
}
