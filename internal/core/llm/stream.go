package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Stream is a pull-driven, cancellable sequence of fragments.
//
// The producer runs in its own goroutine and hands fragments over an
// unbuffered channel, so at most one fragment is held ahead of the consumer.
// Close cancels the producer's context, which aborts the upstream request.
type Stream struct {
	ch     chan Fragment
	cancel context.CancelFunc

	err       error // written by the producer before ch is closed
	closed    bool
	closeOnce sync.Once
	mu        sync.Mutex
}

// Emit hands one fragment to the consumer, blocking until it is taken
type Emit func(Fragment) error

// NewStream runs produce in a goroutine. produce must stop when emit
// returns an error.
func NewStream(ctx context.Context, produce func(ctx context.Context, emit Emit) error) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		ch:     make(chan Fragment),
		cancel: cancel,
	}

	go func() {
		err := produce(ctx, func(f Fragment) error {
			if f.Text == "" {
				return nil
			}
			select {
			case s.ch <- f:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		s.err = err
		close(s.ch)
		cancel()
	}()

	return s
}

// Next blocks until the next fragment arrives. ok is false once the stream
// has ended, after which Err reports how it ended.
func (s *Stream) Next() (Fragment, bool) {
	f, ok := <-s.ch
	return f, ok
}

// Err returns the producer's error once Next has reported the end.
// Cancellation caused by Close is not an error.
func (s *Stream) Err() error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed && errors.Is(s.err, context.Canceled) {
		return nil
	}
	return s.err
}

// Close stops the producer and waits for it to finish. Safe to call more
// than once and after the stream has ended.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cancel()
		for range s.ch {
		}
	})
}

// Collect drains the stream and concatenates its fragments
func Collect(s *Stream) (Response, error) {
	defer s.Close()

	var text, reasoning strings.Builder
	for {
		f, ok := s.Next()
		if !ok {
			break
		}
		switch f.Kind {
		case FragmentReasoning:
			reasoning.WriteString(f.Text)
		default:
			text.WriteString(f.Text)
		}
	}
	if err := s.Err(); err != nil {
		return Response{}, err
	}
	return Response{Text: text.String(), Reasoning: reasoning.String()}, nil
}

// TextOnly forwards each answer fragment to fn, skipping reasoning.
// It stops early if fn returns an error.
func TextOnly(s *Stream, fn func(string) error) error {
	defer s.Close()
	for {
		f, ok := s.Next()
		if !ok {
			return s.Err()
		}
		if f.Kind != FragmentText {
			continue
		}
		if err := fn(f.Text); err != nil {
			return err
		}
	}
}

// StreamText starts a request on p and forwards only answer text. The
// upstream request is bound to the returned stream, so closing it aborts
// the request.
func StreamText(ctx context.Context, p Provider, req Request) *Stream {
	return NewStream(ctx, func(ctx context.Context, emit Emit) error {
		upstream, err := p.Stream(ctx, req)
		if err != nil {
			return err
		}
		return TextOnly(upstream, func(text string) error {
			return emit(Fragment{Kind: FragmentText, Text: text})
		})
	})
}
