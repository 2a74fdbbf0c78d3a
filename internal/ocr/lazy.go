package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
)

// Constructor builds a Recognizer.
type Constructor func() (Recognizer, error)

// Lazy is an initialize-once holder for an expensive Recognizer.
//
// The engine is built on first use under a mutex, so concurrent first
// callers share a single construction. A failed construction is not cached:
// the next call tries again. Lazy itself implements Recognizer.
type Lazy struct {
	mu     sync.Mutex
	build  Constructor
	rec    Recognizer
	closed bool
}

// NewLazy creates a holder that builds its engine with fn.
func NewLazy(fn Constructor) *Lazy {
	return &Lazy{build: fn}
}

// Get returns the engine, constructing it if needed.
//
// # Errors
//
//   - Returns an error wrapping ErrDetectorUnavailable if construction fails
//     or the holder has been closed
func (l *Lazy) Get() (Recognizer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, fmt.Errorf("%w: recognizer closed", ErrDetectorUnavailable)
	}
	if l.rec != nil {
		return l.rec, nil
	}

	rec, err := l.build()
	if err != nil {
		if errors.Is(err, ErrDetectorUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: constructor returned no recognizer", ErrDetectorUnavailable)
	}
	l.rec = rec
	return rec, nil
}

// Loaded reports whether the engine has been constructed.
func (l *Lazy) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec != nil
}

// Recognize constructs the engine if needed and delegates to it.
func (l *Lazy) Recognize(ctx context.Context, img image.Image) ([]Recognition, error) {
	rec, err := l.Get()
	if err != nil {
		return nil, err
	}
	return rec.Recognize(ctx, img)
}

// Info reports the engine's backend details. It constructs the engine if
// needed; a construction failure is reported in Info.Error.
func (l *Lazy) Info() Info {
	rec, err := l.Get()
	if err != nil {
		return Info{Available: false, Error: err.Error()}
	}
	if d, ok := rec.(Describer); ok {
		return d.Info()
	}
	return Info{Available: true, Backend: fmt.Sprintf("%T", rec)}
}

// Close releases the engine if it implements io.Closer. After Close, Get
// always fails.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	rec := l.rec
	l.rec = nil
	if c, ok := rec.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
