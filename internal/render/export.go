package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

const (
	ScaleFree = 2.0
	ScalePro  = 3.0
)

// ScaleFor is the export pixel density for a free or Pro session.
func ScaleFor(pro bool) float64 {
	if pro {
		return ScalePro
	}
	return ScaleFree
}

var (
	ErrNoImage    = errors.New("no image loaded")
	ErrSuperseded = errors.New("export superseded by a newer request")
	ErrCanceled   = errors.New("export canceled")
)

// Result is an encoded export ready to be saved by the client.
type Result struct {
	PNG      []byte
	Filename string
	Width    int
	Height   int
	Scale    float64
}

// Task is a handle on one in-flight export.
type Task struct {
	id     uint64
	cancel context.CancelCauseFunc
	done   chan struct{}

	res Result
	err error
}

// Wait blocks until the export finishes or ctx is done. Abandoning the wait
// does not stop the export; use Cancel for that.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.res, t.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (t *Task) Cancel() {
	t.cancel(ErrCanceled)
}

// Done is closed once the task has a result.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Exporter runs at most one export at a time. Starting a new export cancels
// the previous one, so the last request always wins.
type Exporter struct {
	rasterizer Rasterizer
	settle     time.Duration
	now        func() time.Time

	mu      sync.Mutex
	seq     uint64
	current *Task
}

func NewExporter(r Rasterizer, settle time.Duration) *Exporter {
	return &Exporter{
		rasterizer: r,
		settle:     settle,
		now:        time.Now,
	}
}

// WithClock overrides the clock used for export filenames.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// Start begins exporting tree at scale and returns immediately.
func (e *Exporter) Start(parent context.Context, tree Tree, scale float64) *Task {
	ctx, cancel := context.WithCancelCause(parent)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	e.mu.Lock()
	if prev := e.current; prev != nil {
		prev.cancel(ErrSuperseded)
	}
	e.seq++
	t.id = e.seq
	e.current = t
	e.mu.Unlock()

	if !tree.HasImage() {
		t.err = ErrNoImage
		e.finish(t)
		return t
	}

	go func() {
		t.res, t.err = e.run(ctx, tree, scale)
		if t.err != nil && !errors.Is(t.err, ErrSuperseded) && !errors.Is(t.err, ErrCanceled) {
			logrus.WithFields(logrus.Fields{
				"scale": scale,
				"error": t.err,
			}).Error("export failed")
		}
		e.finish(t)
	}()
	return t
}

// Cancel stops the in-flight export, if any.
func (e *Exporter) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return false
	}
	e.current.cancel(ErrCanceled)
	return true
}

func (e *Exporter) finish(t *Task) {
	e.mu.Lock()
	if e.current != nil && e.current.id == t.id {
		e.current = nil
	}
	e.mu.Unlock()
	t.cancel(nil)
	close(t.done)
}

func (e *Exporter) run(ctx context.Context, tree Tree, scale float64) (Result, error) {
	// let pending style changes land before capturing
	if e.settle > 0 {
		timer := time.NewTimer(e.settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{}, context.Cause(ctx)
		case <-timer.C:
		}
	}

	img, err := e.rasterizer.Rasterize(ctx, tree, scale)
	if err != nil {
		if cause := context.Cause(ctx); cause != nil {
			return Result{}, cause
		}
		return Result{}, fmt.Errorf("failed to rasterize: %w", err)
	}
	if cause := context.Cause(ctx); cause != nil {
		return Result{}, cause
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Result{}, fmt.Errorf("failed to encode png: %w", err)
	}

	b := img.Bounds()
	return Result{
		PNG:      buf.Bytes(),
		Filename: fmt.Sprintf("brandshot-%d.png", e.now().UnixMilli()),
		Width:    b.Dx(),
		Height:   b.Dy(),
		Scale:    scale,
	}, nil
}
