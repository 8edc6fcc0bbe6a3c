package hal

import (
	"sync"
	"time"
)

// FakeInput is an InputPin driven from tests and simulations.
type FakeInput struct {
	mu    sync.Mutex
	level bool
	edges chan struct{}
}

// NewFakeInput returns an input at the given level.
func NewFakeInput(level bool) *FakeInput {
	return &FakeInput{level: level, edges: make(chan struct{}, 1)}
}

// SetLevel changes the level and wakes a pending WaitForEdge.
func (f *FakeInput) SetLevel(high bool) {
	f.mu.Lock()
	f.level = high
	f.mu.Unlock()
	select {
	case f.edges <- struct{}{}:
	default:
	}
}

// Read implements InputPin.
func (f *FakeInput) Read() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

// WaitForEdge implements InputPin.
func (f *FakeInput) WaitForEdge(timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-f.edges:
		return true
	case <-t.C:
		return false
	}
}

// FakeOutput is an OutputPin that records every level written.
type FakeOutput struct {
	mu     sync.Mutex
	level  bool
	writes []bool
	err    error
}

// Set implements OutputPin.
func (f *FakeOutput) Set(high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.level = high
	f.writes = append(f.writes, high)
	return nil
}

// Level returns the last level written.
func (f *FakeOutput) Level() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

// Writes returns every level written so far.
func (f *FakeOutput) Writes() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.writes...)
}

// Fail makes subsequent writes return err (nil clears it).
func (f *FakeOutput) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}
