package medium

import "sync"

// FakeDriver is a scriptable Driver for tests and bench setups.
// Present media start enabled unless SetUninitialized is called.
type FakeDriver struct {
	mu           sync.Mutex
	root         string
	present      bool
	enabled      bool
	probeErr     error
	enableErr    error
	enableCalls  int
	disableCalls int
	probeCalls   int
}

// NewFakeDriver returns a driver rooted at root with the medium present
// and initialized.
func NewFakeDriver(root string) *FakeDriver {
	return &FakeDriver{root: root, present: true, enabled: true}
}

// Probe implements Driver.
func (f *FakeDriver) Probe() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeCalls++
	switch {
	case f.probeErr != nil:
		return f.probeErr
	case !f.present:
		return ErrNotPresent
	case !f.enabled:
		return ErrUninitialized
	}
	return nil
}

// Enable implements Driver.
func (f *FakeDriver) Enable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enableCalls++
	if f.enableErr != nil {
		return f.enableErr
	}
	if !f.present {
		return ErrNotPresent
	}
	f.enabled = true
	return nil
}

// Disable implements Driver.
func (f *FakeDriver) Disable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disableCalls++
	f.enabled = false
	return nil
}

// Root implements Driver.
func (f *FakeDriver) Root() string {
	return f.root
}

// Insert makes the medium present. The driver keeps its enabled state.
func (f *FakeDriver) Insert() {
	f.mu.Lock()
	f.present = true
	f.mu.Unlock()
}

// Remove makes the medium absent.
func (f *FakeDriver) Remove() {
	f.mu.Lock()
	f.present = false
	f.mu.Unlock()
}

// SetUninitialized marks the present medium as needing Enable.
func (f *FakeDriver) SetUninitialized() {
	f.mu.Lock()
	f.enabled = false
	f.mu.Unlock()
}

// FailProbe makes Probe return err until cleared with nil.
func (f *FakeDriver) FailProbe(err error) {
	f.mu.Lock()
	f.probeErr = err
	f.mu.Unlock()
}

// FailEnable makes Enable return err until cleared with nil.
func (f *FakeDriver) FailEnable(err error) {
	f.mu.Lock()
	f.enableErr = err
	f.mu.Unlock()
}

// Calls returns the number of Probe, Enable and Disable calls so far.
func (f *FakeDriver) Calls() (probe, enable, disable int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probeCalls, f.enableCalls, f.disableCalls
}
