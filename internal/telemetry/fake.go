package telemetry

import "sync"

// FakePublisher records published events for tests.
type FakePublisher struct {
	mu     sync.Mutex
	Events []CycleEvent
	Err    error
	Closed bool
}

func (f *FakePublisher) PublishCycle(event CycleEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}

	f.Events = append(f.Events, event)
	return nil
}

func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true
	return nil
}

// Published returns a copy of the events published so far.
func (f *FakePublisher) Published() []CycleEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]CycleEvent, len(f.Events))
	copy(out, f.Events)
	return out
}
