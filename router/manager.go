// Package router runs the mapping engine between the controller input and
// the synth output.
package router

import (
	"context"
	"sync"

	"swam-ewi/debug"
	"swam-ewi/engine"
	"swam-ewi/midi"
)

// Snapshot is a read-only copy of the router state for display
type Snapshot struct {
	Profile   string
	Family    engine.Family
	ParamName string
	Param     float64
	State     engine.State

	LastIn    midi.Event
	HasLastIn bool
	// CC holds the last value sent per controller number
	CC map[int]int

	Input  string
	Output string

	Received int
	Sent     int
	Errors   int
}

// job is one unit of work for the processing goroutine: an inbound event
// or a command.
type job struct {
	ev   midi.Event
	fn   func()
	done chan struct{}
}

// Manager serialises inbound events and commands through one goroutine so
// that no two mappings ever overlap and output order matches input order.
type Manager struct {
	engine  *engine.Engine
	profile engine.Profile
	out     midi.Output

	jobs    chan job
	stopped chan struct{}

	// lastChannel is the channel the last inbound event arrived on; Panic
	// silences that one.
	lastChannel uint8

	mu   sync.RWMutex // guards snap
	snap Snapshot

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager creates a router around e. out may be nil until a device
// connects; events mapped while there is no output are dropped.
func NewManager(e *engine.Engine, out midi.Output) *Manager {
	p := e.Profile()
	m := &Manager{
		engine:     e,
		profile:    p,
		out:        out,
		jobs:       make(chan job, 256),
		stopped:    make(chan struct{}),
		UpdateChan: make(chan struct{}, 1),
	}
	m.snap = Snapshot{
		Profile:   p.Name,
		Family:    p.Family,
		ParamName: p.Param.Name,
		Param:     e.Parameter(),
		State:     e.State(),
		CC:        make(map[int]int),
	}
	if out != nil {
		m.snap.Output = out.Name()
	}
	return m
}

// Run processes jobs until ctx is cancelled (blocking - run in goroutine)
func (m *Manager) Run(ctx context.Context) {
	defer close(m.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-m.jobs:
			m.process(j)
		}
	}
}

// Submit queues an inbound event. It blocks only if the queue is full and
// returns immediately once Run has stopped.
func (m *Manager) Submit(ev midi.Event) {
	select {
	case m.jobs <- job{ev: ev}:
	case <-m.stopped:
	}
}

// do runs fn on the processing goroutine and waits for it
func (m *Manager) do(fn func()) {
	done := make(chan struct{})
	select {
	case m.jobs <- job{fn: fn, done: done}:
	case <-m.stopped:
		return
	}
	select {
	case <-done:
	case <-m.stopped:
	}
}

// Sync waits until every job queued before it has been processed
func (m *Manager) Sync() {
	m.do(func() {})
}

// SetParameter changes the adjustable parameter (this resets the session)
func (m *Manager) SetParameter(v float64) {
	m.do(func() {
		m.engine.SetParameter(v)
	})
}

// Nudge moves the parameter by n profile steps
func (m *Manager) Nudge(n int) {
	m.do(func() {
		m.engine.SetParameter(m.engine.Parameter() + float64(n)*m.engine.Profile().Param.Step)
	})
}

// Reset restores the default session state without sending anything
func (m *Manager) Reset() {
	m.do(m.engine.Reset)
}

// Panic sends all-notes-off on the last active channel and resets
func (m *Manager) Panic() {
	m.do(func() {
		debug.Log("router", "panic on channel %d", m.lastChannel+1)
		m.send(m.engine.Panic(m.lastChannel))
	})
}

// SetOutput swaps the downstream sink. nil disconnects.
func (m *Manager) SetOutput(out midi.Output) {
	m.do(func() {
		m.out = out
		name := ""
		if out != nil {
			name = out.Name()
		}
		m.mu.Lock()
		m.snap.Output = name
		m.mu.Unlock()
	})
}

func (m *Manager) setInput(name string) {
	m.mu.Lock()
	m.snap.Input = name
	m.mu.Unlock()
	m.notifyUpdate()
}

// WatchDevices applies device hot-plug events until the channel closes or
// ctx is cancelled. Losing the controller triggers a panic so no note is
// left hanging.
func (m *Manager) WatchDevices(ctx context.Context, events <-chan midi.DeviceEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.applyDeviceEvent(ev)
		}
	}
}

func (m *Manager) applyDeviceEvent(ev midi.DeviceEvent) {
	switch {
	case ev.Dir == midi.DirInput && ev.Type == midi.DeviceConnected:
		m.setInput(ev.Name)
	case ev.Dir == midi.DirInput && ev.Type == midi.DeviceDisconnected:
		m.setInput("")
		m.Panic()
	case ev.Dir == midi.DirOutput && ev.Type == midi.DeviceConnected:
		m.SetOutput(ev.Output)
	case ev.Dir == midi.DirOutput && ev.Type == midi.DeviceDisconnected:
		if m.Snapshot().Output == ev.Name {
			m.SetOutput(nil)
		}
	}
}

func (m *Manager) process(j job) {
	if j.fn != nil {
		j.fn()
	} else {
		m.lastChannel = j.ev.Channel
		m.send(m.engine.Handle(j.ev))
		m.mu.Lock()
		m.snap.LastIn = j.ev
		m.snap.HasLastIn = true
		m.snap.Received++
		m.mu.Unlock()
	}
	m.refresh()
	if j.done != nil {
		close(j.done)
	}
	m.notifyUpdate()
}

func (m *Manager) send(events []midi.Event) {
	sent, failed := 0, 0
	for _, ev := range events {
		if m.out == nil {
			break
		}
		if err := m.out.Send(ev); err != nil {
			debug.Logger().Warn("send failed", "cat", "router", "event", ev.String(), "output", m.out.Name(), "err", err)
			failed++
			continue
		}
		sent++
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range events {
		if ev.Kind == midi.KindControlChange {
			m.snap.CC[int(ev.Controller)] = int(ev.Value)
		}
	}
	m.snap.Sent += sent
	m.snap.Errors += failed
}

// refresh copies the engine state into the snapshot
func (m *Manager) refresh() {
	m.mu.Lock()
	m.snap.Param = m.engine.Parameter()
	m.snap.State = m.engine.State()
	m.mu.Unlock()
}

// Profile returns the engine's profile. It never changes.
func (m *Manager) Profile() engine.Profile {
	return m.profile
}

// Snapshot returns a copy of the current state
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snap
	s.CC = make(map[int]int, len(m.snap.CC))
	for k, v := range m.snap.CC {
		s.CC[k] = v
	}
	return s
}

func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}
