package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"swam-ewi/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ExcludedPatterns are virtual/system ports that are never auto-connected
var ExcludedPatterns = []string{"Midi Through", "Through Port", "Dummy"}

// DeviceEvent is emitted when the controller input or synth output
// connects or disconnects
type DeviceEvent struct {
	Type   DeviceEventType
	Dir    Direction
	Name   string
	Output Output // set for a connected output
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// Direction tells inputs from outputs
type Direction int

const (
	DirInput Direction = iota
	DirOutput
)

func (d Direction) String() string {
	if d == DirOutput {
		return "out"
	}
	return "in"
}

// DeviceManager handles hot-plug of the wind controller input and the
// synth output
type DeviceManager struct {
	inPattern  string
	outPattern string
	handle     func(Event)

	input  *InputPort
	output *PortOutput
	mu     sync.RWMutex

	events   chan DeviceEvent
	pollRate time.Duration
	lost     chan string
}

// NewDeviceManager watches for an input whose name contains inPattern and
// an output whose name contains outPattern. An empty outPattern disables
// output management (e.g. when sending over serial). handle receives every
// inbound event.
func NewDeviceManager(inPattern, outPattern string, handle func(Event)) *DeviceManager {
	return &DeviceManager{
		inPattern:  inPattern,
		outPattern: outPattern,
		handle:     handle,
		events:     make(chan DeviceEvent, 16),
		pollRate:   time.Second,
		lost:       make(chan string, 1),
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case name := <-dm.lost:
			dm.dropInput(ctx, name)
		case <-ticker.C:
			dm.scan(ctx)
		}
	}
}

// ListPorts returns the names of all input and output ports. CoreMIDI can
// hang, so it gives up after timeout and reports ok=false.
func ListPorts(timeout time.Duration) (ins []drivers.In, outs []drivers.Out, ok bool) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	select {
	case result := <-ch:
		return result.inPorts, result.outPorts, true
	case <-time.After(timeout):
		return nil, nil, false
	}
}

func (dm *DeviceManager) scan(ctx context.Context) {
	inPorts, outPorts, ok := ListPorts(3 * time.Second)
	if !ok {
		// User needs to run: sudo killall coreaudiod midiserver
		debug.Log("devices", "port scan timed out")
		return
	}

	inNames := make([]string, len(inPorts))
	for i, p := range inPorts {
		inNames[i] = p.String()
	}
	outNames := make([]string, len(outPorts))
	for i, p := range outPorts {
		outNames[i] = p.String()
	}

	dm.scanInput(ctx, inPorts, inNames)
	if dm.outPattern != "" {
		dm.scanOutput(ctx, outPorts, outNames)
	}
}

func (dm *DeviceManager) scanInput(ctx context.Context, ports []drivers.In, names []string) {
	dm.mu.RLock()
	current := dm.input
	dm.mu.RUnlock()

	if current != nil {
		if !contains(names, current.Name()) {
			dm.dropInput(ctx, current.Name())
		}
		return
	}

	idx := PickPort(names, dm.inPattern)
	if idx < 0 {
		return
	}
	name := names[idx]
	in, err := OpenInput(ports[idx], dm.handle, func(error) {
		// Must not close from the listener goroutine; let Run do it.
		select {
		case dm.lost <- name:
		default:
		}
	})
	if err != nil {
		debug.Log("devices", "connect input failed: %v", err)
		return
	}

	dm.mu.Lock()
	dm.input = in
	dm.mu.Unlock()
	debug.Log("devices", "input connected: %s", name)
	dm.emit(ctx, DeviceEvent{Type: DeviceConnected, Dir: DirInput, Name: name})
}

func (dm *DeviceManager) dropInput(ctx context.Context, name string) {
	dm.mu.Lock()
	in := dm.input
	if in == nil || in.Name() != name {
		dm.mu.Unlock()
		return
	}
	dm.input = nil
	dm.mu.Unlock()

	in.Close()
	debug.Log("devices", "input disappeared: %s", name)
	dm.emit(ctx, DeviceEvent{Type: DeviceDisconnected, Dir: DirInput, Name: name})
}

func (dm *DeviceManager) scanOutput(ctx context.Context, ports []drivers.Out, names []string) {
	dm.mu.RLock()
	current := dm.output
	dm.mu.RUnlock()

	if current != nil {
		if contains(names, current.Name()) {
			return
		}
		dm.mu.Lock()
		dm.output = nil
		dm.mu.Unlock()
		current.Close()
		debug.Log("devices", "output disappeared: %s", current.Name())
		dm.emit(ctx, DeviceEvent{Type: DeviceDisconnected, Dir: DirOutput, Name: current.Name()})
		return
	}

	idx := PickPort(names, dm.outPattern)
	if idx < 0 {
		return
	}
	out, err := OpenPortOutput(ports[idx])
	if err != nil {
		debug.Log("devices", "connect output failed: %v", err)
		return
	}

	dm.mu.Lock()
	dm.output = out
	dm.mu.Unlock()
	debug.Log("devices", "output connected: %s", out.Name())
	dm.emit(ctx, DeviceEvent{Type: DeviceConnected, Dir: DirOutput, Name: out.Name(), Output: out})
}

// emit reports ev unless ctx ends first; nobody may be reading once the
// caller has shut down.
func (dm *DeviceManager) emit(ctx context.Context, ev DeviceEvent) bool {
	select {
	case dm.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.input != nil {
		dm.input.Close()
		dm.input = nil
	}
	if dm.output != nil {
		dm.output.Close()
		dm.output = nil
	}
}

// PickPort returns the index of the first port whose name contains pattern
// (case-insensitive), skipping excluded system ports. With an empty
// pattern the only remaining port is picked. Returns -1 if nothing fits.
func PickPort(names []string, pattern string) int {
	var candidates []int
	for i, name := range names {
		if isExcluded(name) {
			continue
		}
		if pattern == "" || containsCI(name, pattern) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return -1
	}
	if pattern == "" && len(candidates) > 1 {
		return -1
	}
	return candidates[0]
}

func isExcluded(name string) bool {
	for _, pat := range ExcludedPatterns {
		if containsCI(name, pat) {
			return true
		}
	}
	return false
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
