package midi

import (
	"fmt"

	"swam-ewi/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// InputPort listens to a controller and hands every decoded message to a
// callback, in arrival order, on the driver's listener goroutine.
type InputPort struct {
	name     string
	port     drivers.In
	stopFunc func()
}

// OpenInput starts listening on port. onError is called if the listener
// fails, which usually means the device went away.
func OpenInput(port drivers.In, handle func(Event), onError func(error)) (*InputPort, error) {
	in := &InputPort{
		name: port.String(),
		port: port,
	}

	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		ev := FromMessage(msg)
		debug.LogEvery(64, "midi-in", "%s", ev)
		handle(ev)
	}, gomidi.HandleError(func(listenErr error) {
		debug.Log("midi-in", "listener error on %s: %v", in.name, listenErr)
		if onError != nil {
			onError(listenErr)
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("open input %q: %w", in.name, err)
	}
	in.stopFunc = stop
	return in, nil
}

func (in *InputPort) Name() string { return in.name }

func (in *InputPort) Close() error {
	if in.stopFunc != nil {
		in.stopFunc()
		in.stopFunc = nil
	}
	return in.port.Close()
}
