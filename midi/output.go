package midi

import (
	"fmt"
	"io"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.bug.st/serial"
)

// Output is a downstream sink for mapped events
type Output interface {
	Name() string
	Send(ev Event) error
	Close() error
}

// PortOutput sends to a driver port (virtual bus or hardware interface)
type PortOutput struct {
	name string
	port drivers.Out
	send func(msg gomidi.Message) error
}

// OpenPortOutput opens the port for sending
func OpenPortOutput(port drivers.Out) (*PortOutput, error) {
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", port.String(), err)
	}
	return &PortOutput{name: port.String(), port: port, send: send}, nil
}

func (o *PortOutput) Name() string { return o.name }

func (o *PortOutput) Send(ev Event) error {
	return o.send(ev.Message())
}

func (o *PortOutput) Close() error {
	return o.port.Close()
}

// DefaultSerialBaud is the DIN MIDI bit rate
const DefaultSerialBaud = 31250

// SerialOutput writes raw MIDI bytes to a UART, for a DIN MIDI socket wired
// to a serial port.
type SerialOutput struct {
	name string
	mu   sync.Mutex
	port io.WriteCloser
}

// OpenSerialOutput opens device at baud (DefaultSerialBaud when zero)
func OpenSerialOutput(device string, baud int) (*SerialOutput, error) {
	if baud <= 0 {
		baud = DefaultSerialBaud
	}
	p, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s at %d baud: %w", device, baud, err)
	}
	return newSerialOutput(device, p), nil
}

func newSerialOutput(name string, w io.WriteCloser) *SerialOutput {
	return &SerialOutput{name: name, port: w}
}

func (s *SerialOutput) Name() string { return s.name }

func (s *SerialOutput) Send(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.port.Write(ev.Message().Bytes())
	return err
}

func (s *SerialOutput) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Close()
}
