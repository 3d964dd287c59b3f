package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"swam-ewi/engine"
	"swam-ewi/midi"
)

// command is one parsed line of a map script
type command struct {
	event    midi.Event
	isEvent  bool
	param    float64
	setParam bool
	reset    bool
}

// parseLine reads "cc <num> <val>", "on <pitch> <vel>", "off <pitch>",
// "param <value>" or "reset". An optional trailing "ch=<1-16>" sets the
// channel. Blank lines and lines starting with # yield ok=false.
func parseLine(line string) (cmd command, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return command{}, false, nil
	}
	fields := strings.Fields(line)

	var ch uint8
	if last := fields[len(fields)-1]; strings.HasPrefix(last, "ch=") {
		n, err := strconv.Atoi(strings.TrimPrefix(last, "ch="))
		if err != nil || n < 1 || n > 16 {
			return command{}, false, fmt.Errorf("bad channel %q", last)
		}
		ch = uint8(n - 1)
		fields = fields[:len(fields)-1]
		if len(fields) == 0 {
			return command{}, false, fmt.Errorf("channel without a command")
		}
	}

	ints := func(want int) ([]int, error) {
		if len(fields)-1 != want {
			return nil, fmt.Errorf("%s takes %d arguments", fields[0], want)
		}
		out := make([]int, want)
		for i := range out {
			v, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fields[0], err)
			}
			if v < 0 || v > 127 {
				return nil, fmt.Errorf("%s: %d out of range 0-127", fields[0], v)
			}
			out[i] = v
		}
		return out, nil
	}

	switch strings.ToLower(fields[0]) {
	case "cc":
		v, err := ints(2)
		if err != nil {
			return command{}, false, err
		}
		return command{event: midi.CC(ch, v[0], v[1]), isEvent: true}, true, nil
	case "on":
		v, err := ints(2)
		if err != nil {
			return command{}, false, err
		}
		return command{event: midi.NoteOn(ch, v[0], v[1]), isEvent: true}, true, nil
	case "off":
		v, err := ints(1)
		if err != nil {
			return command{}, false, err
		}
		return command{event: midi.NoteOff(ch, v[0]), isEvent: true}, true, nil
	case "param":
		if len(fields) != 2 {
			return command{}, false, fmt.Errorf("param takes 1 argument")
		}
		f, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return command{}, false, fmt.Errorf("param: %w", err)
		}
		return command{param: f, setParam: true}, true, nil
	case "reset":
		return command{reset: true}, true, nil
	}
	return command{}, false, fmt.Errorf("unknown command %q", fields[0])
}

// runScript feeds every line to e and prints what would be sent. Bad lines
// are reported and skipped.
func runScript(e *engine.Engine, sc *bufio.Scanner, w io.Writer) error {
	lineNo := 0
	for sc.Scan() {
		lineNo++
		cmd, ok, err := parseLine(sc.Text())
		if err != nil {
			fmt.Fprintf(w, "line %d: %v\n", lineNo, err)
			continue
		}
		if !ok {
			continue
		}
		switch {
		case cmd.isEvent:
			fmt.Fprintf(w, "< %s\n", cmd.event)
			for _, out := range e.Handle(cmd.event) {
				fmt.Fprintf(w, "> %s\n", out)
			}
		case cmd.setParam:
			e.SetParameter(cmd.param)
			fmt.Fprintf(w, "= %s %v\n", e.Profile().Param.Name, e.Parameter())
		case cmd.reset:
			e.Reset()
			fmt.Fprintln(w, "= reset")
		}
	}
	return sc.Err()
}
