package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"swam-ewi/engine"
	"swam-ewi/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "detect":
		detect(arg(2, "EWI"), arg(3, "IAC"))
	case "monitor":
		monitor(arg(2, "EWI"))
	case "poll":
		pollDevices()
	case "map":
		if err := mapStdin(arg(2, "cello")); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		usage()
	}
}

func arg(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                  - List all MIDI ports")
	fmt.Println("  detect [in] [out]     - Find the controller and synth ports")
	fmt.Println("  monitor [in]          - Print decoded input events")
	fmt.Println("  poll                  - Poll for device changes")
	fmt.Println("  map [profile]         - Map text events from stdin (cc 2 100, on 60 90, off 60, param 0.5, reset)")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ins, outs, ok := midi.ListPorts(3 * time.Second)
	if !ok {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func detect(inPattern, outPattern string) {
	fmt.Printf("Looking for input %q and output %q...\n", inPattern, outPattern)

	ins, outs, ok := midi.ListPorts(3 * time.Second)
	if !ok {
		fmt.Println("TIMEOUT! CoreMIDI is hung.")
		return
	}

	inNames := make([]string, len(ins))
	for i, p := range ins {
		inNames[i] = p.String()
	}
	outNames := make([]string, len(outs))
	for i, p := range outs {
		outNames[i] = p.String()
	}

	if i := midi.PickPort(inNames, inPattern); i >= 0 {
		fmt.Printf("Found input: %d: %s\n", i, inNames[i])
	} else {
		fmt.Println("Input not found")
	}
	if i := midi.PickPort(outNames, outPattern); i >= 0 {
		fmt.Printf("Found output: %d: %s\n", i, outNames[i])
	} else {
		fmt.Println("Output not found")
	}
}

func monitor(pattern string) {
	ins, _, ok := midi.ListPorts(3 * time.Second)
	if !ok {
		fmt.Println("TIMEOUT! CoreMIDI is hung.")
		return
	}
	names := make([]string, len(ins))
	for i, p := range ins {
		names[i] = p.String()
	}
	idx := midi.PickPort(names, pattern)
	if idx < 0 {
		fmt.Printf("No input matching %q\n", pattern)
		return
	}

	in, err := midi.OpenInput(ins[idx], func(ev midi.Event) {
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), ev)
	}, func(err error) {
		fmt.Printf("Listener error: %v\n", err)
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer in.Close()

	fmt.Printf("Listening on %s. Ctrl+C to exit.\n", in.Name())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect the controller to test. Ctrl+C to exit.")

	lastIn := ""
	lastOut := ""

	for {
		ins, outs, ok := midi.ListPorts(3 * time.Second)
		if !ok {
			fmt.Println("TIMEOUT! CoreMIDI is hung.")
			return
		}

		var inNames, outNames []string
		for _, p := range ins {
			inNames = append(inNames, p.String())
		}
		for _, p := range outs {
			outNames = append(outNames, p.String())
		}

		currentIn := strings.Join(inNames, ",")
		currentOut := strings.Join(outNames, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			fmt.Printf("  Outputs: %v\n", outNames)

			if midi.PickPort(inNames, "EWI") >= 0 {
				fmt.Println("  -> EWI detected!")
			}

			lastIn = currentIn
			lastOut = currentOut
		}

		time.Sleep(2 * time.Second)
	}
}

func mapStdin(profile string) error {
	p, err := engine.ProfileByName(profile)
	if err != nil {
		return err
	}
	e, err := engine.New(p)
	if err != nil {
		return err
	}
	return runScript(e, bufio.NewScanner(os.Stdin), os.Stdout)
}
