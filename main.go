package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"swam-ewi/config"
	"swam-ewi/debug"
	"swam-ewi/engine"
	"swam-ewi/midi"
	"swam-ewi/router"
	"swam-ewi/theme"
	"swam-ewi/tui"
)

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err == flag.ErrHelp {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	if opts.debug {
		if err := debug.Enable(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer debug.Disable()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	p, err := resolveProfile(cfg)
	if err != nil {
		return err
	}
	e, err := engine.New(p)
	if err != nil {
		return err
	}
	if cfg.Param != nil {
		e.SetParameter(*cfg.Param)
	}

	// Serial output is fixed for the run; port outputs come and go with
	// the device manager.
	var out midi.Output
	outPattern := cfg.Ports.Output
	if cfg.Serial.Device != "" {
		s, err := midi.OpenSerialOutput(cfg.Serial.Device, cfg.Serial.Baud)
		if err != nil {
			return err
		}
		defer s.Close()
		out = s
		outPattern = ""
	}

	r := router.NewManager(e, out)
	deviceMgr := midi.NewDeviceManager(cfg.Ports.Input, outPattern, r.Submit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)
	go deviceMgr.Run(ctx)
	go r.WatchDevices(ctx, deviceMgr.Events())

	debug.Log("main", "profile %s, param %v, in %q, out %q, serial %q",
		p.Name, e.Parameter(), cfg.Ports.Input, outPattern, cfg.Serial.Device)

	if cfg.UI.Headless {
		fmt.Printf("swam-ewi: %s profile, waiting for %q. Ctrl+C to exit.\n", p.Name, cfg.Ports.Input)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		r.Panic()
		return nil
	}

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		debug.Log("main", "palette: %v, using default", err)
	}
	m := tui.NewModel(r, theme.New(palette))
	prog := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return err
	}
	return nil
}

// resolveProfile picks the YAML override file when set, else a built-in
func resolveProfile(cfg *config.Config) (engine.Profile, error) {
	if cfg.ProfileFile != "" {
		return engine.LoadProfile(cfg.ProfileFile)
	}
	return engine.ProfileByName(cfg.Profile)
}
