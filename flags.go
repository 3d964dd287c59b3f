package main

import (
	"flag"
	"fmt"

	"swam-ewi/config"
)

type options struct {
	configPath  string
	profile     string
	profileFile string
	in          string
	out         string
	serial      string
	baud        int
	param       float64
	headless    bool
	debug       bool
	save        bool

	// set holds the names of flags given on the command line
	set map[string]bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("swam-ewi", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "config file (default ~/.config/swam-ewi/config.json)")
	fs.StringVar(&o.profile, "profile", "", "built-in profile: cello, bowed, flute, wind")
	fs.StringVar(&o.profileFile, "profile-file", "", "YAML profile override file")
	fs.StringVar(&o.in, "in", "", "input port name pattern")
	fs.StringVar(&o.out, "out", "", "output port name pattern")
	fs.StringVar(&o.serial, "serial", "", "send to this serial device instead of a MIDI port")
	fs.IntVar(&o.baud, "baud", 0, "serial baud rate (default 31250)")
	fs.Float64Var(&o.param, "param", 0, "profile parameter value")
	fs.BoolVar(&o.headless, "headless", false, "run without the TUI")
	fs.BoolVar(&o.debug, "debug", false, "write a debug log to ~/.config/swam-ewi/debug.log")
	fs.BoolVar(&o.save, "save", false, "save the resulting config and continue")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// loadConfig reads the config file and applies flags over it
func loadConfig(o *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	applyFlags(cfg, o)

	if o.save {
		if o.configPath != "" {
			err = cfg.SaveTo(o.configPath)
		} else {
			err = cfg.Save()
		}
		if err != nil {
			return nil, fmt.Errorf("save config: %w", err)
		}
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, o *options) {
	if o.set["profile"] {
		cfg.Profile = o.profile
		cfg.ProfileFile = ""
	}
	if o.set["profile-file"] {
		cfg.ProfileFile = o.profileFile
	}
	if o.set["in"] {
		cfg.Ports.Input = o.in
	}
	if o.set["out"] {
		cfg.Ports.Output = o.out
	}
	if o.set["serial"] {
		cfg.Serial.Device = o.serial
	}
	if o.set["baud"] {
		cfg.Serial.Baud = o.baud
	}
	if o.set["param"] {
		cfg.SetParam(o.param)
	}
	if o.set["headless"] {
		cfg.UI.Headless = o.headless
	}
}
