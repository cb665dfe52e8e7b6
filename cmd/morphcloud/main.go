// Command morphcloud shows a particle cloud that morphs between Saturn and
// a heart as you open and close your hand in front of the webcam.
//
// Usage:
//
//	morphcloud [window|term|serve|snapshot|run] [flags]
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ayusman/morphcloud/internal/config"
)

// commands lists the subcommands; the first is the default.
var commands = []string{"window", "term", "serve", "snapshot", "run"}

// options holds every flag of every subcommand.
type options struct {
	command string

	configPath string
	flags      config.Flags

	tray     bool
	blend    float64
	yaw      float64
	out      string
	headless bool
	ticks    int
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	switch opts.command {
	case "window":
		err = runWindow(cfg)
	case "term":
		err = runTerm(cfg)
	case "serve":
		err = runServe(cfg, opts.tray)
	case "snapshot":
		err = runSnapshot(cfg, opts.blend, opts.yaw, opts.out)
	case "run":
		if opts.headless {
			err = runHeadless(cfg, opts.ticks)
		} else {
			err = runWindow(cfg)
		}
	}
	if err != nil {
		log.Fatalf("%s: %v", opts.command, err)
	}
}

// parseArgs splits off the subcommand and parses its flags.
func parseArgs(args []string, output io.Writer) (options, error) {
	opts := options{command: commands[0]}
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		opts.command = args[0]
		args = args[1:]
	}

	known := false
	for _, c := range commands {
		known = known || c == opts.command
	}
	if !known {
		return opts, fmt.Errorf("unknown command %q (want one of %s)", opts.command, strings.Join(commands, ", "))
	}

	fs := flag.NewFlagSet("morphcloud "+opts.command, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	fs.IntVar(&opts.flags.CameraID, "camera", -1, "camera device id")
	fs.StringVar(&opts.flags.DataDir, "data", "", "data directory (default ~/.morphcloud)")
	fs.BoolVar(&opts.flags.Sound, "sound", false, "play a chime when the shape changes")

	switch opts.command {
	case "serve":
		fs.StringVar(&opts.flags.Addr, "addr", "", "listen address")
		fs.StringVar(&opts.flags.StaticDir, "static", "", "web client directory")
		fs.BoolVar(&opts.tray, "tray", false, "show a system tray icon")
	case "snapshot":
		fs.Float64Var(&opts.blend, "blend", 0, "blend to render, 0 Saturn to 1 heart")
		fs.Float64Var(&opts.yaw, "yaw", 0, "camera yaw in radians")
		fs.StringVar(&opts.out, "out", "", "output .webp path (default: snapshots dir, indexed)")
	case "run":
		fs.BoolVar(&opts.headless, "headless", false, "tick without a window")
		fs.IntVar(&opts.ticks, "ticks", 0, "ticks to run in headless mode, 0 until interrupted")
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.blend < 0 || opts.blend > 1 {
		return opts, fmt.Errorf("-blend must be in [0, 1], got %g", opts.blend)
	}
	if opts.ticks < 0 {
		return opts, fmt.Errorf("-ticks must not be negative, got %d", opts.ticks)
	}
	return opts, nil
}

// loadConfig reads the config file, or the defaults when none is given, and
// applies flag overrides.
func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, err
		}
	}
	cfg.Resolve(opts.flags)
	return cfg, nil
}
