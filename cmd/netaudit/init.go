package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"netaudit/internal/config"
)

// runInit writes a default config file
func runInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("netaudit init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", "", "path of the new config file (default: user config dir)")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	target := *path
	if target == "" {
		target = config.DefaultConfigPath()
	}
	if _, err := os.Stat(target); err == nil && !*force {
		fmt.Fprintf(stderr, "netaudit: %s already exists (use -force to overwrite)\n", target)
		return 1
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(target); err != nil {
		fmt.Fprintf(stderr, "netaudit: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote %s\n%s\n", target, cfg.Summary())
	return 0
}
