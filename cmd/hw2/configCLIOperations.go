package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/divijg19/hw2/internal/config"
)

// printConfig renders the current configuration to stdout.
func printConfig(cfg config.Config, stdout io.Writer) int {
	path, pathErr := config.ConfigPath()
	if pathErr == nil {
		fmt.Fprintf(stdout, "Config file: %s\n\n", path)
	}

	fmt.Fprintln(stdout, "Current configuration")
	for _, key := range config.Keys {
		value, _ := config.Get(cfg, key)
		if value == "" {
			value = "(unset)"
		}
		fmt.Fprintf(stdout, "%-9s %s\n", key+":", value)
	}
	return 0
}

// configureEditor scans for editors and saves the selected one.
func configureEditor(cfg config.Config, stdin io.Reader, stdout, stderr io.Writer) (config.Config, int) {
	editors := editorCandidates()
	if len(editors) == 0 {
		fmt.Fprintln(stderr, "config: no editors found on PATH")
		return cfg, 1
	}

	fmt.Fprintln(stdout, "Available editors:")
	for idx, editor := range editors {
		fmt.Fprintf(stdout, "[%d] %s\n", idx, editor)
	}

	fmt.Fprint(stdout, "Select editor by index: ")
	reader := bufio.NewReader(stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintf(stderr, "config: read: %v\n", err)
		return cfg, 1
	}
	line = strings.TrimSpace(line)
	if line == "" {
		fmt.Fprintln(stderr, "config: no selection provided")
		return cfg, 1
	}
	idx, err := strconv.Atoi(line)
	if err != nil || idx < 0 || idx >= len(editors) {
		fmt.Fprintln(stderr, "config: invalid editor index")
		return cfg, 2
	}

	cfg.Editor = editors[idx]
	return cfg, 0
}

// cmdConfigure handles `hw2 config`.
func cmdConfigure(args []string, stdout, stderr io.Writer) int {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Saving over a file that failed to parse would drop every other key.
		fmt.Fprintf(stderr, "config: %v\n", cfgErr)
		return 1
	}

	switch len(args) {
	case 0:
		return printConfig(cfg, stdout)

	case 1:
		key := strings.TrimPrefix(args[0], "--")
		if key == "editor" {
			var code int
			cfg, code = configureEditor(cfg, os.Stdin, stdout, stderr)
			if code != 0 {
				return code
			}
			break
		}
		value, err := config.Get(cfg, key)
		if err != nil {
			fmt.Fprintf(stderr, "config: %v\n", err)
			return 2
		}
		fmt.Fprintln(stdout, value)
		return 0

	case 2:
		var err error
		cfg, err = config.Set(cfg, strings.TrimPrefix(args[0], "--"), args[1])
		if err != nil {
			fmt.Fprintf(stderr, "config: %v\n", err)
			return 2
		}

	default:
		fmt.Fprintln(stderr, "config: usage: `hw2 config [key] [value]`")
		return 2
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	return printConfig(cfg, stdout)
}
