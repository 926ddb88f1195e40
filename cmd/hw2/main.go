package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/divijg19/hw2/internal/config"
	"github.com/divijg19/hw2/internal/core"
	"github.com/divijg19/hw2/internal/morse"
	"github.com/divijg19/hw2/internal/storage"
)

// Version is the current CLI version string.
const Version = "v0.2"

// PrintHelp prints the CLI usage and examples.
func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `hw2: Morse transliteration and agent meetup simulation

Usage:
  hw2 <command> [args]

Commands:
  help, h        Show this help or detailed help for a command
  version, -v    Show version
  morse, m       Transliterate a text file into Morse code
  meetup, u      Run a single meetup step over a roster
  simulate, s    Run meetups until the population settles and store the run
  history, y     List stored runs or show one step by step
  forget, f      Delete a stored run
  roster, r      Edit a roster file in your editor
  config, c      View and edit defaults

Syntax:
  hw2 morse [input] [output]
  hw2 meetup [roster]
  hw2 simulate [roster] [steps]
  hw2 history [run-id | last]
  hw2 forget <run-id>
  hw2 config [key] [value]

Examples:
  hw2 morse
  hw2 meetup agents.csv
  hw2 simulate agents.csv 10
  hw2 history last

For detailed help on a command:
  hw2 help <command>
`)
}

// openStore opens the SQLite-backed store and returns a close function.
func openStore(cfg config.Config) (*storage.Store, func(), error) {
	dbPath := strings.TrimSpace(cfg.DBPath)
	if dbPath == "" {
		var err error
		dbPath, err = storage.ResolveDBPath()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	sqlDB, err := storage.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}

	st, err := storage.New(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("new store: %w", err)
	}

	closeFn := func() {
		_ = sqlDB.Close()
	}
	return st, closeFn, nil
}

// loadRoster reads agents from path, falling back to the configured roster.
func loadRoster(cfg config.Config, args []string) (string, []core.Agent, error) {
	path := cfg.Roster
	if len(args) > 0 {
		path = args[0]
	}
	if strings.TrimSpace(path) == "" {
		return "", nil, fmt.Errorf("no roster given and none configured")
	}
	file, err := os.Open(path)
	if err != nil {
		return path, nil, err
	}
	defer file.Close()

	agents, err := core.ParseRoster(file)
	if err != nil {
		return path, nil, fmt.Errorf("%s: %w", path, err)
	}
	return path, agents, nil
}

// cmdMorse transliterates the input file into the output file.
func cmdMorse(cfg config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) > 2 {
		fmt.Fprintln(stderr, "morse: usage: `hw2 morse [input] [output]`")
		return 2
	}
	input := config.InputFile(cfg)
	output := config.OutputFile(cfg)
	if len(args) > 0 {
		input = args[0]
	}
	if len(args) > 1 {
		output = args[1]
	}

	if err := morse.TransliterateFile(input, output); err != nil {
		fmt.Fprintf(stderr, "morse: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Wrote %s\n", output)
	return 0
}

// cmdMeetup runs one meetup over a roster and prints the resulting population.
func cmdMeetup(cfg config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintln(stderr, "meetup: usage: `hw2 meetup [roster]`")
		return 2
	}
	_, agents, err := loadRoster(cfg, args)
	if err != nil {
		fmt.Fprintf(stderr, "meetup: %v\n", err)
		return 1
	}

	updated, err := core.Meetup(agents)
	if err != nil {
		fmt.Fprintf(stderr, "meetup: %v\n", err)
		return 1
	}

	fmt.Fprint(stdout, core.FormatAgents(updated))
	return 0
}

// cmdSimulate runs meetups until the population settles and stores every step.
func cmdSimulate(cfg config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) > 2 {
		fmt.Fprintln(stderr, "simulate: usage: `hw2 simulate [roster] [steps]`")
		return 2
	}
	maxSteps := config.MaxSteps(cfg)
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			fmt.Fprintln(stderr, "simulate: invalid steps")
			return 2
		}
		maxSteps = n
	}

	path, agents, err := loadRoster(cfg, args)
	if err != nil {
		fmt.Fprintf(stderr, "simulate: %v\n", err)
		return 1
	}

	history, simErr := core.Simulate(agents, maxSteps)

	st, closeDB, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "simulate: %v\n", err)
		return 1
	}
	defer closeDB()

	id, err := st.CreateRun(path, history[0])
	if err != nil {
		fmt.Fprintf(stderr, "simulate: %v\n", err)
		return 1
	}
	for step := 1; step < len(history); step++ {
		if err := st.AppendStep(id, step, history[step]); err != nil {
			fmt.Fprintf(stderr, "simulate: %v\n", err)
			return 1
		}
	}
	if err := st.SetLastRunID(id); err != nil {
		slog.Warn("could not remember last run", "run", id, "err", err)
	}

	for step, snapshot := range history {
		fmt.Fprintf(stdout, "step %-3d %s\n", step, core.FormatCensus(core.Census(snapshot)))
	}
	fmt.Fprintf(stdout, "Saved run %s\n", id)

	if simErr != nil {
		fmt.Fprintf(stderr, "simulate: %v\n", simErr)
		return 1
	}
	return 0
}

// cmdHistory lists stored runs or shows one run step by step.
func cmdHistory(cfg config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintln(stderr, "history: usage: `hw2 history [run-id | last]`")
		return 2
	}

	st, closeDB, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "history: %v\n", err)
		return 1
	}
	defer closeDB()

	if len(args) == 0 {
		runs, err := st.ListRunsByPagination(20, 0)
		if err != nil {
			fmt.Fprintf(stderr, "history: %v\n", err)
			return 1
		}
		if len(runs) == 0 {
			fmt.Fprintln(stdout, "No runs yet.")
			return 0
		}
		fmt.Fprintf(stdout, "%-36s %-5s %-17s %s\n", "ID", "STEPS", "CREATED", "ROSTER")
		for _, run := range runs {
			fmt.Fprintf(stdout, "%-36s %-5d %-17s %s\n",
				run.ID,
				run.Steps,
				run.CreatedAt.UTC().Format("2006-01-02 15:04"),
				run.Label,
			)
		}
		return 0
	}

	id, err := resolveRun(st, args[0])
	if err != nil {
		fmt.Fprintf(stderr, "history: %v\n", err)
		return 1
	}

	run, snapshots, err := st.GetRun(id)
	if err != nil {
		fmt.Fprintf(stderr, "history: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Run %s  (%s, %d steps)\n", run.ID, run.Label, run.Steps)
	fmt.Fprintf(stdout, "Created: %s\n", run.CreatedAt.UTC().Format("2006-01-02 15:04Z"))
	for step, snapshot := range snapshots {
		fmt.Fprintln(stdout)
		fmt.Fprintf(stdout, "STEP %d  %s\n", step, core.FormatCensus(core.Census(snapshot)))
		fmt.Fprint(stdout, core.FormatAgents(snapshot))
	}
	return 0
}

// resolveRun accepts "last", a full run ID or a unique ID prefix.
func resolveRun(st *storage.Store, ref string) (uuid.UUID, error) {
	if strings.EqualFold(strings.TrimSpace(ref), "last") {
		return st.LastRunID()
	}
	return st.ResolveRunID(ref)
}

// cmdForget permanently removes a stored run.
func cmdForget(cfg config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "forget: usage: `hw2 forget <run-id>`")
		return 2
	}

	st, closeDB, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "forget: %v\n", err)
		return 1
	}
	defer closeDB()

	id, err := resolveRun(st, args[0])
	if err != nil {
		fmt.Fprintf(stderr, "forget: %v\n", err)
		return 1
	}
	if err := st.DeleteRun(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(stderr, "forget: no run %s\n", args[0])
			return 1
		}
		fmt.Fprintf(stderr, "forget: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Forgot run %s.\n", id)
	return 0
}

func cmdHelp(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		PrintHelp(stdout)
		return 0
	}

	switch strings.TrimPrefix(args[0], "--") {
	case "morse", "m":
		fmt.Fprint(stdout, `hw2 morse - transliterate text into Morse code

Description:
  Reads a UTF-8 text file and writes its Morse encoding. Every word of a line
  is upper-cased, each symbol is replaced by its code with no separator, and
  each encoded word is written on its own line. Symbols outside A-Z, 0-9 and
  . , : ' - are dropped.

Syntax:
  hw2 morse [input] [output]

Defaults:
  input  lorem.txt
  output lorem_morse.txt

`)

	case "meetup", "u":
		fmt.Fprint(stdout, `hw2 meetup - run one meetup step

Description:
  Healthy and dead agents are listed first, unchanged. The remaining agents
  meet in pairs in roster order: a cure heals its partner, any other pair
  worsens both. An odd agent out is left as it is.

Syntax:
  hw2 meetup [roster]

Roster format (CSV):
  name,condition
  Ana,sick
  Bo,cure

`)

	case "simulate", "s":
		fmt.Fprint(stdout, `hw2 simulate - run meetups until the population settles

Description:
  Repeats meetups until fewer than two agents are active or the step limit
  is reached, prints the census of every step and stores the run.

Syntax:
  hw2 simulate [roster] [steps]

`)

	case "history", "y":
		fmt.Fprint(stdout, `hw2 history - inspect stored runs

Syntax:
  hw2 history
  hw2 history <run-id | prefix | last>

`)

	case "forget", "f":
		fmt.Fprint(stdout, `hw2 forget - delete a stored run

Syntax:
  hw2 forget <run-id | prefix | last>

`)

	case "roster", "r":
		fmt.Fprint(stdout, `hw2 roster - edit a roster in your editor

Description:
  Opens the roster in the configured editor and saves it only if it parses.

Syntax:
  hw2 roster [file]

`)

	case "config", "c":
		fmt.Fprint(stdout, `hw2 config - view and configure defaults

Syntax:
  hw2 config
  hw2 config <key>
  hw2 config <key> <value>
  hw2 config editor

Keys:
  input, output, roster, dbPath, maxSteps, logLevel, editor

`)

	default:
		fmt.Fprintf(stderr, "No help available for: %s\n", args[0])
		PrintHelp(stderr)
		return 2
	}
	return 0
}

// setupLogging installs a text slog handler on stderr at the configured level.
func setupLogging(cfg config.Config, stderr io.Writer) {
	handler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: config.LogLevel(cfg)})
	slog.SetDefault(slog.New(handler))
}

// run dispatches CLI commands to their handlers and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		PrintHelp(stdout)
		return 0
	}

	cfg, cfgErr := config.Load()
	setupLogging(cfg, stderr)
	if cfgErr != nil {
		slog.Warn("using default configuration", "err", cfgErr)
	}

	cmd := args[0]
	rest := args[1:]

	switch cmd {
	case "help", "h":
		return cmdHelp(rest, stdout, stderr)
	case "version", "-v":
		fmt.Fprintln(stdout, "hw2 "+Version)
		return 0
	case "morse", "m":
		return cmdMorse(cfg, rest, stdout, stderr)
	case "meetup", "u":
		return cmdMeetup(cfg, rest, stdout, stderr)
	case "simulate", "s":
		return cmdSimulate(cfg, rest, stdout, stderr)
	case "history", "y":
		return cmdHistory(cfg, rest, stdout, stderr)
	case "forget", "f":
		return cmdForget(cfg, rest, stdout, stderr)
	case "roster", "r":
		return cmdRoster(cfg, rest, stdout, stderr)
	case "configure", "config", "c":
		return cmdConfigure(rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		PrintHelp(stderr)
		return 2
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
