package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/divijg19/hw2/internal/config"
	"github.com/divijg19/hw2/internal/core"
)

// DefaultRosterFile is edited when no roster is given or configured.
const DefaultRosterFile = "roster.csv"

const rosterTemplate = `# hw2 roster: one agent per line as name,condition.
# Conditions: cure, healthy, sick, dying, dead. Lines starting with # are ignored.
name,condition
`

// waitFlags holds the flag that keeps a GUI editor attached until the file
// is closed.
var waitFlags = map[string]string{
	"code":          "--wait",
	"code-insiders": "--wait",
	"codium":        "--wait",
	"vscodium":      "--wait",
	"subl":          "--wait",
}

// editorFallbacks are tried, in order, after $VISUAL and $EDITOR.
var editorFallbacks = []string{"nano", "vim", "vi", "nvim", "micro", "emacs", "code", "codium", "subl"}

// resolveEditor splits an editor setting such as "code -n" into a binary
// found on PATH and its arguments.
func resolveEditor(setting string) (string, []string, error) {
	fields := strings.Fields(setting)
	if len(fields) == 0 {
		return "", nil, errors.New("empty editor")
	}
	bin, err := exec.LookPath(fields[0])
	if err != nil {
		return "", nil, err
	}
	args := fields[1:]
	if flag, ok := waitFlags[filepath.Base(bin)]; ok && !slices.Contains(args, flag) {
		args = append(args, flag)
	}
	return bin, args, nil
}

// editorCandidates lists the editor settings that resolve on this machine,
// $VISUAL and $EDITOR first.
func editorCandidates() []string {
	settings := append([]string{os.Getenv("VISUAL"), os.Getenv("EDITOR")}, editorFallbacks...)
	found := make([]string, 0, len(settings))
	for _, setting := range settings {
		setting = strings.TrimSpace(setting)
		if setting == "" || slices.Contains(found, setting) {
			continue
		}
		if _, _, err := resolveEditor(setting); err == nil {
			found = append(found, setting)
		}
	}
	return found
}

// editorCommand builds the command that opens path, preferring the
// configured editor over the detected ones.
func editorCommand(cfg config.Config, path string) (*exec.Cmd, error) {
	setting := strings.TrimSpace(cfg.Editor)
	if setting == "" {
		candidates := editorCandidates()
		if len(candidates) == 0 {
			return nil, errors.New("no editor found: set $VISUAL or $EDITOR, or run `hw2 config editor`")
		}
		setting = candidates[0]
	}
	bin, args, err := resolveEditor(setting)
	if err != nil {
		return nil, fmt.Errorf("editor %q: %w", setting, err)
	}
	return exec.Command(bin, append(args, path)...), nil
}

// EditRoster opens initial in the user's editor and returns the edited text
// together with the agents it parses to.
func EditRoster(cfg config.Config, initial string) (string, []core.Agent, error) {
	file, err := os.CreateTemp("", "hw2-roster-*.csv")
	if err != nil {
		return "", nil, err
	}
	path := file.Name()
	defer func() {
		os.Remove(path)
	}()

	if _, err := file.WriteString(initial); err != nil {
		_ = file.Close()
		return "", nil, err
	}
	if err := file.Close(); err != nil {
		return "", nil, err
	}

	cmd, err := editorCommand(cfg, path)
	if err != nil {
		return "", nil, err
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	agents, err := core.ParseRoster(strings.NewReader(text))
	if err != nil {
		return text, nil, err
	}
	return text, agents, nil
}

// cmdRoster edits a roster file and saves it only when it parses.
func cmdRoster(cfg config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintln(stderr, "roster: usage: `hw2 roster [file]`")
		return 2
	}
	path := cfg.Roster
	if len(args) == 1 {
		path = args[0]
	}
	if strings.TrimSpace(path) == "" {
		path = DefaultRosterFile
	}

	initial := rosterTemplate
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		initial = string(data)
	case errors.Is(err, fs.ErrNotExist):
	default:
		fmt.Fprintf(stderr, "roster: %v\n", err)
		return 1
	}

	text, agents, err := EditRoster(cfg, initial)
	if err != nil {
		fmt.Fprintf(stderr, "roster: %v\n", err)
		if text != "" {
			rejected := path + ".rej"
			if werr := os.WriteFile(rejected, []byte(text), 0o644); werr != nil {
				fmt.Fprintf(stderr, "roster: keep edit: %v\n", werr)
			} else {
				fmt.Fprintf(stderr, "roster: %s left unchanged, edit kept in %s\n", path, rejected)
			}
		}
		return 1
	}

	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		fmt.Fprintf(stderr, "roster: save: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Saved %d agents to %s (%s)\n", len(agents), path, core.FormatCensus(core.Census(agents)))
	return 0
}
