// Package cmd implements the tl command line application.
package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/google/subcommands"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/csvimport"
	"github.com/zack-schrag/treeline-money-sub002/demo"
	"github.com/zack-schrag/treeline-money-sub002/simplefin"
	"github.com/zack-schrag/treeline-money-sub002/sqlite"
)

// Register wires every command into the commander. A main package calls
// Register once, then Execute on the user-selected command.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")

	c.Register(&syncCmd{}, "sync")
	c.Register(&importCmd{}, "sync")
	c.Register(&demoCmd{}, "sync")

	c.Register(&statusCmd{}, "ledger")
	c.Register(&accountsCmd{}, "ledger")
	c.Register(&txCmd{}, "ledger")
	c.Register(&snapshotCmd{}, "ledger")
	c.Register(&backfillCmd{}, "ledger")
	c.Register(&tagCmd{}, "ledger")

	c.Register(&integrationsCmd{}, "setup")
	c.Register(&backupCmd{}, "setup")

	c.Register(&topicCmd{}, "docs")
	c.Register(&versionCmd{}, "docs")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var dataDirFlag = flag.String("data-dir", "", "Data directory (defaults to $TREELINE_DIR, then ~/.treeline)")

// DataDir resolves the data directory: the -data-dir flag, then the
// TREELINE_DIR environment variable, then ~/.treeline.
func DataDir() string {
	if *dataDirFlag != "" {
		return *dataDirFlag
	}
	if dir := os.Getenv("TREELINE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".treeline"
	}
	return filepath.Join(home, ".treeline")
}

// config is the small on-disk configuration, stored as config.json in the
// data directory.
type config struct {
	DemoMode bool `json:"demoMode"`
}

func configPath() string { return filepath.Join(DataDir(), "config.json") }

// loadConfig reads config.json, returning the zero config when the file is
// missing or unreadable.
func loadConfig() config {
	var cfg config
	b, err := os.ReadFile(configPath())
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return config{}
	}
	return cfg
}

func saveConfig(cfg config) error {
	if err := os.MkdirAll(DataDir(), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(configPath(), append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// demoMode reports whether demo mode is active. The TREELINE_DEMO_MODE
// environment variable overrides the config file, for scripting and tests.
func demoMode() bool {
	switch strings.ToLower(os.Getenv("TREELINE_DEMO_MODE")) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return loadConfig().DemoMode
}

// databasePath is the sqlite file commands open. Demo mode keeps its sample
// data in a separate file so real data is never touched.
func databasePath() string {
	name := "treeline.db"
	if demoMode() {
		name = "demo.db"
	}
	return filepath.Join(DataDir(), name)
}

func openStore() (*sqlite.Store, error) {
	return sqlite.Open(databasePath())
}

// newRegistry assembles the provider set. cached swaps the SimpleFIN client
// for the same-day disk cache.
func newRegistry(cached bool) *treeline.Registry {
	sf := simplefin.New()
	if cached {
		sf = simplefin.NewWithClient(simplefin.CachedClient())
	}
	return treeline.NewRegistry(sf, csvimport.New(), demo.New())
}

func logFilePath() string {
	name := "treeline-" + time.Now().Format("2006-01-02") + ".log"
	return filepath.Join(DataDir(), "logs", name)
}

// runContext attaches the day's file logger to the context. Command output
// stays on stdout; diagnostics go to logs/treeline-YYYY-MM-DD.log. When the
// log file cannot be opened, logging falls back to stderr.
func runContext(ctx context.Context) (context.Context, func()) {
	path := logFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return treeline.WithLogger(ctx, treeline.NewLogger(os.Stderr)), func() {}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return treeline.WithLogger(ctx, treeline.NewLogger(os.Stderr)), func() {}
	}
	return treeline.WithLogger(ctx, treeline.NewFileLogger(f)), func() { _ = f.Close() }
}

// printMarkdown renders markdown to the terminal. On any rendering problem
// the raw markdown prints instead; output never disappears.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

var (
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
)

// warnf prints a highlighted warning line to stderr.
func warnf(format string, args ...any) {
	warnColor.Fprintf(os.Stderr, format, args...)
}

// fail prints the error and points at the day's log file.
func fail(err error) subcommands.ExitStatus {
	errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
	fmt.Fprintf(os.Stderr, "See %s for details\n", logFilePath())
	return subcommands.ExitFailure
}

// usageError prints the message and the command's usage text.
func usageError(f *flag.FlagSet, format string, args ...any) subcommands.ExitStatus {
	errorColor.Fprintf(os.Stderr, format+"\n", args...)
	f.Usage()
	return subcommands.ExitUsageError
}

// confirm asks a yes/no question and reads one line from stdin. Anything
// but an explicit yes declines.
func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(sc.Text()))
	return answer == "y" || answer == "yes"
}

// promptLine asks for one free-form line on stdin, trimmed.
func promptLine(prompt string) string {
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}

// outputJSON prints v as indented JSON, for the -json flags.
func outputJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// findAccount resolves a user-supplied account selector: the exact id, then
// an exact nickname or name match (case-insensitive), then a unique id
// prefix. Ambiguity is an error listing the candidates.
func findAccount(ctx context.Context, store treeline.Store, selector string) (treeline.Account, error) {
	accounts, err := store.Accounts(ctx)
	if err != nil {
		return treeline.Account{}, err
	}

	var matches []treeline.Account
	for _, a := range accounts {
		if a.ID == selector {
			return a, nil
		}
		if strings.EqualFold(a.Nickname, selector) || strings.EqualFold(a.Name, selector) {
			matches = append(matches, a)
		}
	}
	if len(matches) == 0 && len(selector) >= 4 {
		for _, a := range accounts {
			if strings.HasPrefix(a.ID, selector) {
				matches = append(matches, a)
			}
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return treeline.Account{}, fmt.Errorf("no account matches %q (try 'tl accounts')", selector)
	default:
		names := make([]string, 0, len(matches))
		for _, a := range matches {
			names = append(names, fmt.Sprintf("%s (%s)", a.DisplayName(), a.ID))
		}
		return treeline.Account{}, fmt.Errorf("%q is ambiguous: %s", selector, strings.Join(names, ", "))
	}
}
