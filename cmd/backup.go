package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/subcommands"

	"github.com/zack-schrag/treeline-money-sub002/sqlite"
)

type backupCmd struct{}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "back up the database, or list existing backups" }
func (*backupCmd) Usage() string {
	return `tl backup [list]

  Writes a consistent copy of the database into backups/ under the data
  directory, keeping the most recent 7. 'list' shows what is there.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {}

func (c *backupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	dir := filepath.Join(DataDir(), "backups")

	switch action := f.Arg(0); action {
	case "", "create":
		store, err := openStore()
		if err != nil {
			return fail(err)
		}
		defer store.Close()

		ctx, closeLog := runContext(ctx)
		defer closeLog()

		path, err := store.Backup(ctx, dir)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("Backup written to %s (keeping the most recent %d)\n", path, sqlite.MaxBackups)
		return subcommands.ExitSuccess

	case "list":
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			fmt.Println("No backups yet. Run 'tl backup' to create one.")
			return subcommands.ExitSuccess
		}
		if err != nil {
			return fail(err)
		}

		var names []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".db") {
				names = append(names, e.Name())
			}
		}
		if len(names) == 0 {
			fmt.Println("No backups yet. Run 'tl backup' to create one.")
			return subcommands.ExitSuccess
		}
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
		for _, name := range names {
			full := filepath.Join(dir, name)
			if info, err := os.Stat(full); err == nil {
				fmt.Printf("%s  %d bytes\n", full, info.Size())
			} else {
				fmt.Println(full)
			}
		}
		return subcommands.ExitSuccess

	default:
		return usageError(f, "unknown action %q (create, list)", f.Arg(0))
	}
}
