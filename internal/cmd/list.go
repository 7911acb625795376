package cmd

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/offlinefirst/actionrec/pkg/manifest"
)

func newListCommand() command {
	return command{
		name:        "list",
		description: "List recordings in the recordings directory",
		run:         runList,
	}
}

func runList(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}
	dir := ctx.Config.Paths.RecordingsDir
	entries, err := manifest.List(dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(stdout, "No recordings in %s\n", dir)
		return nil
	}

	fmt.Fprintf(stdout, "Recordings in %s:\n", dir)
	for _, entry := range entries {
		fmt.Fprintf(stdout, "  %-28s %8d bytes  %s", entry.Name, entry.Size, entry.ModTime.UTC().Format(time.RFC3339))
		if man := entry.Manifest; man != nil {
			fmt.Fprintf(stdout, "  %s: %s", man.Status.State, man.Status.Summary)
			if man.Target != nil && man.Target.Title != "" {
				fmt.Fprintf(stdout, " [%s]", man.Target.Title)
			}
		}
		fmt.Fprintln(stdout)
	}
	return nil
}
