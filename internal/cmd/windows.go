package cmd

import (
	"flag"
	"fmt"
	"io"
)

func newWindowsCommand() command {
	return command{
		name:        "windows",
		description: "List visible windows that can be used as a record target",
		run: func(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
			windows, err := listWindows()
			if err != nil {
				return fmt.Errorf("list windows: %w", err)
			}
			if len(windows) == 0 {
				fmt.Fprintln(stdout, "No visible windows found")
				return nil
			}
			fmt.Fprintf(stdout, "%-12s %s\n", "ID", "TITLE")
			for _, w := range windows {
				fmt.Fprintf(stdout, "%-12d %s\n", w.ID, w.Title)
			}
			return nil
		},
	}
}
