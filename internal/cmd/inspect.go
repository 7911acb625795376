package cmd

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/offlinefirst/actionrec/pkg/activity"
	"github.com/offlinefirst/actionrec/pkg/recording"
	"github.com/offlinefirst/actionrec/pkg/replay"
)

func newInspectCommand() command {
	return command{
		name:        "inspect",
		description: "Summarise the events in a recording",
		skipInit:    true,
		args:        " <recording.json>",
		configure: func(fs *flag.FlagSet) {
			fs.Duration("bucket", activity.DefaultInterval, "Width of the activity buckets")
			fs.Bool("json", false, "Print the summary as JSON")
		},
		run: runInspect,
	}
}

func runInspect(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if len(args) != 1 {
		return errors.New("inspect requires exactly one recording path")
	}
	path := args[0]
	if err := replay.Locate(path); err != nil {
		return err
	}
	events, err := recording.ReadFile(path)
	if err != nil {
		return err
	}
	summary, err := activity.Summarize(events, durationFlag(fs, "bucket"))
	if err != nil {
		return err
	}

	if boolFlag(fs, "json") {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Fprintf(stdout, "%s: %d events over %.3fs (longest pause %.3fs)\n", path, summary.Events, summary.Duration, summary.LongestGap)
	for _, kind := range []recording.Kind{recording.KeyPress, recording.KeyRelease, recording.MouseMove, recording.MouseClick, recording.MouseScroll} {
		if n := summary.Kinds[kind]; n > 0 {
			fmt.Fprintf(stdout, "  %-13s %d\n", kind, n)
		}
	}
	if top := summary.TopKeys(10); len(top) > 0 {
		parts := make([]string, 0, len(top))
		for _, name := range top {
			parts = append(parts, fmt.Sprintf("%s×%d", name, summary.Keys[name]))
		}
		fmt.Fprintf(stdout, "Most pressed keys: %s\n", strings.Join(parts, " "))
	}
	if len(summary.Buckets) > 0 {
		fmt.Fprintln(stdout, "Activity:")
		for _, bucket := range summary.Buckets {
			fmt.Fprintf(stdout, "  %8.2fs-%-8.2fs %5d\n", bucket.Start, bucket.End, bucket.Count)
		}
	}
	return nil
}
