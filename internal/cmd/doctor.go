package cmd

import (
	"flag"
	"fmt"
	"io"

	"github.com/offlinefirst/actionrec/pkg/platform"
)

func newDoctorCommand() command {
	return command{
		name:        "doctor",
		description: "Report whether input capture and replay can run on this host",
		run:         runDoctor,
	}
}

var detectEnvironment = platform.DetectEnvironment

func runDoctor(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	env := detectEnvironment()
	if ctx != nil {
		fmt.Fprintf(stdout, "Configuration: %s\n", ctx.Config.Source)
		fmt.Fprintf(stdout, "  recordings_dir: %s\n", ctx.Config.Paths.RecordingsDir)
	}
	fmt.Fprintf(stdout, "Input backend: %s\n", env.Provider)
	fmt.Fprintf(stdout, "  capture: %s (hooks: %s)\n", availability(env.Capture), env.HookPermission)
	fmt.Fprintf(stdout, "  replay: %s (synthetic input: %s)\n", availability(env.Replay), env.InputPermission)
	if env.Message != "" {
		fmt.Fprintf(stdout, "  note: %s\n", env.Message)
	}
	if env.Guidance != "" {
		fmt.Fprintf(stdout, "  guidance: %s\n", env.Guidance)
	}
	return nil
}

func availability(ok bool) string {
	if ok {
		return okColor.Sprint("available")
	}
	return failColor.Sprint("unavailable")
}
