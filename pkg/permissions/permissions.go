package permissions

import (
	"errors"
	"os"
	"runtime"
	"strings"
)

// Status enumerates coarse permission results for input hooks and synthetic input.
type Status string

const (
	// StatusUnknown indicates no explicit signal about permission state.
	StatusUnknown Status = "unknown"
	// StatusGranted signals that the capability can be used.
	StatusGranted Status = "granted"
	// StatusDenied indicates the host refuses the capability.
	StatusDenied Status = "denied"
	// StatusPromptRequired means the platform will prompt at runtime.
	StatusPromptRequired Status = "prompt"
	// StatusUnavailable reports that the capability is not supported.
	StatusUnavailable Status = "unavailable"
)

// ErrDenied is matched by errors returned from ProbeResult.Err.
var ErrDenied = errors.New("permission denied")

// ProbeResult represents the coarse state for a permission surface.
type ProbeResult struct {
	Name     string
	Status   Status
	Message  string
	Guidance string
}

// LookupEnvFunc exposes environment probing for testability.
type LookupEnvFunc func(string) (string, bool)

// DefaultLookupEnv is the standard environment resolver.
func DefaultLookupEnv(key string) (string, bool) {
	return lookupEnv(key)
}

// lookupEnv is declared for swapping in tests.
var lookupEnv = func(key string) (string, bool) {
	return os.LookupEnv(key)
}

// goos is declared for swapping in tests.
var goos = runtime.GOOS

// ProbeInputHooks reports whether global keyboard and mouse hooks can be installed.
func ProbeInputHooks(lookup LookupEnvFunc) ProbeResult {
	if lookup == nil {
		lookup = lookupEnv
	}
	if value, ok := lookup("ACTIONREC_INPUT_HOOKS"); ok {
		return interpretPermissionFlag("input hooks", value)
	}
	if goos == "windows" {
		return ProbeResult{
			Name:     "input hooks",
			Status:   StatusGranted,
			Message:  "low-level keyboard and mouse hooks available",
			Guidance: "input to elevated windows is only observed when actionrec runs elevated",
		}
	}
	return ProbeResult{Name: "input hooks", Status: StatusUnavailable, Message: "global input hooks unsupported on " + goos}
}

// ProbeSyntheticInput reports whether synthetic keyboard and mouse input can be injected.
func ProbeSyntheticInput(lookup LookupEnvFunc) ProbeResult {
	if lookup == nil {
		lookup = lookupEnv
	}
	if value, ok := lookup("ACTIONREC_SYNTHETIC_INPUT"); ok {
		return interpretPermissionFlag("synthetic input", value)
	}
	if goos == "windows" {
		return ProbeResult{
			Name:     "synthetic input",
			Status:   StatusGranted,
			Message:  "SendInput available",
			Guidance: "windows of higher integrity level silently ignore injected input",
		}
	}
	return ProbeResult{Name: "synthetic input", Status: StatusUnavailable, Message: "synthetic input unsupported on " + goos}
}

func interpretPermissionFlag(name, value string) ProbeResult {
	normalised := strings.ToLower(strings.TrimSpace(value))
	switch normalised {
	case "granted", "allow", "allowed", "yes", "true":
		return ProbeResult{Name: name, Status: StatusGranted, Message: name + " permission pre-authorised via env override"}
	case "denied", "no", "false", "blocked":
		return ProbeResult{Name: name, Status: StatusDenied, Message: name + " permission denied via env override", Guidance: "unset or update ACTIONREC_* env to re-test"}
	case "prompt", "ask":
		return ProbeResult{Name: name, Status: StatusPromptRequired, Message: name + " permission will prompt at runtime"}
	case "unavailable", "unsupported":
		return ProbeResult{Name: name, Status: StatusUnavailable, Message: name + " permission unavailable on this platform"}
	default:
		return ProbeResult{Name: name, Status: StatusUnknown, Message: name + " permission state unknown"}
	}
}

// StatusString returns the string representation for manifest integration.
func (p ProbeResult) StatusString() string {
	if p.Status == "" {
		return string(StatusUnknown)
	}
	return string(p.Status)
}

// Usable reports whether the capability may be attempted.
func (p ProbeResult) Usable() bool {
	return p.Status != StatusDenied && p.Status != StatusUnavailable
}

// Err returns nil when the capability may be attempted.
func (p ProbeResult) Err() error {
	if p.Usable() {
		return nil
	}
	message := strings.TrimSpace(p.Message)
	if message == "" {
		message = p.Name + " " + p.StatusString()
	}
	return &permissionError{message: message, status: p.Status}
}

type permissionError struct {
	message string
	status  Status
}

func (e *permissionError) Error() string {
	return e.message
}

func (e *permissionError) Is(target error) bool {
	return target == ErrDenied
}
