// Contains utility functions related to logging setup.
package cli

import (
	"os"
	"path/filepath"

	"golang.org/x/term"
	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("cli")

// StdErrIsATerminal is true if the process' stderr is an interactive TTY.
var StdErrIsATerminal = term.IsTerminal(int(os.Stderr.Fd()))

// A Verbosity is used as a flag to define logging verbosity.
type Verbosity logging.Level

// UnmarshalFlag implements the flags.Unmarshaler interface.
func (v *Verbosity) UnmarshalFlag(in string) error {
	n, err := parseVerbosity(in)
	if err != nil {
		return flagsError(err)
	}
	*v = Verbosity(n)
	return nil
}

// InitLogging sets up the global logger at the given verbosity, writing
// plain (non-interactive) lines to stderr. Muddle never animates its
// output, since it never runs more than one Action at a time.
func InitLogging(verbosity Verbosity) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, logFormatter())
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logging.Level(verbosity), "")
	logging.SetBackend(leveled)
}

// InitFileLogging additionally mirrors log output to logFile.
func InitFileLogging(logFile string, level Verbosity) error {
	if err := os.MkdirAll(filepath.Dir(logFile), os.ModeDir|0775); err != nil {
		return err
	}
	file, err := os.Create(logFile)
	if err != nil {
		return err
	}
	fileBackend := logging.AddModuleLevel(logging.NewBackendFormatter(logging.NewLogBackend(file, "", 0), logFormatter()))
	fileBackend.SetLevel(logging.Level(level), "")
	stderrBackend := logging.AddModuleLevel(logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), logFormatter()))
	logging.SetBackend(stderrBackend, fileBackend)
	AtExit(func() { file.Close() })
	return nil
}

func logFormatter() logging.Formatter {
	formatStr := "%{time:15:04:05.000} %{level:7s}: %{message}"
	if StdErrIsATerminal {
		formatStr = "%{color}" + formatStr + "%{color:reset}"
	}
	return logging.MustStringFormatter(formatStr)
}

func parseVerbosity(in string) (logging.Level, error) {
	switch in {
	case "critical", "0":
		return logging.CRITICAL, nil
	case "error", "1":
		return logging.ERROR, nil
	case "warning", "2":
		return logging.WARNING, nil
	case "notice", "3":
		return logging.NOTICE, nil
	case "info", "4":
		return logging.INFO, nil
	case "debug", "5":
		return logging.DEBUG, nil
	}
	return logging.WARNING, errUnknownVerbosity(in)
}

type errUnknownVerbosity string

func (e errUnknownVerbosity) Error() string { return "unknown verbosity level: " + string(e) }
