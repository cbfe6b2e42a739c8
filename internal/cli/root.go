// Package cli implements the criminalintent command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// rootOptions holds global flag values shared by every subcommand.
type rootOptions struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
	logFile   string
	verbose   int
	quiet     bool
}

// NewRootCmd creates the top-level "criminalintent" command with global
// flags and all subcommands registered.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "criminalintent",
		Short: "Record and track office crimes",
		Long: "criminalintent keeps a local store of crime records: what happened, when,\n" +
			"who did it, and whether it has been solved.",
		Version: Version,
		// Errors are printed once by Execute.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory (default: $(CWD)/.criminalintent-db)")
	root.PersistentFlags().BoolVar(&opts.jsonMode, "json", false, "output as JSON")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error, off")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "append logs to this file instead of stderr")
	root.PersistentFlags().CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity (-v info, -vv debug)")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "disable logging")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newNewCmd(opts),
		newEditCmd(opts),
		newPhotoCmd(opts),
		newWatchCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newSchemaCmd(opts),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "criminalintent:", err)
	return ExitCode(err)
}

// exitError carries the exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userError marks err as caused by bad input.
func userError(err error) error {
	return &exitError{code: exitUserError, err: err}
}

// sysError marks err as an environment or storage failure.
func sysError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

// ExitCode maps an error returned by a command to a process exit code.
// Errors not produced by this package, such as cobra argument errors,
// count as user errors.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
