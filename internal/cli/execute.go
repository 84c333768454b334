package cli

import (
	"errors"
	"io"
	"os"
)

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute() int {
	return execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, &RootOptions{})
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer, opts *RootOptions) int {
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !exitErr.Reported {
		f := &OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr}
		f.Fail(err)
	}
	return GetExitCode(err)
}
