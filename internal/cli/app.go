package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/raffle/internal/engine"
	"github.com/roach88/raffle/internal/store"
)

// openStore opens the configured database. Callers must Close it.
func (o *RootOptions) openStore() (*store.Store, error) {
	o.logger().Debug("opening database", "path", o.DB)
	st, err := store.Open(o.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err).withErrCode(ErrCodeStore)
	}
	return st, nil
}

// closeStore closes st, logging failures.
func (o *RootOptions) closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		o.logger().Error("error closing database", "error", err)
	}
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", path), err).withErrCode(ErrCodeReadFailed)
	}
	return data, nil
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to write %s", path), err).withErrCode(ErrCodeWriteFailed)
	}
	return nil
}

// classify maps domain errors to exit errors. Errors that already carry an
// exit code pass through.
func classify(err error, message string) error {
	var exitErr *ExitError
	switch {
	case errors.As(err, &exitErr):
		return err
	case engine.IsPlanError(err):
		return WrapExitError(ExitFailure, message, err).withErrCode(ErrCodeInvalidPlan)
	case errors.Is(err, store.ErrLedgerNotFound), errors.Is(err, store.ErrRunNotFound):
		return WrapExitError(ExitCommandError, message, err).withErrCode(ErrCodeNotFound)
	default:
		return WrapExitError(ExitCommandError, message, err).withErrCode(ErrCodeStore)
	}
}
