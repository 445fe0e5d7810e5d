package executor

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-graphsink/pkg/statement"
)

var (
	ErrNotOpen = errors.New("executor is not open")
	// ErrUnsupportedWriteMode is returned when no renderer exists for the
	// configured dialect and write mode. The buffer is left untouched.
	ErrUnsupportedWriteMode = statement.ErrUnsupportedWriteMode
	// ErrStatementFailed is the cause of an ExecError when the server
	// answered but rejected the statement.
	ErrStatementFailed = errors.New("statement failed")
)

// ExecError reports a failed batch execution together with the statement
// that was sent.
type ExecError struct {
	Statement string
	Cause     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("batch execution failed: %v", e.Cause)
}

func (e *ExecError) Unwrap() error {
	return e.Cause
}

func statementFailed(res *Result) error {
	return fmt.Errorf("%w (code %d): %s", ErrStatementFailed, res.ErrorCode, res.ErrorMessage)
}
