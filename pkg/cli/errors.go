package cli

import "fmt"

// Exit codes.
const (
	ExitOK      = 0
	ExitError   = 1
	ExitInvalid = 2
)

// ExitCodeError carries a process exit code. Silent errors have already
// been reported to the user.
type ExitCodeError struct {
	Code   int
	Err    error
	Silent bool
}

func (e *ExitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// Invalid reports invalid input that has already been printed.
func Invalid(format string, args ...any) *ExitCodeError {
	return &ExitCodeError{Code: ExitInvalid, Err: fmt.Errorf(format, args...), Silent: true}
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}
