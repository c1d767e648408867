package cli

import "fmt"

// ConfigError is a configuration failure surfaced to the operator:
// an unreadable file, invalid YAML, or a value rejected by validation.
// Source names the config file or field that caused it.
type ConfigError struct {
	Source  string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Source, e.Message)
}

// CommandError wraps a failure from a subcommand so the exit path can
// report which command failed while keeping the cause inspectable with
// errors.Is/As.
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

// NewConfigError creates a ConfigError for the given source.
func NewConfigError(source, message string) *ConfigError {
	return &ConfigError{
		Source:  source,
		Message: message,
	}
}

// NewCommandError wraps err as a CommandError for the named command.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}
