package telemetry

import (
	"errors"
	"fmt"
	"time"
)

// Event names
const (
	EventCommandExecuted = "command_executed"
	EventCommandError    = "command_error"
)

// CommandProperties builds the properties of a command event. step is 0
// when the command does not target a step.
func CommandProperties(command string, step int, provider string, elapsed time.Duration, err error) Properties {
	props := Properties{
		"command":     command,
		"duration_ms": elapsed.Milliseconds(),
		"success":     err == nil,
	}
	if provider != "" {
		props["provider"] = provider
	}
	if step > 0 {
		props["step"] = step
	}
	if err != nil {
		props["error_type"] = errorType(err)
	}
	return props
}

func commandEventName(err error) string {
	if err != nil {
		return EventCommandError
	}
	return EventCommandExecuted
}

// errorType names the error's concrete type without leaking its message.
func errorType(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return fmt.Sprintf("%T", err)
}
