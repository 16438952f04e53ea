package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/boilerplate"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/chat"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/memory"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

// errNoProject is returned when a command needs a project and none is selected.
var errNoProject = errors.New("no current project: run 'sdlc-agent init' first")

// HandleFatalError handles unrecoverable errors that should terminate the application.
func HandleFatalError(userMsg string, technicalErr error) {
	PrintError(userMsg, technicalErr)
	os.Exit(1)
}

// PrintError prints an error message without exiting, allowing for recovery.
func PrintError(userMsg string, technicalErr error) {
	if viper.GetBool("verbose") && technicalErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", technicalErr)
		return
	}
	fmt.Fprintln(os.Stderr, userMsg)
}

const backendHint = `
Hints:
  - Is the backend running? It is expected at %s
  - Are the backend's LLM API keys configured?
  - To continue offline, use --provider fallback or run 'sdlc-agent config set gateway.provider fallback'`

// userMessage turns an error into the message printed without --verbose.
func userMessage(err error) string {
	var notSuitable *wizard.NotSuitableError
	var statusErr *gateway.StatusError
	var netErr net.Error

	switch {
	case errors.As(err, &notSuitable):
		return "Requirements rejected: " + notSuitable.Error()
	case errors.Is(err, errNoProject):
		return "Error: " + errNoProject.Error()
	case errors.Is(err, memory.ErrNotFound):
		return "Error: project not found. List projects with 'sdlc-agent projects'."
	case errors.Is(err, wizard.ErrStepBusy):
		return "Error: another operation is already running on this step."
	case errors.Is(err, wizard.ErrMissingDependency):
		return "Error: " + err.Error() + ". Generate the earlier steps first."
	case errors.Is(err, wizard.ErrPlanRequired):
		return "Error: generate a plan with 'sdlc-agent plan' before moving on."
	case errors.Is(err, wizard.ErrNoRequirements):
		return "Error: no requirements loaded. Run 'sdlc-agent analyze <file>'."
	case errors.Is(err, boilerplate.ErrPathNotAllowed):
		return "Error: access to this path is not allowed. Add it to boilerplate.allowedPaths."
	case errors.Is(err, chat.ErrNotConnected):
		return "Error: chat is not connected."
	case errors.Is(err, gateway.ErrImproveTimeout):
		return "Error: " + gateway.ErrImproveTimeout.Error() + ". Try again, or raise backend.improveTimeout."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.As(err, &statusErr), errors.As(err, &netErr), isConnectionRefused(err):
		return "Error: " + err.Error() + fmt.Sprintf(backendHint, viper.GetString("backend.baseURL"))
	default:
		return "Error: " + err.Error()
	}
}

func isConnectionRefused(err error) bool {
	return err != nil && strings.Contains(err.Error(), "connection refused")
}
