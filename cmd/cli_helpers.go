package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/logger"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/ui"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

// appFs is the filesystem commands read input files from.
var appFs = afero.NewOsFs()

// stdout is where command output goes; tests swap it.
var stdout io.Writer = os.Stdout

// trackedStep is the step the running command targeted, for telemetry.
var trackedStep int

func isJSON() bool {
	return viper.GetBool("json")
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(output))
	return nil
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func printSuccess(msg string) {
	if isJSON() {
		return
	}
	fmt.Fprintln(stdout, ui.StyleSuccess.Render("✓ ")+msg)
}

func printWarning(msg string) {
	if isJSON() {
		return
	}
	fmt.Fprintln(stdout, ui.StyleWarning.Render("! ")+msg)
}

func dim(s string) string {
	return ui.StyleSubtle.Render(s)
}

// withSpinner runs fn while sp shows label. JSON output stays clean.
func withSpinner(sp *ui.Spinner, label string, fn func() error) error {
	if !isJSON() {
		sp.SetSuffix(label)
		sp.Start()
	}
	err := fn()
	sp.Stop()
	return err
}

// readInput returns the contents of path, or stdin when path is "-".
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := afero.ReadFile(appFs, path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// parseStepArg parses a step number or name and records it for telemetry
// and crash logs.
func parseStepArg(arg string) (wizard.StepID, error) {
	step, err := wizard.ParseStep(arg)
	if err != nil {
		return 0, err
	}
	trackedStep = int(step)
	logger.SetPipeline(int(step), viper.GetString("gateway.provider"))
	return step, nil
}

// confirmOrAbort asks for y/yes on stdin. Without a terminal it refuses.
func confirmOrAbort(prompt string) bool {
	if !ui.IsInteractive() {
		fmt.Fprintln(os.Stderr, "Refusing to continue without a terminal; pass --yes to confirm.")
		return false
	}
	fmt.Fprint(stdout, prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	if response != "y" && response != "yes" {
		fmt.Fprintln(stdout, "Cancelled.")
		return false
	}
	return true
}
