package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

const testRequirements = `# Payments API

The service accepts card payments over a REST API, stores transactions in
PostgreSQL and exposes refund and reporting endpoints.`

// resetFlags restores every flag of c and its subcommands to its default.
func resetFlags(t *testing.T, c *cobra.Command) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatalf("reset flag %s: %v", f.Name, err)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(t, sub)
	}
}

// setupCLI isolates the CLI in a temp directory with an offline provider.
func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_DATA_HOME", "")

	viper.Set("memory.path", filepath.Join(dir, "memory"))
	viper.Set("gateway.provider", gateway.ProviderFallback)
	viper.Set("fallback.instant", true)
	viper.Set("json", false)
	viper.Set("verbose", false)
	t.Cleanup(func() {
		viper.Set("memory.path", "")
		viper.Set("gateway.provider", "")
		viper.Set("fallback.instant", false)
		viper.Set("json", false)
	})
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t, rootCmd)
	trackedStep = 0

	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })

	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func exportState(t *testing.T) *wizard.State {
	t.Helper()
	viper.Set("json", true)
	defer viper.Set("json", false)
	out, err := runCLI(t, "export", "--format", "json")
	require.NoError(t, err)
	state := wizard.NewState(0)
	require.NoError(t, json.Unmarshal([]byte(out), state))
	return state
}

func TestCommandsRequireProject(t *testing.T) {
	setupCLI(t)

	_, err := runCLI(t, "status")
	require.ErrorIs(t, err, errNoProject)
}

func TestPipelineEndToEnd(t *testing.T) {
	dir := setupCLI(t)
	reqs := writeFile(t, dir, "requirements.md", testRequirements)

	out, err := runCLI(t, "init", "payments")
	require.NoError(t, err)
	assert.Contains(t, out, "Created project payments")

	out, err = runCLI(t, "analyze", reqs)
	require.NoError(t, err)
	assert.Contains(t, out, "Overall:")
	assert.Contains(t, out, "Recommendations")

	_, err = runCLI(t, "next")
	require.ErrorIs(t, err, wizard.ErrPlanRequired)

	out, err = runCLI(t, "plan")
	require.NoError(t, err)
	assert.Contains(t, out, "Implementation Plan")

	_, err = runCLI(t, "next")
	require.NoError(t, err)

	_, err = runCLI(t, "generate", "3")
	require.ErrorIs(t, err, wizard.ErrMissingDependency)

	out, err = runCLI(t, "generate", "apis")
	require.NoError(t, err)
	assert.Contains(t, out, "step 2")

	_, err = runCLI(t, "recommend", "2")
	require.NoError(t, err)
	out, err = runCLI(t, "improve", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Improved step 2")

	_, err = runCLI(t, "complete", "2")
	require.NoError(t, err)

	state := exportState(t)
	assert.Equal(t, "payments", state.ProjectName)
	assert.Equal(t, testRequirements, state.Requirements())
	assert.NotNil(t, state.Analysis)
	assert.NotEmpty(t, state.Plan)
	assert.True(t, state.Step(wizard.StepSetup).Completed)
	assert.True(t, state.Step(wizard.StepAPIs).Completed)
	assert.Contains(t, state.Step(wizard.StepAPIs).Content(), gateway.ImproveMarker)

	// Editing step 1 re-opens the completed step 2.
	edited := writeFile(t, dir, "edited.md", testRequirements+"\n\nAdd webhooks.")
	_, err = runCLI(t, "edit", "1", "--file", edited)
	require.NoError(t, err)
	state = exportState(t)
	assert.False(t, state.Step(wizard.StepAPIs).Completed)
	assert.True(t, state.Step(wizard.StepAPIs).HasArtifact())

	out, err = runCLI(t, "show", "2")
	require.NoError(t, err)
	assert.Contains(t, out, gateway.ImproveMarker)

	out, err = runCLI(t, "log", "--limit", "3")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestYoloCommand(t *testing.T) {
	dir := setupCLI(t)
	reqs := writeFile(t, dir, "requirements.md", testRequirements)

	_, err := runCLI(t, "init", "yolo", "--requirements", reqs)
	require.NoError(t, err)

	viper.Set("json", true)
	out, err := runCLI(t, "yolo", "2")
	viper.Set("json", false)
	require.NoError(t, err)

	var res wizard.YoloResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Generated)
	assert.GreaterOrEqual(t, res.Iterations, 1)
}

func TestGotoClamps(t *testing.T) {
	setupCLI(t)
	_, err := runCLI(t, "init")
	require.NoError(t, err)

	_, err = runCLI(t, "goto", "9")
	require.NoError(t, err)
	assert.Equal(t, wizard.StepTests, exportState(t).CurrentStep)

	_, err = runCLI(t, "goto", "0")
	require.NoError(t, err)
	assert.Equal(t, wizard.StepSetup, exportState(t).CurrentStep)
}

func TestEditValidation(t *testing.T) {
	setupCLI(t)
	_, err := runCLI(t, "init")
	require.NoError(t, err)

	_, err = runCLI(t, "edit", "2")
	assert.ErrorContains(t, err, "nothing to edit")

	_, err = runCLI(t, "edit", "2", "--score", "150")
	assert.ErrorContains(t, err, "between 0 and 100")

	_, err = runCLI(t, "edit", "2", "--score", "40")
	require.NoError(t, err)
	assert.Equal(t, 40, exportState(t).Step(wizard.StepAPIs).Score)
}

func TestResetCommand(t *testing.T) {
	dir := setupCLI(t)
	reqs := writeFile(t, dir, "requirements.md", testRequirements)
	_, err := runCLI(t, "init", "demo", "--requirements", reqs)
	require.NoError(t, err)

	_, err = runCLI(t, "reset", "--yes")
	require.NoError(t, err)

	state := exportState(t)
	assert.Empty(t, state.Requirements())
	assert.Equal(t, wizard.StepSetup, state.CurrentStep)
}

func TestExportYAMLToFile(t *testing.T) {
	dir := setupCLI(t)
	_, err := runCLI(t, "init", "demo")
	require.NoError(t, err)

	target := filepath.Join(dir, "state.yaml")
	_, err = runCLI(t, "export", "--format", "yaml", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "project_name: demo")

	_, err = runCLI(t, "export", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestProjectsListAndSwitch(t *testing.T) {
	setupCLI(t)
	_, err := runCLI(t, "init", "first")
	require.NoError(t, err)
	firstID, err := currentProjectID()
	require.NoError(t, err)

	_, err = runCLI(t, "init", "second")
	require.NoError(t, err)

	out, err := runCLI(t, "projects")
	require.NoError(t, err)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")

	_, err = runCLI(t, "projects", "use", firstID)
	require.NoError(t, err)
	id, err := currentProjectID()
	require.NoError(t, err)
	assert.Equal(t, firstID, id)
}

func TestBoilerplatesAndLocalReadme(t *testing.T) {
	dir := setupCLI(t)
	root := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "spark"), 0755))
	writeFile(t, filepath.Join(root, "spark"), "README.md", "# Spark template")

	viper.Set("boilerplate.allowedPaths", []string{root})
	t.Cleanup(func() { viper.Set("boilerplate.allowedPaths", []string{}) })

	out, err := runCLI(t, "boilerplates")
	require.NoError(t, err)
	assert.Contains(t, out, "rust-actix-postgres")

	out, err = runCLI(t, "readme", "rust-actix-postgres")
	require.NoError(t, err)
	assert.Contains(t, out, "# Spark template")

	_, err = runCLI(t, "readme", filepath.Join(dir, "elsewhere"))
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	setupCLI(t)
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sdlc-agent version "+GetVersion())
}
