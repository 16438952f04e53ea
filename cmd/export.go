package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

var (
	exportFormat string
	exportOutput string
	resetYes     bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current project state as JSON or YAML",
	Long: `Write the full pipeline state of the current project (artifacts, scores,
recommendations and the activity log) to stdout or a file.

Examples:
  sdlc-agent export
  sdlc-agent export --format yaml -o project.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFormat != "json" && exportFormat != "yaml" {
			return fmt.Errorf("unsupported format %q (want json or yaml)", exportFormat)
		}
		return withSession(cmd.Context(), func(s *session) error {
			var buf bytes.Buffer
			if err := encodeState(&buf, s.ctrl.State(), exportFormat); err != nil {
				return err
			}
			if exportOutput == "" || exportOutput == "-" {
				_, err := io.Copy(stdout, &buf)
				return err
			}
			if err := afero.WriteFile(appFs, exportOutput, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("write %s: %w", exportOutput, err)
			}
			printSuccess(fmt.Sprintf("Exported project to %s", exportOutput))
			return nil
		})
	},
}

// encodeState writes state in format ("json" or "yaml") to w.
func encodeState(w io.Writer, state *wizard.State, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(state); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear every step of the current project",
	Long: `Clear the requirements, artifacts, scores and recommendations of every step
and return to step 1. The project itself and its chat transcripts are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes && !confirmOrAbort("Reset all steps of the current project? [y/N]: ") {
			return nil
		}
		return withSession(cmd.Context(), func(s *session) error {
			s.ctrl.Reset()
			printSuccess("Project reset. Start again with 'sdlc-agent analyze <requirements-file>'.")
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format: json or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(exportCmd, resetCmd)
}
