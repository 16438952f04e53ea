package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/ui"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

var generateCmd = &cobra.Command{
	Use:   "generate <step>",
	Short: "Generate the artifact for a step (2-6)",
	Long: `Generate the artifact for a pipeline step from the artifacts upstream of it.

Steps: 2 apis, 3 model, 4 schema, 5 logic, 6 tests.
Regenerating a completed step resets every completed step downstream of it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := parseStepArg(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			err := s.run(fmt.Sprintf("Generating %s...", step.Kind().Label()), func() error {
				return s.ctrl.Generate(cmd.Context(), step)
			})
			if err != nil {
				return err
			}
			rec := s.ctrl.State().Step(step)
			if isJSON() {
				return printJSON(rec)
			}
			printSuccess(fmt.Sprintf("Generated %s for step %d: %s", step.Kind().Label(), step, step))
			fmt.Fprintln(stdout, dim(fmt.Sprintf("View it with 'sdlc-agent show %d', then 'sdlc-agent recommend %d'.", step, step)))
			return nil
		})
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <step>",
	Short: "Assess a step's artifact and list recommendations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := parseStepArg(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			err := s.run("Assessing artifact...", func() error {
				_, err := s.ctrl.Recommend(cmd.Context(), step)
				return err
			})
			if err != nil {
				return err
			}
			rec := s.ctrl.State().Step(step)
			if isJSON() {
				return printJSON(rec.Recommendations)
			}
			fmt.Fprintln(stdout, ui.StyleSectionTitle.Render(fmt.Sprintf("Recommendations for step %d: %s", step, step)))
			fmt.Fprintln(stdout, ui.RenderRecommendations(rec.Recommendations))
			return nil
		})
	},
}

var improveCmd = &cobra.Command{
	Use:   "improve <step>",
	Short: "Apply the step's recommendations to its artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := parseStepArg(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			before := s.ctrl.State().Step(step).Score
			var changed bool
			err := s.run("Applying recommendations...", func() error {
				var err error
				changed, err = s.ctrl.Improve(cmd.Context(), step)
				return err
			})
			if err != nil {
				return err
			}
			rec := s.ctrl.State().Step(step)
			if isJSON() {
				return printJSON(map[string]any{"improved": changed, "score": rec.Score, "previous_score": before})
			}
			if !changed {
				printWarning("No recommendations to apply. Run 'sdlc-agent recommend' first.")
				return nil
			}
			printSuccess(fmt.Sprintf("Improved step %d: %s (score %d%% → %d%%)", step, step, before, rec.Score))
			return nil
		})
	},
}

var yoloCmd = &cobra.Command{
	Use:   "yolo <step>",
	Short: "Generate, then recommend and improve until the target score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := parseStepArg(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			var res *wizard.YoloResult
			err := s.run("Running improvement loop...", func() error {
				var err error
				res, err = s.ctrl.Yolo(cmd.Context(), step)
				return err
			})
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(res)
			}
			if res.TargetReached {
				printSuccess(fmt.Sprintf("Step %d reached %d%% after %d iteration(s)", step, res.Score, res.Iterations))
			} else {
				printWarning(fmt.Sprintf("Step %d stopped at %d%% after %d iteration(s); target is %d%%",
					step, res.Score, res.Iterations, s.ctrl.TargetScore()))
			}
			return nil
		})
	},
}

var (
	editFile  string
	editScore int
	editClear bool
)

var editCmd = &cobra.Command{
	Use:   "edit <step>",
	Short: "Replace a step's artifact or score",
	Long: `Replace a step's artifact with the contents of a file (or stdin with "-"),
and/or set its score. Editing a completed step resets every completed step
downstream of it.

Examples:
  sdlc-agent edit 2 --file openapi.yaml
  sdlc-agent edit 3 --score 85
  sdlc-agent edit 4 --clear`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := parseStepArg(args[0])
		if err != nil {
			return err
		}
		var patch wizard.StepPatch
		switch {
		case editClear && editFile != "":
			return fmt.Errorf("--clear and --file are mutually exclusive")
		case editClear:
			empty := ""
			patch.Artifact = &empty
		case editFile != "":
			content, err := readInput(editFile)
			if err != nil {
				return err
			}
			patch.Artifact = &content
		}
		if cmd.Flags().Changed("score") {
			if editScore < 0 || editScore > 100 {
				return fmt.Errorf("score must be between 0 and 100, got %d", editScore)
			}
			patch.Score = &editScore
		}
		if patch.Artifact == nil && patch.Score == nil {
			return fmt.Errorf("nothing to edit: pass --file, --score or --clear")
		}
		return withSession(cmd.Context(), func(s *session) error {
			if err := s.ctrl.SetStepData(step, patch); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Updated step %d: %s", step, step))
			return nil
		})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <step>",
	Short: "Mark a step completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := parseStepArg(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			id, err := s.ctrl.MarkComplete(int(step))
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Step %d: %s marked complete", id, id))
			return nil
		})
	},
}

var gotoCmd = &cobra.Command{
	Use:     "goto <step>",
	Aliases: []string{"navigate"},
	Short:   "Move the current step cursor",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Out-of-range numbers are clamped rather than rejected.
		n, err := wizard.ParseStep(args[0])
		target := int(n)
		if err != nil {
			if _, scanErr := fmt.Sscan(args[0], &target); scanErr != nil {
				return err
			}
		}
		return withSession(cmd.Context(), func(s *session) error {
			id := s.ctrl.Navigate(target)
			if isJSON() {
				return printJSON(map[string]int{"current_step": int(id)})
			}
			printSuccess(fmt.Sprintf("Current step: %d. %s", id, id))
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <step>",
	Short: "Print a step's artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := parseStepArg(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			rec := s.ctrl.State().Step(step)
			if isJSON() {
				return printJSON(rec)
			}
			if !rec.HasArtifact() {
				return fmt.Errorf("step %d: %w", step, wizard.ErrNoArtifact)
			}
			fmt.Fprintln(stdout, rec.Content())
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the pipeline state of the current project",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			state := s.ctrl.State()
			if isJSON() {
				return printJSON(state)
			}
			ui.RenderPageHeader(stdout, displayName(state.ProjectName), fmt.Sprintf("%s · %s", state.BoilerplateTemplate, s.projectID))
			fmt.Fprintln(stdout, ui.StepTable(state).Render())
			if state.Analysis != nil {
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, ui.StyleSectionTitle.Render("Requirements analysis"))
				fmt.Fprintln(stdout, ui.RenderAnalysis(state.Analysis))
			}
			if ref := state.ChatSession; ref != nil {
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, dim(fmt.Sprintf("Chat session %s (%s, step %d)", ref.SessionID, ref.Status, ref.Step)))
			}
			if state.AllCompleted() {
				fmt.Fprintln(stdout)
				printSuccess("All steps completed.")
			}
			return nil
		})
	},
}

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the activity log, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			entries := s.ctrl.State().Log.Recent(logLimit)
			if isJSON() {
				return printJSON(entries)
			}
			fmt.Fprintln(stdout, ui.RenderActivity(entries))
			return nil
		})
	},
}

func init() {
	editCmd.Flags().StringVarP(&editFile, "file", "f", "", "file with the new artifact content (- for stdin)")
	editCmd.Flags().IntVar(&editScore, "score", 0, "new score (0-100)")
	editCmd.Flags().BoolVar(&editClear, "clear", false, "remove the artifact")
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "number of entries to show")

	rootCmd.AddCommand(generateCmd, recommendCmd, improveCmd, yoloCmd,
		editCmd, completeCmd, gotoCmd, showCmd, statusCmd, logCmd)
}
