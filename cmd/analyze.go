package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/ui"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

var (
	analyzeWatch bool
	analyzeName  string
)

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 300 * time.Millisecond

var analyzeCmd = &cobra.Command{
	Use:   "analyze [requirements-file]",
	Short: "Load requirements and run the quality analysis",
	Long: `Verify that the requirements describe a backend service, then score them on
thirteen quality criteria. The overall score becomes step 1's score and the
improvement recommendations are stored on step 1.

With a file argument the file replaces the current requirements first.
With --watch the analysis re-runs whenever the file changes.

Examples:
  sdlc-agent analyze requirements.md
  sdlc-agent analyze requirements.md --watch
  cat requirements.md | sdlc-agent analyze -`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trackedStep = int(wizard.StepSetup)
		if analyzeWatch && (len(args) == 0 || args[0] == "-") {
			return errors.New("--watch needs a requirements file")
		}
		return withSession(cmd.Context(), func(s *session) error {
			if len(args) == 1 {
				if err := loadRequirementsFile(s, args[0]); err != nil {
					return err
				}
			}
			if err := runAnalysis(cmd.Context(), s); err != nil {
				return err
			}
			if !analyzeWatch {
				return nil
			}
			return watchRequirements(cmd.Context(), s, args[0])
		})
	},
}

func loadRequirementsFile(s *session, path string) error {
	text, err := readInput(path)
	if err != nil {
		return err
	}
	return s.ctrl.LoadRequirements(analyzeName, "", text)
}

func runAnalysis(ctx context.Context, s *session) error {
	var analysis *wizard.Analysis
	err := s.run("Analyzing requirements...", func() error {
		var err error
		analysis, err = s.ctrl.Analyze(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(analysis)
	}
	state := s.ctrl.State()
	fmt.Fprintln(stdout, ui.RenderAnalysis(analysis))
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, ui.StyleSectionTitle.Render("Recommendations"))
	fmt.Fprintln(stdout, ui.RenderRecommendations(state.Step(wizard.StepSetup).Recommendations))
	if analysis.Overall < s.cfg.Quality.MinAcceptableScore {
		printWarning(fmt.Sprintf("Overall score is below %d%%. Consider 'sdlc-agent improve 1'.", s.cfg.Quality.MinAcceptableScore))
	}
	return nil
}

// watchRequirements re-loads and re-analyzes path on every change until ctx ends.
func watchRequirements(ctx context.Context, s *session, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	target := filepath.Clean(path)
	fmt.Fprintln(stdout, dim(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)...", path)))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			pending = time.After(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file watcher error", "error", err)
		case <-pending:
			pending = nil
			fmt.Fprintln(stdout, dim("\nRequirements changed, re-analyzing..."))
			if err := loadRequirementsFile(s, path); err != nil {
				PrintError(userMessage(err), err)
				continue
			}
			if err := runAnalysis(ctx, s); err != nil {
				PrintError(userMessage(err), err)
			}
		}
	}
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate the implementation plan for the requirements",
	RunE: func(cmd *cobra.Command, args []string) error {
		trackedStep = int(wizard.StepSetup)
		return withSession(cmd.Context(), func(s *session) error {
			var plan string
			err := s.run("Generating implementation plan...", func() error {
				var err error
				plan, err = s.ctrl.Plan(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(map[string]string{"plan": plan})
			}
			fmt.Fprintln(stdout, plan)
			fmt.Fprintln(stdout, dim("\nNext: sdlc-agent next"))
			return nil
		})
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Complete setup and move on to step 2",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			if err := s.ctrl.Advance(); err != nil {
				return err
			}
			printSuccess("Setup complete. Current step: 2. APIs")
			fmt.Fprintln(stdout, dim("Next: sdlc-agent generate 2"))
			return nil
		})
	},
}

func init() {
	analyzeCmd.Flags().BoolVarP(&analyzeWatch, "watch", "w", false, "re-run the analysis when the file changes")
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "project name to set with the requirements")
	rootCmd.AddCommand(analyzeCmd, planCmd, nextCmd)
}
