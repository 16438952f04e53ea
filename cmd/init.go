package cmd

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/memory"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

var (
	initBoilerplate  string
	initRequirements string
)

var initCmd = &cobra.Command{
	Use:   "init [project-name]",
	Short: "Create a project and make it current",
	Long: `Create a new project in the local store and select it.

Examples:
  sdlc-agent init payments
  sdlc-agent init payments --requirements docs/requirements.md
  sdlc-agent init payments --boilerplate "Rust + Actix-web + PostgreSQL"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = strings.TrimSpace(args[0])
		}

		store, err := openStore()
		if err != nil {
			return err
		}

		state := wizard.NewState(GetConfig().UI.MaxLogEntries)
		state.ProjectName = name
		if initBoilerplate != "" {
			state.BoilerplateTemplate = initBoilerplate
		}
		id, err := store.CreateProject(state)
		if err != nil {
			_ = store.Close()
			return err
		}
		if err := store.SetCurrentProject(id); err != nil {
			_ = store.Close()
			return err
		}

		s, err := openProject(cmd.Context(), store, id)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		if initRequirements != "" {
			text, err := readInput(initRequirements)
			if err != nil {
				return err
			}
			if err := s.ctrl.LoadRequirements(name, state.BoilerplateTemplate, text); err != nil {
				return err
			}
		}

		if isJSON() {
			return printJSON(map[string]string{"id": id, "name": name})
		}
		printSuccess(fmt.Sprintf("Created project %s (%s)", displayName(name), id))
		fmt.Fprintln(stdout, dim("Next: sdlc-agent analyze <requirements-file>"))
		return nil
	},
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"ls"},
	Short:   "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		list, err := store.ListProjects()
		if err != nil {
			return err
		}
		current, _ := store.CurrentProject()

		if isJSON() {
			return printJSON(map[string]any{"current": current, "projects": list})
		}
		if len(list) == 0 {
			fmt.Fprintln(stdout, "No projects yet. Create one with 'sdlc-agent init'.")
			return nil
		}
		w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\tID\tNAME\tSTEP\tUPDATED")
		for _, p := range list {
			marker := ""
			if p.ID == current {
				marker = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", marker, p.ID, displayName(p.Name), p.CurrentStep, p.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var projectsUseCmd = &cobra.Command{
	Use:   "use <project-id>",
	Short: "Select the current project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if _, err := store.LoadState(args[0], 0); err != nil {
			return err
		}
		if err := store.SetCurrentProject(args[0]); err != nil {
			return err
		}
		printSuccess("Current project: " + args[0])
		return nil
	},
}

var projectsDeleteYes bool

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project and its chat transcripts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !projectsDeleteYes && !confirmOrAbort(fmt.Sprintf("Delete project %s? [y/N] ", args[0])) {
			return nil
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.DeleteProject(args[0]); err != nil {
			return err
		}
		printSuccess("Deleted project " + args[0])
		return nil
	},
}

// currentProjectID returns the selected project id.
func currentProjectID() (string, error) {
	store, err := openStore()
	if err != nil {
		return "", err
	}
	defer func() { _ = store.Close() }()
	id, err := store.CurrentProject()
	if errors.Is(err, memory.ErrNotFound) {
		return "", errNoProject
	}
	return id, err
}

func init() {
	initCmd.Flags().StringVarP(&initBoilerplate, "boilerplate", "b", "", "boilerplate template name")
	initCmd.Flags().StringVarP(&initRequirements, "requirements", "r", "", "requirements file to load (- for stdin)")
	projectsDeleteCmd.Flags().BoolVarP(&projectsDeleteYes, "yes", "y", false, "skip confirmation")

	projectsCmd.AddCommand(projectsUseCmd, projectsDeleteCmd)
	rootCmd.AddCommand(initCmd, projectsCmd)
}
