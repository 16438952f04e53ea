package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/boilerplate"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/config"
	"github.com/Galaxy-Core-Platform/sdlc-agent/types"
)

// loadCatalog reads the configured catalog file, or returns the built-in
// catalog rooted at the first allowed boilerplate path.
func loadCatalog(cfg *types.AppConfig) (boilerplate.Catalog, error) {
	if path := config.GetCatalogPath(); path != "" {
		return boilerplate.LoadCatalog(appFs, path)
	}
	base := ""
	if len(cfg.Boilerplate.AllowedPaths) > 0 {
		base = cfg.Boilerplate.AllowedPaths[0]
	}
	return boilerplate.DefaultCatalog(base), nil
}

var boilerplatesCmd = &cobra.Command{
	Use:     "boilerplates",
	Aliases: []string{"templates"},
	Short:   "List the project templates",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog(GetConfig())
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(catalog)
		}
		w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTACK\tPATH")
		for _, t := range catalog {
			stack := t.Language + " / " + t.Framework
			if t.Database != "" {
				stack += " / " + t.Database
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Name, stack, t.Path)
		}
		return w.Flush()
	},
}

var readmeRemote bool

var readmeCmd = &cobra.Command{
	Use:   "readme <template|path>",
	Short: "Print a template's README.md",
	Long: `Print the README.md of a boilerplate template, given its catalog id, its
name, or a directory path.

Files are read locally from boilerplate.allowedPaths. When no local paths are
configured, or with --remote, the backend serves the README instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		catalog, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		dir := args[0]
		if t, ok := catalog.ByID(dir); ok {
			dir = t.Path
		} else if t, ok := catalog.ByName(dir); ok {
			dir = t.Path
		}

		var content, source string
		if readmeRemote || len(cfg.Boilerplate.AllowedPaths) == 0 {
			client := newBackendClient(cfg)
			content, err = client.BoilerplateReadme(cmd.Context(), dir)
			source = client.BaseURL()
		} else {
			content, source, err = boilerplate.NewFiles(appFs, cfg.Boilerplate.AllowedPaths).Readme(dir)
		}
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(map[string]string{"content": content, "path": dir, "source": source})
		}
		fmt.Fprintln(stdout, content)
		return nil
	},
}

func init() {
	readmeCmd.Flags().BoolVar(&readmeRemote, "remote", false, "fetch the README from the backend")
	rootCmd.AddCommand(boilerplatesCmd, readmeCmd)
}
