package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/ui"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the LLM providers available on the backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newBackendClient(GetConfig())
		resp, err := client.Models(cmd.Context())
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(resp)
		}

		w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  PROVIDER\tLABEL\tAVAILABLE")
		for _, p := range resp.Providers {
			marker := " "
			if p.Value == resp.CurrentProvider {
				marker = "*"
			}
			available := "no"
			if p.Available {
				available = "yes"
			}
			fmt.Fprintf(w, "%s %s\t%s\t%s\n", marker, p.Value, p.Label, available)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, dim(fmt.Sprintf("\nCurrent: %s / %s", resp.CurrentProvider, resp.CurrentModel)))
		return nil
	},
}

var modelsSetCmd = &cobra.Command{
	Use:   "set [provider] [model]",
	Short: "Switch the backend's active provider and model",
	Long: `Switch the backend's active LLM provider, optionally with a model.
Without arguments an interactive list of the available providers is shown.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newBackendClient(GetConfig())

		var provider, model string
		switch len(args) {
		case 2:
			provider, model = args[0], args[1]
		case 1:
			provider = args[0]
		default:
			if !ui.IsInteractive() {
				return errors.New("provider argument required when not running in a terminal")
			}
			resp, err := client.Models(cmd.Context())
			if err != nil {
				return err
			}
			var options []ui.Option
			for _, p := range resp.Providers {
				if !p.Available {
					continue
				}
				options = append(options, ui.Option{ID: p.Value, Name: p.Label, Description: p.Value})
			}
			provider, err = ui.Select("Select LLM provider", options, resp.CurrentProvider)
			if err != nil {
				return err
			}
		}

		active, err := client.SetModel(cmd.Context(), provider, model)
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(map[string]string{"provider": provider, "model": active})
		}
		printSuccess(fmt.Sprintf("Backend now uses %s / %s", provider, active))
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsSetCmd)
	rootCmd.AddCommand(modelsCmd)
}
