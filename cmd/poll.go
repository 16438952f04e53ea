package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/ui"
)

var pollCmd = &cobra.Command{
	Use:   "poll <workflow-id>",
	Short: "Wait for an asynchronous backend workflow to finish",
	Long: `Poll the backend for the status of a workflow at the configured interval
(polling.interval) until it completes, fails, or polling.maxAttempts is spent.
The workflow result is printed as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		poller := gateway.NewPoller(newBackendClient(cfg), gateway.PollConfig{
			Interval:    cfg.Polling.Interval,
			MaxAttempts: cfg.Polling.MaxAttempts,
		}, nil)

		var st *gateway.WorkflowStatus
		label := fmt.Sprintf("Waiting for workflow %s...", args[0])
		err := withSpinner(ui.NewSpinner(""), label, func() error {
			var err error
			st, err = poller.Wait(cmd.Context(), args[0])
			return err
		})
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(st)
		}
		printSuccess(fmt.Sprintf("Workflow %s %s", args[0], st.Status))
		fmt.Fprintln(stdout, string(st.Result))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pollCmd)
}
