package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/chat"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/ui"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

var chatNew bool

var chatCmd = &cobra.Command{
	Use:   "chat <step>",
	Short: "Refine a step in an interactive chat session",
	Long: `Open a refinement chat with the backend for a pipeline step.

A paused session for the same step is resumed unless --new is passed.
Inside the chat, type an answer and press Enter. Commands:
  /pause    pause the session and leave
  /resume   resume a paused session
  /cancel   cancel the session
  /quit     leave without changing the session
Esc or Ctrl+C also leaves the chat.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := parseStepArg(args[0])
		if err != nil {
			return err
		}
		if !ui.IsInteractive() {
			return errors.New("chat needs an interactive terminal")
		}
		return withSession(cmd.Context(), func(s *session) error {
			state := s.ctrl.State()
			ref := state.ChatSession
			resume := !chatNew && ref != nil && ref.Step == step && ref.Status == wizard.ChatPaused

			if !resume {
				sess, err := createChatSession(cmd, s, state, step)
				if err != nil {
					return err
				}
				ref = &wizard.ChatSessionRef{
					SessionID:   sess.SessionID,
					Status:      wizard.ChatActive,
					ContextType: sess.ContextType,
					Step:        step,
				}
				s.ctrl.AttachChatSession(*ref)
			}

			client := chat.NewClient(ref.SessionID, s.cfg.Backend.WSBaseURL)
			defer func() { _ = client.Close() }()

			var started func() error
			if resume {
				started = func() error {
					if err := client.ResumeSession(); err != nil {
						return err
					}
					return s.ctrl.SetChatStatus(wizard.ChatActive)
				}
			}

			record := func(m chat.Message) {
				if m.SessionID == "" {
					m.SessionID = ref.SessionID
				}
				if err := s.store.AppendChatMessage(s.projectID, m); err != nil {
					slog.Warn("failed to store chat message", "session", ref.SessionID, "error", err)
				}
			}
			title := fmt.Sprintf("Step %d: %s · %s", step, step, ref.ContextType)
			res, err := ui.RunChat(cmd.Context(), client, title, record, started)
			if err != nil {
				return err
			}
			return finishChat(s, res)
		})
	},
}

func createChatSession(cmd *cobra.Command, s *session, state *wizard.State, step wizard.StepID) (*chat.Session, error) {
	contextType := chat.ContextTypeForStep(int(step))
	initial := chat.InitialContext(int(step), chat.ContextInput{
		ProjectName:         state.ProjectName,
		BoilerplateTemplate: state.BoilerplateTemplate,
		Requirements:        state.Requirements(),
		ExistingSchema:      state.Step(wizard.StepSchema).Content(),
	})
	cfg := chat.SessionConfig{
		MaxQuestions:   s.cfg.Chat.MaxQuestions,
		TimeoutMinutes: s.cfg.Chat.TimeoutMinutes,
		AutoFinalize:   s.cfg.Chat.AutoFinalize,
		Temperature:    s.cfg.Chat.Temperature,
		Model:          s.cfg.Chat.Model,
	}

	var sess *chat.Session
	err := s.run("Starting chat session...", func() error {
		var err error
		sess, err = chat.NewSessions(s.cfg.Backend.BaseURL).CreateSession(cmd.Context(), contextType, initial, &cfg)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	if sess.ContextType == "" {
		sess.ContextType = contextType
	}
	return sess, nil
}

// finishChat folds the TUI outcome into the stored session reference.
func finishChat(s *session, res ui.ChatResult) error {
	switch {
	case res.Outcome == ui.ChatCancelled:
		s.ctrl.DetachChatSession()
		printWarning("Chat session cancelled.")
	case res.Outcome == ui.ChatFinished:
		if err := s.ctrl.SetChatStatus(wizard.ChatCompleted); err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("Chat session completed (%d messages).", len(res.Messages)))
	case res.Paused:
		if err := s.ctrl.SetChatStatus(wizard.ChatPaused); err != nil {
			return err
		}
		fmt.Fprintln(stdout, dim("Chat paused. Run the same command again to resume."))
	default:
		fmt.Fprintln(stdout, dim("Left the chat; the session stays open on the backend."))
	}
	return nil
}

var transcriptSession string

var chatTranscriptCmd = &cobra.Command{
	Use:   "transcript",
	Short: "Print the stored chat messages of the current project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			records, err := s.store.ChatTranscript(s.projectID, transcriptSession)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(records)
			}
			if len(records) == 0 {
				fmt.Fprintln(stdout, dim("No chat messages stored."))
				return nil
			}
			for _, r := range records {
				prefix := ui.StylePrefixBot.Render("bot ")
				if r.Sender == string(chat.SenderUser) {
					prefix = ui.StylePrefixUser.Render("you ")
				}
				fmt.Fprintf(stdout, "%s %s %s\n", dim(r.CreatedAt.Local().Format("2006-01-02 15:04")), prefix, r.Content)
			}
			return nil
		})
	},
}

func init() {
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "start a new session even if a paused one exists")
	chatTranscriptCmd.Flags().StringVar(&transcriptSession, "session", "", "only show messages of this session id")
	chatCmd.AddCommand(chatTranscriptCmd)
	rootCmd.AddCommand(chatCmd)
}
