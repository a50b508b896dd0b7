package commands

import (
	"strings"

	"directed/internal/models"
	"directed/internal/serviceinterfaces"
	contextutils "directed/internal/utils"

	"github.com/spf13/cobra"
)

// AssistantCommands returns ask, generate and profile, which call the services directly
func AssistantCommands(
	assistant serviceinterfaces.AssistantRunner,
	content serviceinterfaces.ContentService,
	profiles serviceinterfaces.ProfileStore,
	defaults models.ContentRequest,
) []*cobra.Command {
	return []*cobra.Command{
		askCmd(assistant),
		generateCmd(content, defaults),
		profileCmd(profiles),
	}
}

func askCmd(assistant serviceinterfaces.AssistantRunner) *cobra.Command {
	var (
		userID     string
		instructor bool
	)

	cmd := &cobra.Command{
		Use:   "ask <request text>",
		Short: "Run one request through the assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := assistant.Run(cmd.Context(), strings.Join(args, " "), userID, nil, instructor)
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if result.Failed() {
				return contextutils.NewAppError(contextutils.ErrorCodeExecutionFailed, contextutils.SeverityError, "assistant run failed", result.Failure.Details)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "cli", "learner id")
	cmd.Flags().BoolVar(&instructor, "instructor", false, "answer as an instructor")
	return cmd
}

func generateCmd(content serviceinterfaces.ContentService, defaults models.ContentRequest) *cobra.Command {
	var (
		requestType string
		req         = defaults
	)

	cmd := &cobra.Command{
		Use:   "generate <subject>",
		Short: "Generate flashcards, a quiz or practice questions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, ok := models.ParseContentType(requestType)
			if !ok {
				return contextutils.ErrInvalidContentType
			}
			req.Type = contentType
			req.Topic = strings.Join(args, " ")

			out, err := content.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&requestType, "type", "t", string(models.ContentTypeQuiz), "quiz, flashcards or practice")
	cmd.Flags().IntVarP(&req.NumItems, "num", "n", defaults.NumItems, "number of items")
	cmd.Flags().StringVar(&req.Level, "level", defaults.Level, "difficulty level")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "extra notes folded into the content")
	return cmd
}

func profileCmd(profiles serviceinterfaces.ProfileStore) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <user id>",
		Short: "Show a learner's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !contextutils.IsValidUserID(args[0]) {
				return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid user id %q", args[0])
			}
			snap, err := profiles.GetProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
}
