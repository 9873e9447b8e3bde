package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/medigate/medigate-cli/internal/app"
	"github.com/medigate/medigate-cli/internal/models"
	"github.com/spf13/cobra"
)

func feedbackCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Send feedback about the app",
	}
	cmd.AddCommand(
		submitFeedbackCmd(opts),
		listFeedbackCmd(opts),
		syncFeedbackCmd(opts),
		deleteFeedbackCmd(opts),
		clearFeedbackCmd(opts),
	)
	return cmd
}

func submitFeedbackCmd(opts *rootOptions) *cobra.Command {
	var in models.FeedbackInput
	var category string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record a feedback entry and deliver it when a collector is configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Category = models.FeedbackCategory(category)
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				res := a.Services.Feedback.Submit(ctx, in)
				if !res.OK() {
					return errors.New(res.Error)
				}
				printOK(cmd.OutOrStdout(), res.Message)
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("id "+res.Data.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", string(models.FeedbackOther), "bug, feature, improvement, complaint or other")
	cmd.Flags().StringVarP(&in.Subject, "subject", "s", "", "Short summary")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "What happened")
	cmd.Flags().IntVarP(&in.Rating, "rating", "r", 0, "Rating from 1 to 5")
	cmd.Flags().StringVar(&in.Email, "email", "", "Contact email for follow-up")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func listFeedbackCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [id]",
		Short: "Show submitted feedback",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				w := cmd.OutOrStdout()
				if len(args) == 1 {
					res := a.Services.Feedback.ByID(ctx, args[0])
					if !res.OK() {
						return errors.New(res.Error)
					}
					sub := res.Data
					fmt.Fprintln(w, titleStyle.Render(sub.Subject))
					fmt.Fprintf(w, "  %s · %s · %s\n", sub.Category, sub.Status, sub.Timestamp)
					fmt.Fprintf(w, "  %s\n", sub.Description)
					return nil
				}

				res := a.Services.Feedback.History(ctx)
				if !res.OK() {
					return errors.New(res.Error)
				}
				printTitle(w, "Feedback", len(res.Data))
				if len(res.Data) == 0 {
					printEmpty(w, "No feedback yet.")
				}
				for _, sub := range res.Data {
					printRow(w, "", sub.Subject, sub.ID, string(sub.Category), yesNo(sub.Status == models.FeedbackSynced, "synced", "pending"))
				}
				return nil
			})
		},
	}
}

func syncFeedbackCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Retry delivery of pending feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				if a.CronRunner == nil {
					return fmt.Errorf("no feedback collector configured")
				}
				n, err := a.CronRunner.RunNow(ctx)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), fmt.Sprintf("Delivered %d pending submission(s)", n))
				return nil
			})
		},
	}
}

func deleteFeedbackCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one feedback entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				res := a.Services.Feedback.Delete(ctx, args[0])
				if !res.OK() {
					return errors.New(res.Error)
				}
				printOK(cmd.OutOrStdout(), res.Message)
				return nil
			})
		},
	}
}

func clearFeedbackCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				res := a.Services.Feedback.ClearAll(ctx)
				if !res.OK() {
					return errors.New(res.Error)
				}
				printOK(cmd.OutOrStdout(), res.Message)
				return nil
			})
		},
	}
}
