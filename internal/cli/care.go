package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/app"
	"github.com/medigate/medigate-cli/internal/models"
	"github.com/medigate/medigate-cli/internal/services"
	"github.com/spf13/cobra"
)

func appointmentsCmd(opts *rootOptions) *cobra.Command {
	var upcoming, past bool

	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appts"},
		Short:   "List and manage appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(ctx context.Context, a *app.App) error {
				var res api.Result[[]models.Appointment]
				title := "Appointments"
				switch {
				case upcoming:
					res, title = a.Services.Appointments.Upcoming(ctx), "Upcoming appointments"
				case past:
					res, title = a.Services.Appointments.Past(ctx), "Past appointments"
				default:
					res = a.Services.Appointments.All(ctx)
				}
				appts, err := unwrap(res)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				printTitle(w, title, len(appts))
				for _, ap := range appts {
					printAppointment(cmd, ap)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "Only today and later")
	cmd.Flags().BoolVar(&past, "past", false, "Only earlier or completed")
	cmd.MarkFlagsMutuallyExclusive("upcoming", "past")

	cmd.AddCommand(bookCmd(opts), cancelCmd(opts), deleteAppointmentCmd(opts))
	return cmd
}

func printAppointment(cmd *cobra.Command, ap models.Appointment) {
	status := string(ap.Status)
	switch ap.Status {
	case models.StatusScheduled:
		status = okStyle.Render(status)
	case models.StatusCancelled:
		status = warnStyle.Render(status)
	}
	printRow(cmd.OutOrStdout(), ap.ID, fmt.Sprintf("%s %s  %s", ap.Date, ap.Time, ap.DoctorName), ap.Type, status)
}

func bookCmd(opts *rootOptions) *cobra.Command {
	var req models.CreateAppointmentRequest

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := models.ParseDate(req.Date); err != nil {
				return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", req.Date)
			}
			return withSession(opts, func(ctx context.Context, a *app.App) error {
				appt, err := a.Session.AddAppointment(ctx, req)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), fmt.Sprintf("Booked appointment %d", appt.ID))
				printAppointment(cmd, appt)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&req.DoctorID, "doctor", 0, "Doctor id")
	cmd.Flags().StringVar(&req.Date, "date", "", "Date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.Time, "time", "", "Time, e.g. \"10:30 AM\"")
	cmd.Flags().StringVar(&req.Type, "type", "In-person", "Visit type")
	cmd.Flags().StringVar(&req.Reason, "reason", "", "Reason for the visit")
	_ = cmd.MarkFlagRequired("doctor")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func cancelCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(opts, func(ctx context.Context, a *app.App) error {
				if err := a.Session.CancelAppointment(ctx, id); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), fmt.Sprintf("Cancelled appointment %d", id))
				return nil
			})
		},
	}
}

func deleteAppointmentCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(opts, func(ctx context.Context, a *app.App) error {
				if err := a.Session.DeleteAppointment(ctx, id); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), fmt.Sprintf("Deleted appointment %d", id))
				return nil
			})
		},
	}
}

func medsCmd(opts *rootOptions) *cobra.Command {
	var active, refill bool

	cmd := &cobra.Command{
		Use:     "meds",
		Aliases: []string{"medications"},
		Short:   "List medications and log doses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(ctx context.Context, a *app.App) error {
				var res api.Result[[]models.Medication]
				title := "Medications"
				switch {
				case active:
					res, title = a.Services.Medications.Active(ctx), "Active medications"
				case refill:
					res, title = a.Services.Medications.NeedingRefill(ctx), "Medications needing refill"
				default:
					res = a.Services.Medications.All(ctx)
				}
				meds, err := unwrap(res)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				printTitle(w, title, len(meds))
				today := time.Now().Format(models.DateLayout)
				for _, m := range meds {
					taken := fmt.Sprintf("%d/%d today", len(m.Taken[today]), len(m.Times))
					printRow(w, m.ID, m.Name+" "+m.Dosage, m.Frequency, taken, fmt.Sprintf("%d refills", m.Refills))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&active, "active", false, "Only courses that have not ended")
	cmd.Flags().BoolVar(&refill, "refill", false, "Only medications out of refills")
	cmd.MarkFlagsMutuallyExclusive("active", "refill")

	cmd.AddCommand(takeCmd(opts))
	return cmd
}

func takeCmd(opts *rootOptions) *cobra.Command {
	var date, at string

	cmd := &cobra.Command{
		Use:   "take <id>",
		Short: "Log a dose as taken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			now := time.Now()
			if date == "" {
				date = now.Format(models.DateLayout)
			}
			if at == "" {
				at = now.Format("03:04 PM")
			}
			return withSession(opts, func(ctx context.Context, a *app.App) error {
				if err := a.Session.MarkMedicationAsTaken(ctx, id, date, at); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), fmt.Sprintf("Logged dose of medication %d at %s %s", id, date, at))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date of the dose (default today)")
	cmd.Flags().StringVar(&at, "time", "", "Scheduled time of the dose (default now)")
	return cmd
}

func recordsCmd(opts *rootOptions) *cobra.Command {
	var category, recordType string
	var recent int

	cmd := &cobra.Command{
		Use:   "records [id]",
		Short: "Browse health records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(ctx context.Context, a *app.App) error {
				w := cmd.OutOrStdout()
				if len(args) == 1 {
					id, err := parseID(args[0])
					if err != nil {
						return err
					}
					r, err := unwrap(a.Services.Records.ByID(ctx, id))
					if err != nil {
						return err
					}
					fmt.Fprintln(w, titleStyle.Render(r.Title))
					fmt.Fprintf(w, "  %s · %s · %s\n", r.Date, r.Category, r.Doctor)
					if r.Status != "" {
						fmt.Fprintf(w, "  Status: %s\n", r.Status)
					}
					return nil
				}

				var res api.Result[[]models.HealthRecord]
				switch {
				case category != "":
					res = a.Services.Records.ByCategory(ctx, category)
				case recordType != "":
					res = a.Services.Records.ByType(ctx, recordType)
				case cmd.Flags().Changed("recent"):
					res = a.Services.Records.Recent(ctx, recent)
				default:
					res = a.Services.Records.All(ctx)
				}
				records, err := unwrap(res)
				if err != nil {
					return err
				}
				printTitle(w, "Health records", len(records))
				for _, r := range records {
					printRow(w, r.ID, r.Title, r.Date, string(r.Category), r.Doctor)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Filter by category: lab, imaging, prescription, vitals, visit")
	cmd.Flags().StringVar(&recordType, "type", "", "Filter by record type")
	cmd.Flags().IntVar(&recent, "recent", services.DefaultRecentLimit, "Show only the most recent records")
	return cmd
}

func notificationsCmd(opts *rootOptions) *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Show notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(ctx context.Context, a *app.App) error {
				res := a.Services.Notifications.All(ctx)
				if unread {
					res = a.Services.Notifications.Unread(ctx)
				}
				notes, err := unwrap(res)
				if err != nil {
					return err
				}
				count, err := unwrap(a.Services.Notifications.UnreadCount(ctx))
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				printTitle(w, fmt.Sprintf("Notifications, %d unread", count), len(notes))
				if len(notes) == 0 {
					printEmpty(w, "Nothing new.")
				}
				for _, n := range notes {
					title := n.Title
					if !n.Read {
						title = titleStyle.Render("● ") + title
					}
					printRow(w, n.ID, title, n.Time, strings.TrimSpace(n.Message))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "Only unread notifications")

	cmd.AddCommand(&cobra.Command{
		Use:   "read <id|all>",
		Short: "Mark a notification, or all of them, as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "all" {
				return withSession(opts, func(ctx context.Context, a *app.App) error {
					if err := a.Session.MarkAllNotificationsAsRead(ctx); err != nil {
						return err
					}
					printOK(cmd.OutOrStdout(), "All notifications marked as read")
					return nil
				})
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(opts, func(ctx context.Context, a *app.App) error {
				if err := a.Session.MarkNotificationAsRead(ctx, id); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), fmt.Sprintf("Notification %d marked as read", id))
				return nil
			})
		},
	})
	return cmd
}
