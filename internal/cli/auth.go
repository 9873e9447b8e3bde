package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/medigate/medigate-cli/internal/app"
	"github.com/medigate/medigate-cli/internal/models"
	"github.com/medigate/medigate-cli/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword prompts without echo on a terminal and reads a plain line
// otherwise.
func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		return string(b), err
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func loginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and cache your care data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				if err := a.Session.Login(ctx, email, password); err != nil {
					return err
				}
				snap := a.Session.Snapshot()
				printOK(cmd.OutOrStdout(), fmt.Sprintf("Signed in as %s", snap.User.FullName))
				printSummary(cmd.OutOrStdout(), snap)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func registerCmd(opts *rootOptions) *cobra.Command {
	var req models.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				p, err := readPassword(cmd)
				if err != nil {
					return err
				}
				req.Password = p
			}
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				if err := a.Session.Register(ctx, req); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), fmt.Sprintf("Welcome, %s", a.Session.Snapshot().User.FullName))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Account password (prompted when omitted)")
	cmd.Flags().StringVar(&req.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Phone number")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, a *app.App) error {
				if err := a.Session.Logout(ctx); err != nil {
					// local credentials are gone either way
					fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("Backend did not confirm logout: "+err.Error()))
				}
				printOK(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func whoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(ctx context.Context, a *app.App) error {
				res := a.Services.User.GetUser(ctx)
				u, err := unwrap(res)
				if err != nil {
					return err
				}
				printUser(cmd.OutOrStdout(), u)
				return nil
			})
		},
	}
}

func printUser(w io.Writer, u models.User) {
	fmt.Fprintln(w, titleStyle.Render(u.FullName))
	fmt.Fprintf(w, "  Email:     %s\n", u.Email)
	fmt.Fprintf(w, "  Phone:     %s\n", u.Phone)
	fmt.Fprintf(w, "  Born:      %s\n", u.DateOfBirth)
	if u.MedicalInfo.BloodType != "" {
		fmt.Fprintf(w, "  Blood:     %s\n", u.MedicalInfo.BloodType)
	}
	if len(u.MedicalInfo.Allergies) > 0 {
		fmt.Fprintf(w, "  Allergies: %s\n", strings.Join(u.MedicalInfo.Allergies, ", "))
	}
	if u.EmergencyContact.Name != "" {
		fmt.Fprintf(w, "  Emergency: %s (%s) %s\n", u.EmergencyContact.Name, u.EmergencyContact.Relationship, u.EmergencyContact.Phone)
	}
}

func printSummary(w io.Writer, snap session.Snapshot) {
	rows := []struct {
		name  string
		count int
	}{
		{"doctors", len(snap.Doctors)},
		{"appointments", len(snap.Appointments)},
		{"medications", len(snap.Medications)},
		{"records", len(snap.HealthRecords)},
		{"notifications", len(snap.Notifications)},
		{"pharmacies", len(snap.Pharmacies)},
		{"contacts", len(snap.EmergencyContacts)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-14s %d\n", r.name, r.count)
	}
}

func profileCmd(opts *rootOptions) *cobra.Command {
	var name, phone, address string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := models.UserPatch{}
			if cmd.Flags().Changed("name") {
				patch["fullName"] = name
			}
			if cmd.Flags().Changed("phone") {
				patch["phone"] = phone
			}
			if cmd.Flags().Changed("address") {
				patch["address"] = address
			}
			if len(patch) == 0 {
				return fmt.Errorf("nothing to update, pass --name, --phone or --address")
			}

			return withSession(opts, func(ctx context.Context, a *app.App) error {
				if !a.Session.Restore(ctx) {
					return errNotSignedIn
				}
				if err := a.Session.UpdateUser(ctx, patch); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Profile updated")
				printUser(cmd.OutOrStdout(), *a.Session.Snapshot().User)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&address, "address", "", "Postal address")
	return cmd
}
