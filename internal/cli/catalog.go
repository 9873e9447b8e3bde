package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/app"
	"github.com/medigate/medigate-cli/internal/models"
	"github.com/spf13/cobra"
)

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func doctorsCmd(opts *rootOptions) *cobra.Command {
	var specialty, name string

	cmd := &cobra.Command{
		Use:     "doctors [id]",
		Aliases: []string{"doctor"},
		Short:   "Browse the doctor directory",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(ctx context.Context, a *app.App) error {
				w := cmd.OutOrStdout()
				if len(args) == 1 {
					id, err := parseID(args[0])
					if err != nil {
						return err
					}
					d, err := unwrap(a.Services.Doctors.ByID(ctx, id))
					if err != nil {
						return err
					}
					fmt.Fprintln(w, titleStyle.Render(d.Name)+" "+yesNo(d.Verified, "verified", ""))
					fmt.Fprintf(w, "  %s, %s experience\n", d.Specialty, d.Experience)
					fmt.Fprintf(w, "  Rating %.1f (%d reviews), fee %.2f\n", d.Rating, d.Reviews, d.ConsultationFee)
					fmt.Fprintf(w, "  %s · %s\n", d.Phone, d.Email)
					if d.About != "" {
						fmt.Fprintln(w, mutedStyle.Render("  "+d.About))
					}
					return nil
				}

				var res api.Result[[]models.Doctor]
				switch {
				case specialty != "":
					res = a.Services.Doctors.SearchBySpecialty(ctx, specialty)
				case name != "":
					res = a.Services.Doctors.SearchByName(ctx, name)
				default:
					res = a.Services.Doctors.All(ctx)
				}
				doctors, err := unwrap(res)
				if err != nil {
					return err
				}
				printTitle(w, "Doctors", len(doctors))
				for _, d := range doctors {
					printRow(w, d.ID, d.Name, d.Specialty, fmt.Sprintf("★ %.1f", d.Rating), d.Availability)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&specialty, "specialty", "", "Filter by specialty (substring, any case)")
	cmd.Flags().StringVar(&name, "name", "", "Filter by name (substring, any case)")
	return cmd
}

func pharmaciesCmd(opts *rootOptions) *cobra.Command {
	var open bool
	var name string

	cmd := &cobra.Command{
		Use:     "pharmacies [id]",
		Aliases: []string{"pharmacy"},
		Short:   "Find nearby pharmacies",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(ctx context.Context, a *app.App) error {
				w := cmd.OutOrStdout()
				if len(args) == 1 {
					id, err := parseID(args[0])
					if err != nil {
						return err
					}
					p, err := unwrap(a.Services.Pharmacies.ByID(ctx, id))
					if err != nil {
						return err
					}
					fmt.Fprintln(w, titleStyle.Render(p.Name)+" "+yesNo(p.Open, "open", "closed"))
					fmt.Fprintf(w, "  %s (%s)\n  %s\n", p.Address, p.Distance, p.Phone)
					days := make([]string, 0, len(p.Hours))
					for day := range p.Hours {
						days = append(days, day)
					}
					sort.Strings(days)
					for _, day := range days {
						fmt.Fprintf(w, "  %-10s %s\n", day, p.Hours[day])
					}
					return nil
				}

				var res api.Result[[]models.Pharmacy]
				switch {
				case open:
					res = a.Services.Pharmacies.Open(ctx)
				case name != "":
					res = a.Services.Pharmacies.SearchByName(ctx, name)
				default:
					res = a.Services.Pharmacies.All(ctx)
				}
				pharmacies, err := unwrap(res)
				if err != nil {
					return err
				}
				printTitle(w, "Pharmacies", len(pharmacies))
				for _, p := range pharmacies {
					printRow(w, p.ID, p.Name, p.Distance, yesNo(p.Open, "open", "closed"))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "Only pharmacies open now")
	cmd.Flags().StringVar(&name, "name", "", "Filter by name (substring, any case)")
	return cmd
}

func emergencyCmd(opts *rootOptions) *cobra.Command {
	var contactType string

	cmd := &cobra.Command{
		Use:   "emergency",
		Short: "List emergency contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(ctx context.Context, a *app.App) error {
				res := a.Services.Emergency.All(ctx)
				if contactType != "" {
					res = a.Services.Emergency.ByType(ctx, contactType)
				}
				contacts, err := unwrap(res)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				printTitle(w, "Emergency contacts", len(contacts))
				for _, c := range contacts {
					printRow(w, c.ID, c.Name+"  "+c.Phone, c.Type, c.Description)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&contactType, "type", "", "Only contacts of this type, e.g. \"Primary Care\"")
	return cmd
}
