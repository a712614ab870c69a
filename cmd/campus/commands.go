package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-portal"
	"github.com/spf13/cobra"
)

func resultErr(r portal.Result) error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("%s", r.Error)
}

func newLoginCmd() *cobra.Command {
	var creds portal.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the portal",
		Example: `  campus login --user ada@campus.edu
  campus login --user ada --password s3cret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := promptCredentials(&creds); err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ctx, _ = a.start(ctx)
				if err := resultErr(a.manager.Login(ctx, creds)); err != nil {
					return err
				}
				printSession(cmd, a.manager.Snapshot())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&creds.Identifier, "user", "u", "", "email or username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var (
		reg  portal.Registration
		role string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a portal account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != "" {
				parsed, ok := portal.ParseRole(role)
				if !ok {
					return fmt.Errorf("unknown role %q", role)
				}
				reg.Role = parsed
			}
			if err := promptRegistration(&reg); err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ctx, _ = a.start(ctx)
				return resultErr(a.manager.Register(ctx, reg))
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&reg.Email, "email", "", "email address")
	flags.StringVar(&reg.Username, "username", "", "username, defaults to the email local part")
	flags.StringVar(&reg.FirstName, "first-name", "", "first name")
	flags.StringVar(&reg.LastName, "last-name", "", "last name")
	flags.StringVar(&role, "role", "", "admin, faculty, student or parent")
	flags.StringVar(&reg.Password, "password", "", "password")
	flags.StringVar(&reg.PasswordConfirm, "password-confirm", "", "password confirmation")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ctx, _ = a.start(ctx)
				a.manager.Logout(ctx)
				return nil
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ctx, snap := a.start(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), field("Status", snap.Status.String()))
				user, ok := portal.UserFromContext(ctx)
				if !ok {
					return nil
				}
				printUser(cmd, user)

				if token, ok := a.store.Read(); ok && snap.IsAuthenticated() {
					if info, err := portal.InspectToken(token); err == nil && !info.ExpiresAt.IsZero() {
						fmt.Fprintln(cmd.OutOrStdout(), field("Expires", fmt.Sprintf("%s (in %s)",
							info.ExpiresAt.Local().Format(time.RFC1123),
							info.Remaining(time.Now()).Round(time.Minute))))
					}
				}
				return nil
			})
		},
	}
}

func newProfileCmd() *cobra.Command {
	var firstName, lastName, email, phone string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		Example: `  campus profile
  campus profile --first-name Ada --phone "+1 650 253 0000"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var update portal.ProfileUpdate
			flags := cmd.Flags()
			if flags.Changed("first-name") {
				update.FirstName = &firstName
			}
			if flags.Changed("last-name") {
				update.LastName = &lastName
			}
			if flags.Changed("email") {
				update.Email = &email
			}
			if flags.Changed("phone") {
				update.Phone = &phone
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				ctx, snap := a.start(ctx)
				if !snap.IsAuthenticated() {
					return fmt.Errorf("%s", portal.UserMessage(portal.ErrNotAuthenticated, ""))
				}
				if !update.IsEmpty() {
					if err := resultErr(a.manager.UpdateProfile(ctx, update)); err != nil {
						return err
					}
				}
				printSession(cmd, a.manager.Snapshot())
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&firstName, "first-name", "", "new first name")
	flags.StringVar(&lastName, "last-name", "", "new last name")
	flags.StringVar(&email, "email", "", "new email")
	flags.StringVar(&phone, "phone", "", "new phone number")
	return cmd
}

func newPasswdCmd() *cobra.Command {
	var change portal.PasswordChange

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ctx, snap := a.start(ctx)
				if !snap.IsAuthenticated() {
					return fmt.Errorf("%s", portal.UserMessage(portal.ErrNotAuthenticated, ""))
				}
				if err := promptPasswordChange(&change); err != nil {
					return err
				}
				return resultErr(a.manager.ChangePassword(ctx, change))
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&change.OldPassword, "old", "", "current password")
	flags.StringVar(&change.NewPassword, "new", "", "new password")
	flags.StringVar(&change.NewPasswordConfirm, "confirm", "", "new password confirmation")
	return cmd
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Report what the portal shows for a view path",
		Long: `open runs the access gate for a portal path with the current session and
prints the decision and where the portal would end up.

  /            landing page
  /login       sign in
  /dashboard   sends you to the home of your role
  /<role>/...  role portals (admin, faculty, student, parent)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				_, snap := a.start(ctx)
				out := visit(snap, args[0])

				w := cmd.OutOrStdout()
				fmt.Fprintln(w, field("Path", out.Route.Path))
				fmt.Fprintln(w, field("Decision", out.Decision.String()))
				if out.Location != "" {
					fmt.Fprintln(w, field("Location", out.Location))
				}
				return nil
			})
		},
	}
}

// visit runs the gate and follows the dashboard dispatch once
func visit(snap portal.Snapshot, path string) portal.Outcome {
	out := portal.NewNavigator().Visit(snap, path)
	if out.Decision == portal.Render && out.Route.Path == portal.PathDashboard {
		if home, navigate := portal.Home(snap, out.Location); navigate {
			out.Location = home
		}
	}
	return out
}

func newRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List the portal roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, role := range portal.AllRoles() {
				info, _ := role.Info()
				body := strings.Join([]string{
					titleStyle.Render(info.Title) + "  " + role.HomePath(),
					info.Description,
					"• " + strings.Join(info.Features, "\n• "),
				}, "\n")
				fmt.Fprintln(w, boxStyle.Render(body))
			}
			return nil
		},
	}
}

func printSession(cmd *cobra.Command, snap portal.Snapshot) {
	fmt.Fprintln(cmd.OutOrStdout(), field("Status", snap.Status.String()))
	if snap.IsAuthenticated() {
		printUser(cmd, snap.User)
	}
}

func printUser(cmd *cobra.Command, u *portal.User) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, field("Name", u.FullName()))
	fmt.Fprintln(w, field("Email", u.Email))
	fmt.Fprintln(w, field("Username", u.Username))
	fmt.Fprintln(w, field("Role", u.Role.Title()))
	if u.Phone != "" {
		fmt.Fprintln(w, field("Phone", u.Phone))
	}
	fmt.Fprintln(w, field("Home", u.Role.HomePath()))
}
