package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"coursehub/internal/auth/models"
	"coursehub/internal/navigation"
	"coursehub/internal/notify"
	"coursehub/internal/session"
)

func loginCmd(rt *runtime) *cobra.Command {
	var creds models.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a student id, admin id or username",
		Long: `Log in and keep the session for later commands.

The password is read from stdin when --password is omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if rt.alreadyIn(cmd) {
				return nil
			}
			if creds.Password == "" {
				creds.Password = rt.readLine()
			}

			if _, err := rt.app.Auth.Login(ctx, creds); err != nil {
				return err
			}

			redirect := rt.app.Navigator.Current().RedirectTarget()
			if redirect == "" {
				redirect = navigation.PathHome
			}
			loc, _, err := rt.app.Navigator.Push(ctx, redirect)
			if err != nil {
				return err
			}

			user := rt.app.Session.User()
			return rt.printer().emit(user, func() {
				rt.printer().line("Logged in as %s (%s, %s)", user.DisplayName(), user.UserID(), user.Role())
				rt.printer().line("Now at %s", loc.FullPath())
			})
		},
	}
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "Student id, admin id or username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "Password")
	_ = cmd.MarkFlagRequired("username")
	return routed(cmd, navigation.PathLogin)
}

func registerCmd(rt *runtime) *cobra.Command {
	var reg models.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a student account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.alreadyIn(cmd) {
				return nil
			}
			if reg.Password == "" {
				reg.Password = rt.readLine()
			}
			profile, err := rt.app.Auth.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			return rt.printer().emit(profile, func() {
				rt.printer().line("Registered %s; log in with: coursehub login -u %s", profile.DisplayName(), profile.UserID())
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&reg.StudentID, "student-id", "", "Student id")
	f.StringVar(&reg.Name, "name", "", "Full name")
	f.StringVarP(&reg.Password, "password", "p", "", "Password, at least 6 characters")
	f.StringVar(&reg.IDNumber, "id-number", "", "National id number")
	f.StringVar(&reg.BirthDate, "birth-date", "", "Birth date, YYYY-MM-DD")
	f.StringVar(&reg.Address, "address", "", "Address")
	f.StringVar(&reg.Email, "email", "", "Email")
	f.StringVar(&reg.Phone, "phone", "", "Phone")
	f.StringVar(&reg.DepartmentID, "department", "", "Department id")
	f.StringVar(&reg.Major, "major", "", "Major")
	f.IntVar(&reg.Grade, "grade", 0, "Enrollment year")
	return routed(cmd, navigation.PathRegister)
}

// alreadyIn handles login and register for a user who is logged in.
func (rt *runtime) alreadyIn(cmd *cobra.Command) bool {
	if rt.redirected.Path == "" {
		return false
	}
	notify.Info(cmd.Context(), rt.notifier, fmt.Sprintf("already logged in as %s; run coursehub logout first", rt.app.Session.DisplayName()))
	return true
}

func logoutCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.Auth.Logout(cmd.Context())
		},
	}
	return routed(cmd, navigation.PathWelcome)
}

func whoamiCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := rt.app.Auth.FetchCurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			return rt.printer().emit(user, func() { printProfile(rt.printer(), user) })
		},
	}
	return routed(cmd, "/profile")
}

func printProfile(p printer, user *session.Profile) {
	p.fields(
		[2]string{"Name", user.DisplayName()},
		[2]string{"ID", user.UserID()},
		[2]string{"Role", user.Role()},
		[2]string{"Email", user.Email},
		[2]string{"Phone", user.Phone},
		[2]string{"Department", user.DepartmentID.String()},
		[2]string{"Major", user.Major},
	)
}

func refreshCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the token for a fresh one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := rt.app.Auth.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			return rt.printer().emit(map[string]int{"expires_in": result.ExpiresIn}, func() {
				rt.printer().line("Token refreshed, valid for %ds", result.ExpiresIn)
			})
		},
	}
	return routed(cmd, navigation.PathHome)
}
