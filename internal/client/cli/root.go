package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidemoi/aidemoi/internal/client/client"
	"github.com/aidemoi/aidemoi/internal/client/session"
	"github.com/aidemoi/aidemoi/internal/common"
	"github.com/aidemoi/aidemoi/internal/cryptox"
	"github.com/aidemoi/aidemoi/internal/jwtx"
)

// getSimpleText, getPassword and getNewPassword are swapped in tests.
var (
	getSimpleText  = GetSimpleText
	getPassword    = GetPassword
	getNewPassword = GetNewPassword
)

// RootCommand builds the command tree bound to a.
func (a *App) RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "aidemoi",
		Short:         "AideMoi account and session client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(a.out)
	cmd.AddCommand(
		a.newLoginCommand(),
		a.newRegisterCommand(),
		a.newLogoutCommand(),
		a.newProfileCommand(),
		a.newStatusCommand(),
		a.newRefreshCommand(),
		a.newWatchCommand(),
	)
	return cmd
}

func (a *App) newLoginCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				if email, err = getSimpleText(a.in, "Email", a.out); err != nil {
					return err
				}
			}

			password, err := getPassword("Password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			user, err := a.store.Login(cmd.Context(), session.Credentials{Email: email, Password: string(password)})
			if err != nil {
				return err
			}

			a.printf("Logged in as %s (%s)\n", user.Username, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *App) newRegisterCommand() *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if username == "" {
				if username, err = getSimpleText(a.in, "Username", a.out); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = getSimpleText(a.in, "Email", a.out); err != nil {
					return err
				}
			}

			password, err := getNewPassword(a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			if res := cryptox.ValidateStrength(string(password)); !res.Valid {
				return errors.New(res.Reason)
			}

			user, err := a.store.Register(cmd.Context(), session.RegisterData{
				Username: username,
				Email:    email,
				Password: string(password),
			})
			if err != nil {
				return err
			}

			a.printf("Registered %s. Run \"login\" to sign in.\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *App) newLogoutCommand() *cobra.Command {
	var all, notify bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if all {
				st := a.store.Snapshot()
				if st.Tokens == nil {
					return session.ErrNotAuthenticated
				}
				n, err := a.api.LogoutAll(ctx, st.Tokens.Token)
				if err != nil {
					return err
				}
				a.printf("Revoked %d stored session(s)\n", n)
			}

			if err := a.store.Logout(ctx, notify && !all); err != nil {
				return err
			}
			a.printf("Logged out\n")
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "also revoke the stored refresh token on the server")
	cmd.Flags().BoolVar(&notify, "notify", false, "tell the server in the background")
	return cmd
}

func (a *App) newProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Fetch the signed-in user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st := a.store.Snapshot()
			if st.Tokens == nil {
				return session.ErrNotAuthenticated
			}

			user, err := a.api.Profile(ctx, st.Tokens.Token)
			if err != nil {
				if errors.Is(err, client.ErrUnauthorized) {
					_ = a.store.ExpireLocal(ctx)
					a.printf("Session expired, please log in again\n")
				}
				return err
			}

			if err := a.store.UpdateUser(ctx, session.UserPatch{
				Username: &user.Username,
				Email:    &user.Email,
				Roles:    user.Roles,
			}); err != nil {
				return err
			}

			a.printf("ID:       %d\nUsername: %s\nEmail:    %s\nRoles:    %v\n", user.ID, user.Username, user.Email, user.Roles)
			return nil
		},
	}
}

func (a *App) newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local session and server reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.Ping(cmd.Context()); err != nil {
				a.printf("Server:   offline (%v)\n", err)
			} else {
				a.printf("Server:   online\n")
			}

			st := a.store.Snapshot()
			if st.User == nil || st.Tokens == nil {
				a.printf("Session:  anonymous\n")
				return nil
			}

			a.printf("Session:  %s (%s)\n", st.User.Username, st.User.Email)
			if exp, ok := jwtx.DecodeExpiry(st.Tokens.Token); ok {
				left := time.Until(exp).Truncate(time.Second)
				if left > 0 {
					a.printf("Access:   expires %s (in %s)\n", exp.Format(time.RFC3339), left)
				} else {
					a.printf("Access:   expired %s\n", exp.Format(time.RFC3339))
				}
			}
			if st.Tokens.RefreshExpiresAt != "" {
				a.printf("Refresh:  expires %s\n", st.Tokens.RefreshExpiresAt)
			}
			return nil
		},
	}
}

func (a *App) newRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := a.store.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("Tokens refreshed, access token expires %s\n", tokens.ExpiresAt)
			return nil
		},
	}
}
