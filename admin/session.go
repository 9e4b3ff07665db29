package admin

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mrermin/ermin/app"
	"github.com/mrermin/ermin/internal/cli"
	"github.com/mrermin/ermin/internal/types"
)

const (
	privacyText    = "Ich stimme der Datenschutzerklärung und der Speicherung meiner E‑Mail zu."
	unmountTimeout = 5 * time.Second
)

// NewLoginCmd instantiates and returns the login command.
func NewLoginCmd(a *app.App) *cobra.Command {
	var opts struct {
		AcceptPrivacy bool
	}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google and store the session",
		Long:  "Serve the Google sign-in page on a loopback address, wait for the sign-in and exchange it for a backend session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !opts.AcceptPrivacy && !cli.QueryUser(privacyText) {
				return errors.New("login requires accepting the privacy policy")
			}

			signIn := a.NewSignIn()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), unmountTimeout)
				defer cancel()
				signIn.Unmount(ctx)
			}()
			url, err := signIn.Mount(ctx)
			if err != nil {
				return err
			}
			cli.Info("Open this page in your browser to sign in:\n")
			cli.Link(url)

			go func() {
				if signIn.Ready(ctx) == types.CapabilityUnavailable {
					cli.Error("Google Sign-In did not load. Check the network and reload the page.\n")
				}
			}()

			assertion, err := signIn.Wait(ctx)
			if err != nil {
				return errors.Wrap(err, "waiting for sign-in")
			}

			manager := a.NewManager()
			manager.SetAssertion(assertion)
			manager.SetConsent(true)
			if err := manager.Login(ctx); err != nil {
				return err
			}
			user := manager.Snapshot().User
			cli.Title("👤 Angemeldet als: %s", user.Name)
			cli.Info("%s\n", user.Email)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.AcceptPrivacy, "accept-privacy", false, privacyText)

	return cmd
}

// NewLogoutCmd instantiates and returns the logout command.
func NewLogoutCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Store.Clear(); err != nil {
				return errors.Wrap(err, "clearing session")
			}
			cli.Info("Ausgeloggt.\n")
			return nil
		},
	}
}

// NewVerifyEmailCmd instantiates and returns the verify-email command.
func NewVerifyEmailCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <code>",
		Short: "Redeem the code from a verification email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Backend.VerifyEmail(cmd.Context(), args[0]); err != nil {
				return errors.Wrap(err, "verifying email")
			}
			cli.Info("E-Mail bestätigt.\n")
			return nil
		},
	}
}
