package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olsync/olsync/internal/auth"
)

// Cookie names as set by the Overleaf web login.
const (
	sessionCookieName = "overleaf_session2"
	gclbCookieName    = "GCLB"
)

func init() {
	rootCmd.AddCommand(newLoginCmd(), newLogoutCmd(), newWhoamiCmd())
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store an Overleaf session credential",
		Long: "Stores the session cookies of an existing browser login.\n" +
			"Log into Overleaf in your browser, then copy the values of the\n" +
			"overleaf_session2 and GCLB cookies from its developer tools.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := auth.DefaultDir()
			if err != nil {
				return err
			}
			store := auth.NewStore(dir)

			if session, err := store.Load(); err == nil {
				fmt.Printf("Already logged in as %s. Use %s to switch accounts.\n",
					green(session.Email), cyan("olsync logout"))
				return nil
			}

			email, err := readLine("Account email: ")
			if err != nil {
				return err
			}
			if email == "" {
				return errors.New("email must not be empty")
			}

			sessionValue, err := readSecret(sessionCookieName + " cookie: ")
			if err != nil {
				return err
			}
			if sessionValue == "" {
				return errors.New("session cookie must not be empty")
			}

			gclbValue, err := readSecret(gclbCookieName + " cookie: ")
			if err != nil {
				return err
			}

			// The browser's cookie inspector shows the expiry next to the
			// value; recording it lets whoami warn before the remote starts
			// rejecting the session.
			expiryInput, err := readLine("Cookie expiry (YYYY-MM-DD, blank if unknown): ")
			if err != nil {
				return err
			}
			expiry, err := auth.ParseExpiry(expiryInput)
			if err != nil {
				return err
			}

			session := &auth.Session{
				Email:         email,
				SessionCookie: auth.Cookie{Name: sessionCookieName, Value: sessionValue, Expires: expiry},
				GCLBCookie:    auth.Cookie{Name: gclbCookieName, Value: gclbValue},
			}
			if err := store.Save(session); err != nil {
				return err
			}

			fmt.Printf("Logged in as %s.\n", green(email))
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := auth.DefaultDir()
			if err != nil {
				return err
			}
			store := auth.NewStore(dir)

			session, err := store.Load()
			if err != nil {
				fmt.Println("Already logged out.")
				return nil
			}

			if err := store.Clear(); err != nil {
				return err
			}

			fmt.Printf("Logged out from %s.\n", green(session.Email))
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the current session info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession()
			if err != nil {
				return err
			}

			fmt.Println(green(session.Email))
			if expires := session.SessionCookie.ExpiresAt(); !expires.IsZero() {
				fmt.Printf("Session expires at %s\n", expires.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Println("Session expiry unknown; it was not recorded at login.")
			}
			return nil
		},
	}
}
