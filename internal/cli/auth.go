package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	apperrors "github.com/tessro/ytmdeck/internal/errors"
)

// loginTimeout bounds the wait for the user to approve the request in the desktop app.
const loginTimeout = 2 * time.Minute

var errLoginCancelled = errors.New("login cancelled")

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage companion server authentication",
	Long:  `Commands for managing the YouTube Music Desktop companion server API token.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize ytmdeck with YouTube Music Desktop",
	Long: `Requests an authorization code from the companion server and waits for
you to approve it in YouTube Music Desktop. The code shown here must match the
one the desktop app displays.`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored API token",
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  `Shows whether a token is stored and whether the companion server accepts it.`,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	a, store, err := newAuthenticator()
	if err != nil {
		return err
	}
	c := newClient(a)

	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()

	if !c.CheckServerReachable(ctx) {
		return apperrors.ErrUnreachable
	}

	interactive := !JSONOutput() && term.IsTerminal(int(os.Stdin.Fd()))

	err = a.Login(ctx, c, func(code string) error {
		if !interactive {
			fmt.Fprintf(os.Stderr, "Approve the request in YouTube Music Desktop (code %s)\n", code)
			return nil
		}

		confirmed := true
		prompt := huh.NewConfirm().
			Title(fmt.Sprintf("Authorization code: %s", code)).
			Description("Continue, then approve the request in YouTube Music Desktop if the codes match.").
			Affirmative("Continue").
			Negative("Cancel").
			Value(&confirmed)
		if err := prompt.Run(); err != nil {
			return fmt.Errorf("%w: %v", errLoginCancelled, err)
		}
		if !confirmed {
			return errLoginCancelled
		}
		fmt.Println("Waiting for approval...")
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.WithSuggestion(fmt.Errorf("authorization timed out: %w", err),
				"Approve the request in YouTube Music Desktop within two minutes")
		}
		return err
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
			"status":   "authenticated",
			"location": store.Location(),
		})
	} else {
		fmt.Printf("Authenticated. Token stored in %s\n", store.Location())
	}

	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	a, _, err := newAuthenticator()
	if err != nil {
		return err
	}

	if !a.IsAuthenticated() {
		if JSONOutput() {
			_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "not_authenticated"})
		} else {
			fmt.Println("Not authenticated.")
		}
		return nil
	}

	if err := a.Logout(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "logged_out"})
	} else {
		fmt.Println("Logged out.")
	}

	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	a, store, err := newAuthenticator()
	if err != nil {
		return err
	}

	if !a.IsAuthenticated() {
		if JSONOutput() {
			_ = json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"authenticated": false,
				"location":      store.Location(),
			})
		} else {
			fmt.Println("Not authenticated.")
			fmt.Println("Run 'ytmdeck auth login' to authenticate.")
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	verr := a.Validate(ctx, newClient(a))

	if JSONOutput() {
		out := map[string]interface{}{
			"authenticated": verr == nil,
			"location":      store.Location(),
		}
		if verr != nil {
			out["error"] = verr.Error()
		}
		_ = json.NewEncoder(os.Stdout).Encode(out)
		return nil
	}

	switch {
	case verr == nil:
		fmt.Printf("Authenticated. Token stored in %s\n", store.Location())
	case errors.Is(verr, apperrors.ErrAuthRequired):
		fmt.Println("The stored token was rejected and has been removed.")
		fmt.Println("Run 'ytmdeck auth login' to re-authenticate.")
	default:
		fmt.Printf("Token stored in %s but could not be verified: %v\n", store.Location(), verr)
		if s := apperrors.GetSuggestion(verr); s != "" {
			fmt.Println(s)
		}
	}

	return nil
}
