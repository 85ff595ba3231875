package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	apiv1 "github.com/chromedash/chromedash/pkg/api/v1"
)

// Credentials is what login stores on disk.
type Credentials struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Gateway   string    `json:"gateway"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func credPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chromedash", "credentials")
}

// SaveCredentials writes creds readable only by the current user.
func SaveCredentials(creds Credentials) error {
	path := credPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// LoadCredentials returns the stored credentials, or zero values if none.
func LoadCredentials() Credentials {
	var creds Credentials
	data, err := os.ReadFile(credPath())
	if err != nil {
		return creds
	}
	if json.Unmarshal(data, &creds) != nil {
		return Credentials{}
	}
	return creds
}

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start a session as a user",
	Long: `Start a session for an email address. Minting a session needs the
gateway admin token, passed with --token or CHROMEDASH_TOKEN.

The session token is stored in ~/.chromedash/credentials.`,
	Example: "  chromedash login --email dev@chromium.org --token $ADMIN_TOKEN",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginEmail == "" {
			return fmt.Errorf("--email is required")
		}

		c, err := getClient()
		if err != nil {
			return err
		}

		var session *apiv1.SessionResponse
		err = RunSpinnerWithResult("Creating session...", func() error {
			session, err = c.CreateSession(context.Background(), loginEmail)
			return err
		})
		if err != nil {
			return err
		}

		creds := Credentials{
			Token:     session.Token,
			Email:     session.Email,
			Gateway:   gatewayAddr,
			ExpiresAt: session.ExpiresAt,
		}
		if err := SaveCredentials(creds); err != nil {
			return fmt.Errorf("save credentials: %w", err)
		}

		if PrintJSON(creds) {
			return nil
		}
		PrintSuccessWithValue("Logged in as", session.Email)
		PrintKeyValue("Expires", session.ExpiresAt.Local().Format(time.RFC1123))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.Remove(credPath()); err != nil && !os.IsNotExist(err) {
			return err
		}
		PrintSuccess("Logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email to sign in as")
}
