package main

import (
	"errors"
	"fmt"
	"os"

	"emojiharvest/pkg/auth"
	"emojiharvest/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	loginToken   string
	loginBaseURL string
	logoutAll    bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API tokens for the api source",
	Long: `Manage bearer tokens sent by the api source.

Tokens are stored in:
  - the system keychain, when available
  - an encrypted file in the user config directory otherwise

EMOJIHARVEST_API_TOKEN, when set, is used instead of any stored token.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [account]",
	Short: "Store an API token",
	Long: `Store an API token under an account name ("default" when omitted).

Without --token the token is read from the terminal without echo.`,
	Example: `  emojiharvest auth login
  emojiharvest auth login work --base-url https://emoji.example.com/v1/emoji`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [account]",
	Short: "Remove a stored API token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored API tokens",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)

	authLoginCmd.Flags().StringVar(&loginToken, "token", "", "token to store (prompted when omitted)")
	authLoginCmd.Flags().StringVar(&loginBaseURL, "base-url", "", "listing endpoint the token belongs to")
	authLogoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored token")
}

func accountArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return auth.DefaultAccount
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	token := loginToken
	if token == "" {
		token, err = ui.ReadSecret("API token: ", os.Stdin)
		if err != nil {
			return err
		}
	}
	if token == "" {
		return fmt.Errorf("token is required")
	}

	cred := &auth.Credential{
		Account: accountArg(args),
		Token:   token,
		BaseURL: loginBaseURL,
	}
	if err := manager.Store(cred); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Token stored for account %q", cred.Account))
	if os.Getenv(auth.EnvToken) != "" {
		ui.PrintWarning(auth.EnvToken + " is set and takes precedence over stored tokens")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	accounts := []string{accountArg(args)}
	if logoutAll {
		creds, err := manager.List()
		if err != nil {
			return err
		}
		accounts = accounts[:0]
		for _, c := range creds {
			accounts = append(accounts, c.Account)
		}
	}

	for _, account := range accounts {
		if err := manager.Delete(account); err != nil {
			// an environment token is listed but cannot be removed
			if logoutAll && errors.Is(err, auth.ErrTokenNotFound) {
				continue
			}
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Token removed for account %q", account))
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		ui.PrintWarning("No API tokens stored")
		return nil
	}

	for _, c := range creds {
		c = auth.Sanitize(c)
		line := fmt.Sprintf("%s  %s", c.Token, c.LastModified.Format("2006-01-02 15:04"))
		if c.BaseURL != "" {
			line += "  " + c.BaseURL
		}
		ui.PrintInfo(c.Account, line)
	}
	if os.Getenv(auth.EnvToken) != "" {
		ui.PrintHighlight(auth.EnvToken + " is set and wins over stored tokens")
	}
	return nil
}
