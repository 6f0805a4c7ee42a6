package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"yamdb/cmd/cli/authentication"
	"yamdb/cmd/cli/command/client"
	"yamdb/internal/microservices/http-api/dto"
)

// auth.go handles the email code flow: signup, token exchange, logout.

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Request a confirmation code by email, exchange it for a token, and manage the stored token.`,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Request a confirmation code for a username and email",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.SignupRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.Email, _ = cmd.Flags().GetString("email")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		resp, err := client.NewHTTPClient(apiURL).Signup(ctx, req)
		if err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}

		fmt.Println(success("✓ Confirmation code sent to " + resp.Email))
		fmt.Printf("Run `yamdb auth token -u %s -c <code>` to log in.\n", resp.Username)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Exchange a confirmation code for an access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.TokenRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.ConfirmationCode, _ = cmd.Flags().GetString("code")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		resp, err := client.NewHTTPClient(apiURL).Token(ctx, req)
		if err != nil {
			return fmt.Errorf("token exchange failed: %w", err)
		}

		creds := &authentication.StoredCredentials{Token: resp.Token, Username: req.Username, APIURL: apiURL}
		if err := authentication.StoreToken(creds); err != nil {
			// keyring unavailable (headless box), hand the token to the user instead
			fmt.Println(warn("! Could not store the token in the keyring: " + err.Error()))
			fmt.Println(resp.Token)
			return nil
		}

		fmt.Println(success("✓ Logged in as " + req.Username))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authentication.DeleteToken(); err != nil {
			return err
		}
		fmt.Println(success("✓ Logged out."))
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the profile behind the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := authentication.GetToken(); err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		me, err := apiClient().Me(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%s <%s>\n", bold(me.Username), me.Email)
		fmt.Printf("Role: %s\n", me.Role)
		if me.Bio != "" {
			fmt.Printf("Bio:  %s\n", me.Bio)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(signupCmd, tokenCmd, logoutCmd, whoamiCmd)

	signupCmd.Flags().StringP("username", "u", "", "Username for the account")
	signupCmd.Flags().StringP("email", "e", "", "Email address the code is sent to")
	_ = signupCmd.MarkFlagRequired("username")
	_ = signupCmd.MarkFlagRequired("email")

	tokenCmd.Flags().StringP("username", "u", "", "Username for the account")
	tokenCmd.Flags().StringP("code", "c", "", "Confirmation code from the email")
	_ = tokenCmd.MarkFlagRequired("username")
	_ = tokenCmd.MarkFlagRequired("code")
}
