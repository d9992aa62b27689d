package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"raceconnect/config"
	"raceconnect/utils"
)

var (
	tokenEmail string
	tokenName  string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed session token for manual testing",
	Long: `Print a session token signed with SECRET_KEY, usable as the "token" cookie.

Example:
  raceconnect token --email runner@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := config.SecretFromEnv()
		if err != nil {
			return err
		}
		tokens, err := utils.NewTokenService(secret, nil)
		if err != nil {
			return err
		}
		token, err := tokens.Issue(utils.Identity{Email: tokenEmail, Name: tokenName})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email the token is issued for")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "display name")
	_ = tokenCmd.MarkFlagRequired("email")
}
