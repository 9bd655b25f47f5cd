package main

import (
	"fmt"
	"io"
	"time"

	"github.com/layer-3/paygate/core"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Check the configured credentials by requesting an access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		token, err := a.tokens.Token(cmd.Context())
		if err != nil {
			return err
		}

		printTokenExpiry(cmd.OutOrStdout(), token)
		return nil
	},
}

// printTokenExpiry reports when the cached token stops being used.
// The token value is a credential and is never printed.
func printTokenExpiry(w io.Writer, token core.AccessToken) {
	fmt.Fprintf(w, "access token acquired, cached until %s\n", token.ExpiresAt.UTC().Format(time.RFC3339))
}
