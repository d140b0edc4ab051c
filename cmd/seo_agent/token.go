package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/seo-content-machine/internal/config"
	"github.com/jonathan/seo-content-machine/internal/server"
)

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API bearer token",
	Long:  "Prints a signed token for the REST API. Uses JWT_SECRET and JWT_EXPIRATION_HOURS.",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Client name recorded in the token (required)")
	markRequired(tokenCmd, "subject")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(_ *cobra.Command, _ []string) error {
	auth, err := config.NewAuthConfig()
	if err != nil {
		return err
	}
	token, err := server.NewTokenService(auth).GenerateToken(tokenSubject)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	return writeOutput("", token)
}
