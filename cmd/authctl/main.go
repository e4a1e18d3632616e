// Package main provides authctl, a command-line client that logs in to an
// auth-gate server, stores the issued token, and replays it on later requests.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/auth-gate/internal/client"
)

const appName = "authctl"

func main() {
	if err := rootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalOptions struct {
	server    string
	tokenFile string
	timeout   time.Duration
}

func (o *globalOptions) client() (*client.Client, error) {
	path := o.tokenFile
	if path == "" {
		var err error
		if path, err = client.DefaultTokenPath(); err != nil {
			return nil, fmt.Errorf("resolve token path: %w", err)
		}
	}
	return client.New(o.server, client.NewFileTokenStore(path), nil), nil
}

func rootCmd(out io.Writer) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Client for the auth-gate API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVarP(&opts.server, "server", "s", envOr("AUTHCTL_SERVER", "http://localhost:8080"), "API base URL")
	cmd.PersistentFlags().StringVar(&opts.tokenFile, "token-file", os.Getenv("AUTHCTL_TOKEN_FILE"), "Token file (default ~/.authctl/token)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")

	cmd.AddCommand(
		credentialsCmd(opts, "login", "Log in and store the issued token", (*client.Client).Login),
		credentialsCmd(opts, "register", "Create an account and store the issued token", (*client.Client).Register),
		getCmd(opts),
	)
	return cmd
}

type tokenFunc func(c *client.Client, ctx context.Context, username, password string) (string, error)

func credentialsCmd(opts *globalOptions, use, short string, obtain tokenFunc) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("AUTHCTL_PASSWORD")
			}
			if username == "" || password == "" {
				return errors.New("username and password are required")
			}
			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			if _, err := obtain(c, ctx, username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token stored for %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (or AUTHCTL_PASSWORD)")
	return cmd
}

func getCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "GET a path with the stored bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			body, err := c.Get(ctx, args[0])
			if err != nil {
				if errors.Is(err, client.ErrNoToken) {
					return fmt.Errorf("%w; run `%s login` first", err, appName)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
