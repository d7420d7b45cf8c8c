package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	authEmail    string
	authPassword string
)

var signUpCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Long: `Create a SKOUT account and sign in. The password is read from --password,
then SKOUT_PASSWORD, then the first line of stdin.`,
	RunE: runSignUp,
}

var signInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in to an existing account",
	RunE:  runSignIn,
}

var signOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out and forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a.auth.SignOut(cmd.Context())
		fmt.Fprintln(a.out, "Signed out.")
		return nil
	},
}

var whoAmICmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := a.auth.Session()
		if sess == nil {
			fmt.Fprintln(a.out, "Not signed in.")
			return nil
		}
		fmt.Fprintf(a.out, "%s (session expires %s)\n", sess.Email, sess.ExpiresAt.Local().Format("Jan 2 15:04"))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{signUpCmd, signInCmd} {
		c.Flags().StringVarP(&authEmail, "email", "e", "", "account email")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "account password")
		_ = c.MarkFlagRequired("email")
	}
}

func runSignUp(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd.InOrStdin())
	if err != nil {
		return err
	}
	if msg := a.auth.SignUp(cmd.Context(), authEmail, password); msg != "" {
		return errors.New(msg)
	}
	fmt.Fprintf(a.out, "Welcome to SKOUT, %s.\n", a.auth.Session().Email)
	return nil
}

func runSignIn(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd.InOrStdin())
	if err != nil {
		return err
	}
	if msg := a.auth.SignIn(cmd.Context(), authEmail, password); msg != "" {
		return errors.New(msg)
	}
	fmt.Fprintf(a.out, "Signed in as %s.\n", a.auth.Session().Email)
	return nil
}

func readPassword(in io.Reader) (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	if p := os.Getenv("SKOUT_PASSWORD"); p != "" {
		return p, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
