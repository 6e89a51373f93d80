package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// credentialFlags registers --username and --password. A missing password is
// read from the first line of stdin.
func credentialFlags(cmd *cobra.Command, username, password *string) {
	cmd.Flags().StringVarP(username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(password, "password", "p", "", "Password (read from stdin when omitted)")
}

func readPassword(cmd *cobra.Command, password string) (string, error) {
	if password != "" {
		return password, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func signupCmd(flags *globalFlags) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a profile and log in as it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			if err := s.planner.CreateProfile(cmd.Context(), username, pw); err != nil {
				return err
			}
			user, _ := s.planner.CurrentUser()
			fmt.Fprintf(cmd.OutOrStdout(), "Profile created. Welcome, %s!\n", user)
			return nil
		},
	}
	credentialFlags(cmd, &username, &password)
	return cmd
}

func loginCmd(flags *globalFlags) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			if err := s.planner.Login(cmd.Context(), username, pw); err != nil {
				return err
			}
			user, _ := s.planner.CurrentUser()
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s!\n", user)
			return nil
		},
	}
	credentialFlags(cmd, &username, &password)
	return cmd
}

func logoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out; tasks stay stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.planner.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func whoamiCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()
			if !s.active {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.user)
			return nil
		},
	}
}
