package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harlequingg/taskplanner/internal/export"
	"github.com/harlequingg/taskplanner/internal/mailer"
	"github.com/harlequingg/taskplanner/internal/task"
)

func exportCmd(flags *globalFlags) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as json, csv or pdf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := requireLogin(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()
			tasks, err := s.planner.Filter(cmd.Context(), task.FilterAll)
			if err != nil {
				return err
			}
			data, err := export.Export(tasks, s.user, format)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d tasks to %s\n", len(tasks), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "F", export.FormatJSON, "Format [json|csv|pdf]")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout when empty)")
	return cmd
}

func remindCmd(flags *globalFlags) *cobra.Command {
	var to string
	var window time.Duration
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Email a digest of pending tasks that are due soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := requireLogin(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()
			if window <= 0 {
				window = s.cfg.Remind.Window
			}
			tasks, err := s.planner.Filter(cmd.Context(), task.FilterPending)
			if err != nil {
				return err
			}
			digest := mailer.DueDigest(s.user, tasks, time.Now(), window)

			if dryRun {
				msg, err := mailer.Render(digest)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Subject: %s\n\n%s", msg.Subject, msg.PlainBody)
				return nil
			}
			if to == "" {
				return errors.New("--to is required unless --dry-run is set")
			}
			smtp := s.cfg.SMTP
			if smtp.Host == "" {
				return errors.New("smtp.host is not configured")
			}
			m := mailer.New(smtp.Host, smtp.Port, smtp.Username, smtp.Password, smtp.Sender)
			if err := m.SendReminder(to, digest); err != nil {
				if errors.Is(err, mailer.ErrNothingDue) {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing due.")
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d reminder(s) to %s\n", len(digest.Tasks), to)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().DurationVar(&window, "window", 0, "How far ahead to look (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the digest instead of sending it")
	return cmd
}
