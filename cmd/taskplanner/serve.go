package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harlequingg/taskplanner/internal/api"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API for a browser front end on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := openSession(ctx, flags)
			if err != nil {
				return err
			}
			defer s.Close()

			cfg := api.Config{
				Addr:           s.cfg.Server.Addr,
				Env:            s.cfg.Env,
				Version:        Version,
				JWTSecret:      s.cfg.Server.JWTSecret,
				TokenTTL:       s.cfg.Server.TokenTTL,
				TrustedOrigins: s.cfg.Server.TrustedOrigins,
			}
			if addr != "" {
				cfg.Addr = addr
			}
			cfg.Limiter.Enabled = s.cfg.Server.Limiter.Enabled
			cfg.Limiter.MaxRequestPerSecond = s.cfg.Server.Limiter.MaxRequestPerSecond
			cfg.Limiter.Burst = s.cfg.Server.Limiter.Burst

			srv, err := api.New(cfg, s.planner)
			if err != nil {
				return fmt.Errorf("init server: %w", err)
			}
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
