package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/harlequingg/taskplanner/internal/config"
	"github.com/harlequingg/taskplanner/internal/planner"
	"github.com/harlequingg/taskplanner/internal/storage"
)

var Version = "dev"

type globalFlags struct {
	configPath string
	backend    string
	dsn        string
	dataDir    string
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:           "taskplanner",
		Short:         "A personal task manager with local storage",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.DefaultPath(), "Config file")
	pf.StringVar(&flags.backend, "backend", "", "Storage backend [sqlite|file|postgres|mysql|memory]")
	pf.StringVar(&flags.dsn, "dsn", "", "Database DSN for sql backends")
	pf.StringVar(&flags.dataDir, "data-dir", "", "Directory for file and sqlite storage")

	rootCmd.AddCommand(signupCmd(&flags))
	rootCmd.AddCommand(loginCmd(&flags))
	rootCmd.AddCommand(logoutCmd(&flags))
	rootCmd.AddCommand(whoamiCmd(&flags))
	rootCmd.AddCommand(addCmd(&flags))
	rootCmd.AddCommand(listCmd(&flags))
	rootCmd.AddCommand(doneCmd(&flags))
	rootCmd.AddCommand(rmCmd(&flags))
	rootCmd.AddCommand(commentCmd(&flags))
	rootCmd.AddCommand(sortCmd(&flags))
	rootCmd.AddCommand(exportCmd(&flags))
	rootCmd.AddCommand(remindCmd(&flags))
	rootCmd.AddCommand(themeCmd(&flags))
	rootCmd.AddCommand(serveCmd(&flags))
	rootCmd.AddCommand(configCmd(&flags))

	return rootCmd
}

// session is an opened planner plus what it was built from.
type session struct {
	cfg     *config.Config
	store   storage.Store
	planner *planner.Planner
	user    string
	active  bool
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		log.Println(err)
	}
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.backend != "" {
		cfg.Storage.Backend = flags.backend
	}
	if flags.dsn != "" {
		cfg.Storage.DSN = flags.dsn
	}
	if flags.dataDir != "" {
		cfg.Storage.DataDir = flags.dataDir
	}
	return cfg, nil
}

// openSession loads config, opens storage and restores the persisted session.
func openSession(ctx context.Context, flags *globalFlags) (*session, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storage.Options{
		Backend:            cfg.Storage.Backend,
		DSN:                cfg.Storage.DSN,
		DataDir:            cfg.Storage.DataDir,
		MaxOpenConnections: cfg.Storage.MaxOpenConnections,
		MaxIdleConnections: cfg.Storage.MaxIdleConnections,
		MaxIdleTime:        cfg.Storage.MaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	p := planner.New(store)
	user, ok, err := p.Open(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &session{cfg: cfg, store: store, planner: p, user: user, active: ok}, nil
}

// requireLogin opens a session and fails when nobody is logged in.
func requireLogin(ctx context.Context, flags *globalFlags) (*session, error) {
	s, err := openSession(ctx, flags)
	if err != nil {
		return nil, err
	}
	if !s.active {
		s.Close()
		return nil, fmt.Errorf("not logged in; run `taskplanner login` first")
	}
	return s, nil
}
