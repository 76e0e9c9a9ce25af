package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/NordCoder/Taskgate/migrations"
)

const envDSN = "DB_URL"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		service string
		dsn     string
	)

	cmd := &cobra.Command{
		Use:   "migrator",
		Short: "Apply Taskgate database migrations",
		Long: `Apply the goose migrations of one service.

Examples:
  migrator up --service auth
  migrator status --service tasks --dsn postgres://...
`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&service, "service", migrations.Auth, "migration set: auth or tasks")
	cmd.PersistentFlags().StringVar(&dsn, "dsn", os.Getenv(envDSN), "postgres connection string (env "+envDSN+")")

	open := func(ctx context.Context) (*goose.Provider, *sql.DB, error) {
		if dsn == "" {
			return nil, nil, fmt.Errorf("dsn is empty: pass --dsn or set %s", envDSN)
		}
		db, err := goose.OpenDBWithDriver("pgx", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open db: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ping db: %w", err)
		}
		p, err := migrations.NewProvider(db, service)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return p, db, nil
	}

	cmd.AddCommand(
		upCmd(open),
		downCmd(open),
		statusCmd(open),
	)
	return cmd
}

type opener func(ctx context.Context) (*goose.Provider, *sql.DB, error)

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func upCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			p, db, err := open(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := p.Up(ctx)
			if err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			for _, r := range res {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations: up OK")
			return nil
		},
	}
}

func downCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			p, db, err := open(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := p.Down(ctx)
			if err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func statusCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the state of every migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			p, db, err := open(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := p.Status(ctx)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			for _, s := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", s.State, s.Source.Path)
			}
			return nil
		},
	}
}
