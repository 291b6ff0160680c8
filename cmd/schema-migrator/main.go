package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ideaboard/schema-migrator/internal/config"
	"github.com/ideaboard/schema-migrator/internal/db"
	"github.com/ideaboard/schema-migrator/internal/dialect"
	"github.com/ideaboard/schema-migrator/internal/migrate"
	"github.com/ideaboard/schema-migrator/internal/settings"
	"github.com/ideaboard/schema-migrator/internal/verify"
)

var (
	databaseURL string
	logLevel    string
	settingBy   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "schema-migrator",
		Short:         "Apply and inspect the ideaboard database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			logrus.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "",
		"database URL or file path (defaults to $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending schema changes, then print the schema report",
		RunE:  runMigrate,
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Print the schema report without changing anything",
		RunE:  runVerify,
	}

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write rows of the settings table",
	}

	settingsSetCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Insert or update a setting (upsert keyed on key)",
		Args:  cobra.ExactArgs(2),
		RunE:  runSettingsSet,
	}
	settingsSetCmd.Flags().StringVar(&settingBy, "by", "", "actor recorded in updated_by")

	settingsGetCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE:  runSettingsGet,
	}

	settingsListCmd := &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Args:  cobra.NoArgs,
		RunE:  runSettingsList,
	}

	settingsCmd.AddCommand(settingsSetCmd, settingsGetCmd, settingsListCmd)
	rootCmd.AddCommand(migrateCmd, verifyCmd, settingsCmd)

	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

// connect opens the configured database and returns a cancellable context
// that ends on SIGINT/SIGTERM.
func connect() (context.Context, context.CancelFunc, *sql.DB, dialect.Dialect, error) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cfg := config.FromEnv(databaseURL)
	conn, d, err := db.Open(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, nil, err
	}
	return ctx, cancel, conn, d, nil
}

func closeDB(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close database connection")
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel, conn, d, err := connect()
	if err != nil {
		return err
	}
	defer cancel()
	defer closeDB(conn)

	results, err := migrate.New(conn, d).Run(ctx)
	if err != nil {
		return err
	}

	applied := 0
	for _, res := range results {
		if res.Outcome == migrate.OutcomeApplied {
			applied++
		}
	}
	logrus.WithFields(logrus.Fields{
		"applied":         applied,
		"already_present": len(results) - applied,
	}).Info("Schema is up to date")

	return report(ctx, conn, d)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel, conn, d, err := connect()
	if err != nil {
		return err
	}
	defer cancel()
	defer closeDB(conn)

	return report(ctx, conn, d)
}

func report(ctx context.Context, conn *sql.DB, d dialect.Dialect) error {
	reports, err := verify.Inspect(ctx, conn, d)
	if err != nil {
		return err
	}
	return verify.Render(os.Stdout, reports)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	ctx, cancel, conn, d, err := connect()
	if err != nil {
		return err
	}
	defer cancel()
	defer closeDB(conn)

	return settings.NewStore(conn, d).Set(ctx, args[0], args[1], settingBy)
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	ctx, cancel, conn, d, err := connect()
	if err != nil {
		return err
	}
	defer cancel()
	defer closeDB(conn)

	setting, err := settings.NewStore(conn, d).Get(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(setting.Value)
	return nil
}

func runSettingsList(cmd *cobra.Command, args []string) error {
	ctx, cancel, conn, d, err := connect()
	if err != nil {
		return err
	}
	defer cancel()
	defer closeDB(conn)

	all, err := settings.NewStore(conn, d).List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tUPDATED AT\tUPDATED BY")
	for _, s := range all {
		by := s.UpdatedBy
		if by == "" {
			by = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Key, s.Value, s.UpdatedAt.Format(time.RFC3339), by)
	}
	return tw.Flush()
}
