package main

import (
	"fmt"
	"strconv"

	"scribe/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply the schema according to DB_SCHEMA_MODE",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := openDatabase()
		if err != nil {
			return err
		}
		defer rt.close()

		if err := database.ApplySchema(cmd.Context(), rt.db, rt.cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [version]",
	Short: "Revert one SQL migration, the latest applied by default",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openDatabase()
		if err != nil {
			return err
		}
		defer rt.close()
		ctx := cmd.Context()

		var version int
		if len(args) == 1 {
			if version, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
		} else {
			applied, err := database.NewMigrationStore(rt.db).GetAppliedMigrations(ctx)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				return fmt.Errorf("no migrations have been applied")
			}
			version = applied[len(applied)-1]
		}

		if err := database.RollbackMigration(ctx, rt.db, version); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reverted migration %06d\n", version)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema policy and pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := openDatabase()
		if err != nil {
			return err
		}
		defer rt.close()

		status, err := database.GetSchemaStatus(cmd.Context(), rt.db, rt.cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mode: %s (env %q)\n", status.Mode, status.Environment)
		fmt.Fprintf(out, "sql migrations: %v, auto-migrate: %v\n", status.WillRunSQL, status.WillRunAutoMigrate)
		if !status.WillRunSQL {
			return nil
		}
		fmt.Fprintf(out, "applied: %v\n", status.AppliedVersions)
		if len(status.PendingMigrations) == 0 {
			fmt.Fprintln(out, "pending: none")
		}
		for _, m := range status.PendingMigrations {
			fmt.Fprintf(out, "pending: %s\n", m.String())
		}
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}
