package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/chatsrt/internal/migrate"
)

func newMigrateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [version]",
		Short: "Run history database migrations",
		Long: `Run history database migrations.

Without arguments, runs all pending migrations (up).
With a version number, migrates to that specific version (up or down as needed).
Conversions apply pending migrations on their own; this command is for
rolling back or preparing a remote database.

Examples:
  chatsrt migrate      # Run all pending migrations
  chatsrt migrate 1    # Migrate to version 1
  chatsrt migrate 0    # Rollback all migrations`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := -1
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 0 {
					return fmt.Errorf("invalid version number: %s", args[0])
				}
				target = v
			}

			db, err := s.app.Database()
			if err != nil {
				return err
			}
			return migrate.New(db.DB, s.stdout).To(cmd.Context(), target)
		},
	}
}
