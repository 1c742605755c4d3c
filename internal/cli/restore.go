package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRestoreCmd(s *session) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "restore <conversion-id>",
		Short: "Write an archived chat log back out",
		Long: `Write the chat log archived by a conversion, decompressed, to stdout or
to a file. Requires CHATSRT_ARCHIVE_ENABLED=true at conversion time.

Examples:
  chatsrt restore 1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed > chat.json
  chatsrt restore 1b9d6bcd -o chat.json   # id prefix, as listed by history`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			archive, err := s.app.ChatArchive(ctx)
			if err != nil {
				return err
			}
			if archive == nil {
				return fmt.Errorf("chat archive is disabled: set CHATSRT_ARCHIVE_ENABLED=true")
			}

			id, err := resolveArchiveID(cmd, s, args[0])
			if err != nil {
				return err
			}
			exists, err := archive.Exists(ctx, id)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("no archived chat log for conversion %q", args[0])
			}

			data, err := archive.Get(ctx, id)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = s.stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(s.stderr, "Restored %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

// resolveArchiveID expands an id prefix through the history store. Without
// history, or when history has no record, the argument is used as given.
func resolveArchiveID(cmd *cobra.Command, s *session, id string) (string, error) {
	if !s.app.Config.History.Enabled {
		return id, nil
	}
	repo, err := s.app.ConversionRepo(cmd.Context())
	if err != nil {
		return id, nil
	}
	c, err := repo.GetByID(cmd.Context(), id)
	if err != nil {
		return "", err
	}
	if c == nil {
		return id, nil
	}
	return c.ID, nil
}
