package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/chatsrt/internal/infrastructure/config"
)

// session carries per-invocation state between the root command hooks and
// the subcommands.
type session struct {
	app    *AppContext
	stdout io.Writer
	stderr io.Writer

	// envFiles overrides the .env files loaded before configuration.
	envFiles []string
}

func newRootCmd(s *session) *cobra.Command {
	var maxDuration time.Duration

	root := &cobra.Command{
		Use:   "chatsrt <chat-file>",
		Short: "Convert a live chat replay log into SRT subtitles",
		Long: `chatsrt reads a live chat replay log (one JSON record per line, as saved
by chat replay downloaders) and writes <chat-file>.srt, with one subtitle
per chat message timed relative to the first message.

Examples:
  chatsrt stream.live_chat.json                     # writes stream.live_chat.json.srt
  chatsrt --max-duration 5s stream.live_chat.json   # shorter cues
  chatsrt history -n 5                              # last 5 conversions`,
		Args:          requireChatFile,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if s.app != nil {
				return nil
			}
			config.LoadDotEnv(s.envFiles...)
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			s.app = NewAppContext(cfg, newLogger(cfg.Logging, s.stderr))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("max-duration") {
				if maxDuration <= 0 {
					return fmt.Errorf("--max-duration must be positive, got %s", maxDuration)
				}
				s.app.Config.Subtitle.MaxDurationUsec = maxDuration.Microseconds()
			}
			_, err := convertChat(cmd.Context(), s.app, args[0], s.stdout)
			return err
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().DurationVar(&maxDuration, "max-duration", 0, "Longest time a message stays on screen (default 10s, or CHATSRT_MAX_DURATION_USEC)")

	root.AddCommand(
		newHistoryCmd(s),
		newQueryCmd(s),
		newMigrateCmd(s),
		newRestoreCmd(s),
	)
	return root
}

func requireChatFile(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 0:
		return ErrMissingInput
	case 1:
		return nil
	default:
		return fmt.Errorf("expected one chat file, got %d arguments", len(args))
	}
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return run(ctx, &session{stdout: stdout, stderr: stderr}, args)
}

func run(ctx context.Context, s *session, args []string) int {
	root := newRootCmd(s)
	root.SetArgs(args)
	root.SetOut(s.stdout)
	root.SetErr(s.stderr)

	err := root.ExecuteContext(ctx)
	if s.app != nil {
		if cerr := s.app.Close(ctx); cerr != nil {
			fmt.Fprintf(s.stderr, "warning: %v\n", cerr)
		}
	}
	if err != nil {
		fmt.Fprintln(s.stderr, err)
	}
	return exitCode(err)
}

func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
