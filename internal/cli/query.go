package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/chatsrt/internal/lazylist"
	"github.com/emiliopalmerini/chatsrt/internal/parser"
	"github.com/emiliopalmerini/chatsrt/internal/traverse"
)

func newQueryCmd(s *session) *cobra.Command {
	var (
		opts        traverse.Options
		lineNumbers bool
		records     string
	)

	cmd := &cobra.Command{
		Use:   "query <chat-file> <path> [<path>...]",
		Short: "Extract values from every record of a chat log",
		Long: `Follow a dotted path through every record of a chat log and print what it
finds as JSON, one record per line. Numeric parts index into arrays, ":"
and slices like "1:3" select ranges, and further paths are tried when the
previous one finds nothing. --records limits the query to a start:stop[:step]
range of records; with a bounded range, later lines are not read.

Examples:
  chatsrt query chat.json replayChatItemAction.actions.0.addChatItemAction.item.liveChatTextMessageRenderer.authorName.simpleText
  chatsrt query chat.json replayChatItemAction.actions.:.addChatItemAction.item --first
  chatsrt query -i chat.json REPLAYCHATITEMACTION.videoOffsetTimeMsec
  chatsrt query --records=-5: chat.json replayChatItemAction.videoOffsetTimeMsec`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rng lazylist.Range
			if records != "" {
				r, err := lazylist.ParseRange(records)
				if err != nil {
					return fmt.Errorf("--records: %w", err)
				}
				rng = r
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return &ReadError{Path: args[0], Err: err}
			}

			paths := make([]traverse.Path, 0, len(args)-1)
			for _, p := range args[1:] {
				paths = append(paths, traverse.ParseUserPath(p))
			}
			opts.UserInput = true

			list := parser.LazyRecords(data)
			defer list.Close()
			selected, err := list.Slice(rng)
			if err != nil {
				return err
			}

			for _, rec := range selected {
				result := traverse.Traverse(rec.Value, opts, paths...)
				if result == nil {
					continue
				}
				encoded, err := json.Marshal(result)
				if err != nil {
					return fmt.Errorf("line %d: failed to encode result: %w", rec.Line, err)
				}
				if lineNumbers {
					fmt.Fprintf(s.stdout, "%d\t%s\n", rec.Line, encoded)
				} else {
					fmt.Fprintf(s.stdout, "%s\n", encoded)
				}
			}
			return list.Err()
		},
	}
	cmd.Flags().BoolVarP(&opts.CaseInsensitive, "ignore-case", "i", false, "Match object keys ignoring case")
	cmd.Flags().BoolVar(&opts.TraverseStrings, "strings", false, "Let indices and slices look into strings")
	cmd.Flags().BoolVar(&opts.FirstOnly, "first", false, "Print only the first match of each record")
	cmd.Flags().BoolVarP(&lineNumbers, "line-numbers", "l", false, "Prefix results with their line number")
	cmd.Flags().StringVar(&records, "records", "", "Only query this start:stop[:step] range of records")
	return cmd
}
