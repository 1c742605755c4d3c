package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const wantSRT = "1\n00:00:00,000 --> 00:00:02,000\nalice: hi\n\n" +
	"2\n00:00:02,000 --> 00:00:12,000\nbob: there\n\n"

// testEnv isolates configuration and the data directory from the host.
func testEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	for _, key := range []string{
		"CHATSRT_MAX_DURATION_USEC",
		"CHATSRT_LOG_LEVEL",
		"CHATSRT_LOG_FORMAT",
		"CHATSRT_HISTORY_ENABLED",
		"CHATSRT_DATABASE_URL",
		"CHATSRT_AUTH_TOKEN",
		"CHATSRT_REPLICA_PATH",
		"CHATSRT_ARCHIVE_ENABLED",
		"CHATSRT_ARCHIVE_BACKEND",
		"CHATSRT_ARCHIVE_DIR",
		"CHATSRT_OTEL_ENABLED",
		"CHATSRT_OTEL_ENDPOINT",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	s := &session{
		stdout:   &stdout,
		stderr:   &stderr,
		envFiles: []string{filepath.Join(t.TempDir(), "none.env")},
	}
	code := run(context.Background(), s, args)
	return code, stdout.String(), stderr.String()
}

// copyFixture copies testdata/chat.jsonl into a temp dir so the .srt lands
// there.
func copyFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/chat.jsonl")
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	return writeChat(t, string(data))
}

func writeChat(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stream.live_chat.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write chat: %v", err)
	}
	return path
}

func TestRun_MissingInput(t *testing.T) {
	testEnv(t)

	code, stdout, stderr := runCLI(t)

	assertEqual(t, "exit code", 2, code)
	assertEqual(t, "stderr", "File must be used as first parameter.\n", stderr)
	assertEqual(t, "stdout", "", stdout)
}

func TestRun_UnreadableInput(t *testing.T) {
	testEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.json")

	code, _, stderr := runCLI(t, missing)

	assertEqual(t, "exit code", 1, code)
	assertEqual(t, "stderr", "ERROR: chat file "+missing+" could not be read\n", stderr)
}

func TestRun_Convert(t *testing.T) {
	testEnv(t)
	input := copyFixture(t)

	code, stdout, stderr := runCLI(t, input)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}

	got, err := os.ReadFile(input + ".srt")
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	assertEqual(t, "srt", wantSRT, string(got))

	if !strings.Contains(stdout, "Wrote 2 cues to "+input+".srt") {
		t.Errorf("unexpected stdout: %q", stdout)
	}
	if !strings.Contains(stdout, "1 of 3 records skipped") {
		t.Errorf("unexpected stdout: %q", stdout)
	}

	info, err := os.Stat(input + ".srt")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("output mode = %v", info.Mode().Perm())
	}

	leftovers, _ := filepath.Glob(input + ".srt.*.tmp")
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestRun_ConvertOverwrites(t *testing.T) {
	testEnv(t)
	input := copyFixture(t)
	if err := os.WriteFile(input+".srt", []byte("stale"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if code, _, stderr := runCLI(t, input); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	got, _ := os.ReadFile(input + ".srt")
	assertEqual(t, "srt", wantSRT, string(got))
}

func TestRun_MaxDurationFlag(t *testing.T) {
	testEnv(t)
	input := copyFixture(t)

	code, _, stderr := runCLI(t, "--max-duration", "1500ms", input)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}

	got, _ := os.ReadFile(input + ".srt")
	want := "1\n00:00:00,000 --> 00:00:01,500\nalice: hi\n\n" +
		"2\n00:00:02,000 --> 00:00:03,500\nbob: there\n\n"
	assertEqual(t, "srt", want, string(got))
}

func TestRun_MaxDurationFromEnv(t *testing.T) {
	testEnv(t)
	t.Setenv("CHATSRT_MAX_DURATION_USEC", "1000000")
	input := copyFixture(t)

	if code, _, stderr := runCLI(t, input); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	got, _ := os.ReadFile(input + ".srt")
	if !strings.Contains(string(got), "00:00:02,000 --> 00:00:03,000") {
		t.Errorf("unexpected output:\n%s", got)
	}
}

func TestRun_MalformedJSON(t *testing.T) {
	testEnv(t)
	input := writeChat(t, "{\"a\":1}\n{broken\n")

	code, _, stderr := runCLI(t, input)

	assertEqual(t, "exit code", 1, code)
	if !strings.Contains(stderr, "line 2") {
		t.Errorf("stderr should name the line: %q", stderr)
	}
	if _, err := os.Stat(input + ".srt"); !os.IsNotExist(err) {
		t.Error("no output should be written for malformed input")
	}
}

func TestRun_EmptyInput(t *testing.T) {
	testEnv(t)
	input := writeChat(t, "")

	code, stdout, stderr := runCLI(t, input)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	got, err := os.ReadFile(input + ".srt")
	if err != nil {
		t.Fatalf("expected empty output file: %v", err)
	}
	assertEqual(t, "srt", "", string(got))
	if !strings.Contains(stdout, "Wrote 0 cues") {
		t.Errorf("unexpected stdout: %q", stdout)
	}
}

func TestRun_UnwritableOutput(t *testing.T) {
	testEnv(t)
	input := copyFixture(t)
	if err := os.Mkdir(input+".srt", 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	code, _, stderr := runCLI(t, input)

	assertEqual(t, "exit code", 1, code)
	if !strings.Contains(stderr, "ERROR: subtitle file "+input+".srt could not be written") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRun_TooManyArguments(t *testing.T) {
	testEnv(t)

	code, _, stderr := runCLI(t, "a.json", "b.json")

	assertEqual(t, "exit code", 1, code)
	if !strings.Contains(stderr, "expected one chat file") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	testEnv(t)
	t.Setenv("CHATSRT_MAX_DURATION_USEC", "-1")
	input := copyFixture(t)

	code, _, stderr := runCLI(t, input)

	assertEqual(t, "exit code", 1, code)
	if !strings.Contains(stderr, "CHATSRT_MAX_DURATION_USEC") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRun_HistoryDisabledStillConverts(t *testing.T) {
	testEnv(t)
	t.Setenv("CHATSRT_HISTORY_ENABLED", "false")
	input := copyFixture(t)

	if code, _, stderr := runCLI(t, input); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}

	code, _, stderr := runCLI(t, "history")
	assertEqual(t, "history exit code", 1, code)
	if !strings.Contains(stderr, ErrHistoryUnavailable.Error()) {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRun_HistoryAfterConvert(t *testing.T) {
	testEnv(t)
	input := copyFixture(t)

	if code, _, stderr := runCLI(t, input); code != 0 {
		t.Fatalf("convert exit code %d, stderr: %s", code, stderr)
	}

	code, stdout, stderr := runCLI(t, "history")
	if code != 0 {
		t.Fatalf("history exit code %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, input) {
		t.Errorf("history should list the input:\n%s", stdout)
	}

	code, stdout, _ = runCLI(t, "history", "--input", filepath.Join(t.TempDir(), "other.json"))
	assertEqual(t, "filtered exit code", 0, code)
	assertEqual(t, "filtered", "No conversions found\n", stdout)
}

func TestRun_HistoryShowListedID(t *testing.T) {
	testEnv(t)
	input := copyFixture(t)

	if code, _, stderr := runCLI(t, input); code != 0 {
		t.Fatalf("convert exit code %d, stderr: %s", code, stderr)
	}

	code, stdout, stderr := runCLI(t, "history")
	if code != 0 {
		t.Fatalf("history exit code %d, stderr: %s", code, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, rule and one row:\n%s", stdout)
	}
	listed := strings.Fields(lines[2])[0]

	code, stdout, stderr = runCLI(t, "history", "show", listed)
	if code != 0 {
		t.Fatalf("show %s exit code %d, stderr: %s", listed, code, stderr)
	}
	idLine, _, _ := strings.Cut(stdout, "\n")
	fields := strings.Fields(idLine)
	if len(fields) != 2 || fields[0] != "ID:" || !strings.HasPrefix(fields[1], listed) {
		t.Errorf("unexpected ID line: %q", idLine)
	}
	if !strings.Contains(stdout, input) {
		t.Errorf("show output should name the input:\n%s", stdout)
	}

	code, stdout, stderr = runCLI(t, "history", "delete", listed)
	if code != 0 {
		t.Fatalf("delete %s exit code %d, stderr: %s", listed, code, stderr)
	}
	if !strings.HasPrefix(stdout, "Deleted conversion "+listed) {
		t.Errorf("unexpected delete output: %q", stdout)
	}
	_, stdout, _ = runCLI(t, "history")
	assertEqual(t, "after delete", "No conversions found\n", stdout)
}

func TestRun_HistoryShowUnknown(t *testing.T) {
	testEnv(t)

	code, _, stderr := runCLI(t, "history", "show", "nope")

	assertEqual(t, "exit code", 1, code)
	if !strings.Contains(stderr, `conversion "nope" not found`) {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRun_Query(t *testing.T) {
	testEnv(t)
	input := copyFixture(t)

	path := "replayChatItemAction.actions.0.addChatItemAction.item.liveChatTextMessageRenderer.authorName.simpleText"
	code, stdout, stderr := runCLI(t, "query", "-l", input, path)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	assertEqual(t, "stdout", "1\t\"alice\"\n3\t\"bob\"\n", stdout)
}

func TestRun_QueryWildcardAndFallback(t *testing.T) {
	testEnv(t)
	input := copyFixture(t)

	code, stdout, stderr := runCLI(t, "query", "--first", input,
		"replayChatItemAction.actions.:.addChatItemAction.item.liveChatTextMessageRenderer.message.runs.:.text",
		"replayChatItemAction.videoOffsetTimeMsec",
	)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	assertEqual(t, "stdout", "\"hi\"\n\"500\"\n\"there\"\n", stdout)
}

func TestRun_QueryRecordRange(t *testing.T) {
	tests := []struct {
		records  string
		expected string
	}{
		{"1:", "2\t\"500\"\n3\t\"2000\"\n"},
		{"-1:", "3\t\"2000\"\n"},
		{"::2", "1\t\"0\"\n3\t\"2000\"\n"},
		{"2:0:-1", "3\t\"2000\"\n2\t\"500\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.records, func(t *testing.T) {
			testEnv(t)
			input := copyFixture(t)

			code, stdout, stderr := runCLI(t, "query", "-l", "--records="+tt.records, input,
				"replayChatItemAction.videoOffsetTimeMsec")
			if code != 0 {
				t.Fatalf("exit code %d, stderr: %s", code, stderr)
			}
			assertEqual(t, "stdout", tt.expected, stdout)
		})
	}
}

func TestRun_QueryRecordRangeSkipsLaterLines(t *testing.T) {
	testEnv(t)
	input := writeChat(t, "{\"a\":1}\n{\"a\":2}\n{not json\n")

	code, stdout, stderr := runCLI(t, "query", "--records=0:1", input, "a")
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	assertEqual(t, "stdout", "1\n", stdout)

	code, stdout, stderr = runCLI(t, "query", input, "a")
	assertEqual(t, "full exit code", 1, code)
	assertEqual(t, "full stdout", "1\n2\n", stdout)
	if !strings.Contains(stderr, "line 3") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRun_QueryInvalidRecordRange(t *testing.T) {
	testEnv(t)
	input := copyFixture(t)

	code, _, stderr := runCLI(t, "query", "--records=a:b", input, "x")

	assertEqual(t, "exit code", 1, code)
	if !strings.Contains(stderr, "--records") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRun_QueryIgnoreCase(t *testing.T) {
	testEnv(t)
	input := copyFixture(t)

	code, stdout, _ := runCLI(t, "query", "-i", input, "REPLAYCHATITEMACTION.VideoOffsetTimeMsec")
	assertEqual(t, "exit code", 0, code)
	assertEqual(t, "stdout", "\"0\"\n\"500\"\n\"2000\"\n", stdout)
}

func TestRun_Migrate(t *testing.T) {
	testEnv(t)

	code, stdout, stderr := runCLI(t, "migrate")
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Current version: 0") || !strings.Contains(stdout, "up 1_create_conversions") {
		t.Errorf("unexpected stdout:\n%s", stdout)
	}

	code, stdout, _ = runCLI(t, "migrate", "0")
	assertEqual(t, "rollback exit code", 0, code)
	if !strings.Contains(stdout, "Migrated to version 0") {
		t.Errorf("unexpected stdout:\n%s", stdout)
	}

	code, _, stderr = runCLI(t, "migrate", "abc")
	assertEqual(t, "bad version exit code", 1, code)
	if !strings.Contains(stderr, "invalid version number") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"missing input", ErrMissingInput, 2},
		{"read error", &ReadError{Path: "x", Err: os.ErrNotExist}, 1},
		{"other", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqual(t, "exit code", tt.want, exitCode(tt.err))
		})
	}
}

func TestReadError(t *testing.T) {
	err := &ReadError{Path: "chat.json", Err: os.ErrPermission}

	if !errors.Is(err, ErrUnreadableInput) {
		t.Error("ReadError should match ErrUnreadableInput")
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("ReadError should unwrap to its cause")
	}
	assertEqual(t, "message", "ERROR: chat file chat.json could not be read", err.Error())
}

func assertEqual[T comparable](t *testing.T, name string, expected, actual T) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", name, expected, actual)
	}
}
