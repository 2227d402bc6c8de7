package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const houseJSON = `{
  "name": "Gregory House",
  "givenName": "Gregory",
  "familyName": "House",
  "email": [{"type": "Work", "value": "house@ppth.org"}],
  "tel": [{"type": ["Work"], "value": "555-0100"}]
}`

const addHomeTelJSON = `{
  "added": {"tel": [{"type": ["Home"], "value": "555-0199"}]},
  "removed": {},
  "changed": {}
}`

// testResponse mirrors CLIResponse with the payload left undecoded.
type testResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// writeFile writes content to name inside a fresh temp dir.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// jsonOpts returns root options for JSON output against a temp database.
func jsonOpts(t *testing.T) *RootOptions {
	t.Helper()
	return &RootOptions{Format: "json", Database: filepath.Join(t.TempDir(), "contacts.db")}
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decode parses a JSON envelope and, when data is non-nil, its payload.
func decode(t *testing.T, out string, data any) testResponse {
	t.Helper()
	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if data != nil && resp.Status == "ok" {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

// chdir changes the working directory to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(wd)) })
}
