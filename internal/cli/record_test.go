package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ensemble/internal/contact"
)

func TestNormalizeCommand_JSON(t *testing.T) {
	path := writeFile(t, "house.json", houseJSON)

	out, err := execute(t, NewNormalizeCommand(&RootOptions{Format: "json"}), "", path)
	require.NoError(t, err)

	var rec map[string]any
	resp := decode(t, out, &rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, rec, 25)
	assert.Equal(t, []any{"Gregory House"}, rec["name"])
	assert.Equal(t, []any{map[string]any{"type": []any{"Work"}, "value": "house@ppth.org"}}, rec["email"])
	assert.Nil(t, rec["bday"])
}

func TestNormalizeCommand_YAML(t *testing.T) {
	path := writeFile(t, "wilson.yaml", "name: James Wilson\nbday: 1969-05-01\ntel:\n  - value: 555-0101\n")

	out, err := execute(t, NewNormalizeCommand(&RootOptions{Format: "json"}), "", path)
	require.NoError(t, err)

	var rec map[string]any
	decode(t, out, &rec)
	assert.Equal(t, []any{"James Wilson"}, rec["name"])
	assert.Equal(t, "1969-05-01T00:00:00.000Z", rec["bday"])
	assert.Equal(t, []any{map[string]any{"value": "555-0101"}}, rec["tel"])
}

func TestNormalizeCommand_FractionalNumbers(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "frac.json", `{"popularity": 2.5, "note": [1.5]}`},
		{"yaml", "frac.yaml", "popularity: 2.5\nnote:\n  - 1.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			out, err := execute(t, NewNormalizeCommand(&RootOptions{Format: "json"}), "", path)
			require.NoError(t, err)

			var rec map[string]any
			resp := decode(t, out, &rec)
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, 2.5, rec["popularity"])
			assert.Equal(t, []any{1.5}, rec["note"])
		})
	}
}

func TestNormalizeCommand_Stdin(t *testing.T) {
	out, err := execute(t, NewNormalizeCommand(&RootOptions{Format: "text"}), `{"nickname":"Hugh"}`, "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"nickname": [`)
	assert.Contains(t, out, `"Hugh"`)
}

func TestNormalizeCommand_SchemaViolation(t *testing.T) {
	path := writeFile(t, "bad.json", `{"sex": ["a", "b"]}`)

	out, err := execute(t, NewNormalizeCommand(&RootOptions{Format: "json"}), "", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSchemaViolation, resp.Error.Code)
	assert.Equal(t, "sex", resp.Error.Details.(map[string]any)["field"])
}

func TestNormalizeCommand_MissingFile(t *testing.T) {
	_, err := execute(t, NewNormalizeCommand(&RootOptions{Format: "text"}), "", "does-not-exist.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestNormalizeCommand_MalformedJSON(t *testing.T) {
	path := writeFile(t, "broken.json", `{"name": `)

	_, err := execute(t, NewNormalizeCommand(&RootOptions{Format: "text"}), "", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestDiffCommand_JSON(t *testing.T) {
	a := writeFile(t, "a.json", houseJSON)
	b := writeFile(t, "b.json", `{
  "name": "Gregory House",
  "givenName": "Gregory",
  "familyName": "House",
  "email": [{"type": "Work", "value": "house@ppth.org"}],
  "tel": [{"type": ["Work"], "value": "555-0100"}, {"type": "Home", "value": "555-0199"}]
}`)

	out, err := execute(t, NewDiffCommand(&RootOptions{Format: "json"}), "", a, b)
	require.NoError(t, err)

	var d map[string]map[string]any
	decode(t, out, &d)
	assert.Equal(t, map[string]any{
		"tel": []any{map[string]any{"type": []any{"Home"}, "value": "555-0199"}},
	}, d["added"])
	assert.Empty(t, d["removed"])
	assert.Empty(t, d["changed"])
}

func TestDiffCommand_Text(t *testing.T) {
	a := writeFile(t, "a.json", `{"name": "House", "sex": "M"}`)
	b := writeFile(t, "b.json", `{"name": "Wilson", "sex": "F", "tel": {"type": "home", "value": "555-1"}}`)

	out, err := execute(t, NewDiffCommand(&RootOptions{Format: "text"}), "", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "- name: House")
	assert.Contains(t, out, "+ name: Wilson")
	assert.Contains(t, out, "+ tel: 555-1 (Home)")
	assert.Contains(t, out, "~ sex: F")
}

func TestDiffCommand_NoDifferences(t *testing.T) {
	a := writeFile(t, "a.json", houseJSON)

	out, err := execute(t, NewDiffCommand(&RootOptions{Format: "text"}), "", a, a)
	require.NoError(t, err)
	assert.Contains(t, out, "No differences.")
}

func TestDiffCommand_OneStdinOnly(t *testing.T) {
	_, err := execute(t, NewDiffCommand(&RootOptions{Format: "text"}), "{}", "-", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdin")
}

func TestMergeCommand(t *testing.T) {
	a := writeFile(t, "a.json", houseJSON)
	b := writeFile(t, "b.yaml", "name: Greg House\nnickname: Greg\nfamilyName: Haus\n")

	out, err := execute(t, NewMergeCommand(&RootOptions{Format: "json"}), "", a, b)
	require.NoError(t, err)

	var rec map[string]any
	decode(t, out, &rec)
	assert.Equal(t, []any{"Gregory House", "Greg House"}, rec["name"])
	assert.Equal(t, []any{"Greg"}, rec["nickname"])
	assert.Equal(t, []any{"House", "Haus"}, rec["familyName"])
}

func TestPatchCommand(t *testing.T) {
	rec := writeFile(t, "house.json", houseJSON)
	diff := writeFile(t, "diff.json", addHomeTelJSON)

	out, err := execute(t, NewPatchCommand(&RootOptions{Format: "json"}), "", rec, diff)
	require.NoError(t, err)

	var patched map[string]any
	decode(t, out, &patched)
	assert.Equal(t, []any{
		map[string]any{"type": []any{"Work"}, "value": "555-0100"},
		map[string]any{"type": []any{"Home"}, "value": "555-0199"},
	}, patched["tel"])
}

func TestPatchCommand_DiffFromStdin(t *testing.T) {
	rec := writeFile(t, "house.json", houseJSON)

	out, err := execute(t, NewPatchCommand(&RootOptions{Format: "text"}), addHomeTelJSON, rec, "-")
	require.NoError(t, err)
	assert.Contains(t, out, "555-0199")
}

func TestPatchCommand_RejectsInvalidDiff(t *testing.T) {
	tests := []struct {
		name string
		diff string
	}{
		{"unknown field", `{"added": {"bogus": ["x"]}}`},
		{"scalar field added", `{"added": {"sex": ["M"]}}`},
		{"unknown partition", `{"moved": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := writeFile(t, "house.json", houseJSON)
			diff := writeFile(t, "diff.json", tt.diff)

			out, err := execute(t, NewPatchCommand(&RootOptions{Format: "json"}), "", rec, diff)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			resp := decode(t, out, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrCodeSchemaViolation, resp.Error.Code)
		})
	}
}

func TestShowCommand_Text(t *testing.T) {
	path := writeFile(t, "cuddy.json", `{
  "givenName": "Lisa",
  "familyName": "Cuddy",
  "email": [
    {"type": ["work"], "value": "cuddy@ppth.org"},
    {"type": ["home"], "value": "lisa@example.com"}
  ],
  "defaults": {"email": {"type": ["home"], "value": "lisa@example.com"}}
}`)

	out, err := execute(t, NewShowCommand(&RootOptions{Format: "text"}), "", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Lisa Cuddy")
	assert.Contains(t, out, "Cuddy, Lisa")
	assert.Contains(t, out, "Email:")
	assert.Contains(t, out, "lisa@example.com (Home)")
	assert.NotContains(t, out, "Tel:")
}

func TestShowCommand_JSON(t *testing.T) {
	path := writeFile(t, "house.json", houseJSON)

	out, err := execute(t, NewShowCommand(&RootOptions{Format: "json"}), "", path)
	require.NoError(t, err)

	var raw map[string]any
	resp := decode(t, out, &raw)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Gregory House", raw["given_first"])
	assert.Equal(t, "Gregory House", raw["family_first"])
	assert.Equal(t, map[string]any{
		"email": map[string]any{"type": []any{"Work"}, "value": "house@ppth.org"},
		"tel":   map[string]any{"type": []any{"Work"}, "value": "555-0100"},
	}, raw["defaults"])
}

func TestBuildShow_PlainValues(t *testing.T) {
	rec, err := contact.Normalize(contact.RawMap{
		"givenName": "Lisa",
		"impp":      map[string]any{"type": "aim", "value": "lcuddy", "since": 2.5},
	})
	require.NoError(t, err)

	show := buildShow(rec)
	assert.Equal(t, "Lisa", show.GivenFirst)
	assert.Equal(t, map[string]any{
		"impp": map[string]any{"type": []any{"aim"}, "value": "lcuddy", "since": 2.5},
	}, show.Defaults)
}

func TestDiffThenPatchReproducesTarget(t *testing.T) {
	a := writeFile(t, "a.json", houseJSON)
	b := writeFile(t, "b.json", `{
  "name": "Gregory House",
  "nickname": "Greg",
  "sex": "Male",
  "tel": [{"type": ["Work"], "value": "555-0100"}],
  "bday": "1959-06-11"
}`)

	out, err := execute(t, NewDiffCommand(&RootOptions{Format: "json"}), "", a, b)
	require.NoError(t, err)
	diff := writeFile(t, "diff.json", string(decode(t, out, nil).Data))

	out, err = execute(t, NewPatchCommand(&RootOptions{Format: "json"}), "", a, diff)
	require.NoError(t, err)
	var patched map[string]any
	decode(t, out, &patched)

	out, err = execute(t, NewNormalizeCommand(&RootOptions{Format: "json"}), "", b)
	require.NoError(t, err)
	var want map[string]any
	decode(t, out, &want)

	assert.Equal(t, want, patched)
}
