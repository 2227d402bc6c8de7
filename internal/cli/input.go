package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ensemble/internal/contact"
	"github.com/roach88/ensemble/internal/value"
)

// stdinPath selects standard input instead of a file.
const stdinPath = "-"

// readDocument reads a JSON or YAML object from path. YAML is chosen by a
// .yaml or .yml extension; everything else, stdin included, is JSON.
func readDocument(path string, stdin io.Reader) (map[string]any, error) {
	var data []byte
	var err error
	if path == stdinPath {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read input", err)
	}

	doc := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&doc)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to parse %s", displayPath(path)), err)
	}
	return doc, nil
}

// readRecord reads and normalizes a raw record.
func readRecord(path string, stdin io.Reader) (*contact.Record, error) {
	doc, err := readDocument(path, stdin)
	if err != nil {
		return nil, err
	}
	rec, err := contact.Normalize(doc)
	if err != nil {
		return nil, WrapExitError(ExitFailure, fmt.Sprintf("invalid record %s", displayPath(path)), err)
	}
	return rec, nil
}

// readDiff reads a diff object with added/removed/changed partitions.
func readDiff(path string, stdin io.Reader) (contact.Diff, error) {
	doc, err := readDocument(path, stdin)
	if err != nil {
		return contact.Diff{}, err
	}
	v, err := value.FromGo(doc)
	if err != nil {
		return contact.Diff{}, WrapExitError(ExitFailure, fmt.Sprintf("invalid diff %s", displayPath(path)), err)
	}
	d, err := contact.DiffFromObject(v.(value.Object))
	if err != nil {
		return contact.Diff{}, WrapExitError(ExitFailure, fmt.Sprintf("invalid diff %s", displayPath(path)), err)
	}
	return d, nil
}

func displayPath(path string) string {
	if path == stdinPath {
		return "<stdin>"
	}
	return path
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}
