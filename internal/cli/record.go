package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ensemble/internal/contact"
	"github.com/roach88/ensemble/internal/value"
)

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <file>",
		Short: "Normalize a raw record",
		Long: `Normalize a raw record into its canonical form.

Every field of the catalog is present in the output, single values are
wrapped into lists and dates are converted to UTC instants.

Example:
  ensemble normalize house.json
  cat house.json | ensemble normalize - --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd)
			rec, err := readRecord(args[0], cmd.InOrStdin())
			if err != nil {
				return out.Fail(err)
			}
			return out.Render(rec, func(w io.Writer) error {
				return writeJSON(w, rec)
			})
		},
	}
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <a> <b>",
		Short: "Show the changes that turn record a into record b",
		Long: `Compute the changes that turn record a into record b.

"added" holds list entries only b has, "removed" the entries only a has
and "changed" b's value of every scalar field that differs. Patching a
with the result yields a record equivalent to b.

Example:
  ensemble diff old.json new.json
  ensemble diff old.json new.json --format json > change.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd)
			a, b, err := readPair(args, cmd)
			if err != nil {
				return out.Fail(err)
			}
			d := b.Diff(a)
			return out.Render(d, func(w io.Writer) error {
				return writeDiffText(w, b, d)
			})
		},
	}
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <a> <b>",
		Short: "Merge two records",
		Long: `Merge record b into record a.

Lists are unioned, scalars keep a's value unless it is empty, and default
pointers are chosen per field.

Example:
  ensemble merge phone.json laptop.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd)
			a, b, err := readPair(args, cmd)
			if err != nil {
				return out.Fail(err)
			}
			merged := a.Merge(b)
			return out.Render(merged, func(w io.Writer) error {
				return writeJSON(w, merged)
			})
		},
	}
}

// NewPatchCommand creates the patch command.
func NewPatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "patch <record> <diff>",
		Short: "Apply a diff to a record",
		Long: `Apply a diff to a record and print the result.

The diff is validated in full before anything is applied; an invalid diff
leaves the record untouched and exits with status 1.

Example:
  ensemble patch house.json change.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd)
			rec, err := readRecord(args[0], cmd.InOrStdin())
			if err != nil {
				return out.Fail(err)
			}
			d, err := readDiff(args[1], cmd.InOrStdin())
			if err != nil {
				return out.Fail(err)
			}
			patched, err := rec.ApplyDiff(d)
			if err != nil {
				return out.Fail(rejected("failed to apply diff", err))
			}
			return out.Render(patched, func(w io.Writer) error {
				return writeJSON(w, patched)
			})
		},
	}
}

// ShowOutput is the JSON payload of the show command. Defaults holds plain
// Go values keyed by pointer field.
type ShowOutput struct {
	GivenFirst  string         `json:"given_first"`
	FamilyFirst string         `json:"family_first"`
	Defaults    map[string]any `json:"defaults"`
}

// NewShowCommand creates the show command.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Show display names and default values",
		Long: `Show a record's display names and its default email, phone,
messaging handle and photo.

A field without a designated default falls back to its first entry.

Example:
  ensemble show house.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd)
			rec, err := readRecord(args[0], cmd.InOrStdin())
			if err != nil {
				return out.Fail(err)
			}
			show := buildShow(rec)
			return out.Render(show, func(w io.Writer) error {
				return writeShowText(w, rec, show)
			})
		},
	}
}

func buildShow(rec *contact.Record) ShowOutput {
	show := ShowOutput{
		GivenFirst:  rec.DisplayName(contact.GivenFirst),
		FamilyFirst: rec.DisplayName(contact.FamilyFirst),
		Defaults:    map[string]any{},
	}
	for _, field := range rec.Schema().PointerFields() {
		if v, ok := rec.DefaultFor(field); ok {
			show.Defaults[field] = value.ToGo(v)
		}
	}
	return show
}

func writeShowText(w io.Writer, rec *contact.Record, show ShowOutput) error {
	fmt.Fprintf(w, "Name:        %s\n", show.GivenFirst)
	fmt.Fprintf(w, "Sorted as:   %s\n", show.FamilyFirst)
	for _, field := range rec.Schema().PointerFields() {
		v, ok := rec.DefaultFor(field)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%-12s %s\n", contact.Capitalize(field)+":", describe(v))
	}
	return nil
}

// describe renders a list entry for humans: "value (Type, Type)".
func describe(v value.Value) string {
	switch val := v.(type) {
	case value.String:
		return string(val)
	case value.Object:
		if _, ok := val["value"]; !ok {
			return compact(v)
		}
		s := describe(val["value"])
		if types, ok := val["type"].(value.List); ok && len(types) > 0 {
			names := make([]string, 0, len(types))
			for _, t := range types {
				names = append(names, contact.Capitalize(describe(t)))
			}
			s += " (" + strings.Join(names, ", ") + ")"
		}
		return s
	case nil, value.Null:
		return ""
	default:
		return compact(v)
	}
}

func compact(v value.Value) string {
	data, err := value.Marshal(v)
	if err != nil {
		return value.Kind(v)
	}
	return string(data)
}

// writeDiffText prints one line per changed entry, git style.
func writeDiffText(w io.Writer, base *contact.Record, d contact.Diff) error {
	if d.IsEmpty() {
		fmt.Fprintln(w, "No differences.")
		return nil
	}
	for _, field := range d.Fields(base.Schema()) {
		if v, ok := d.Changed[field]; ok {
			fmt.Fprintf(w, "~ %s: %s\n", field, describe(v))
		}
		if l, ok := d.Removed[field].(value.List); ok {
			for _, e := range l {
				fmt.Fprintf(w, "- %s: %s\n", field, describe(e))
			}
		}
		if l, ok := d.Added[field].(value.List); ok {
			for _, e := range l {
				fmt.Fprintf(w, "+ %s: %s\n", field, describe(e))
			}
		}
	}
	return nil
}

func readPair(args []string, cmd *cobra.Command) (*contact.Record, *contact.Record, error) {
	if args[0] == stdinPath && args[1] == stdinPath {
		return nil, nil, NewExitError(ExitCommandError, "only one input may be read from stdin")
	}
	a, err := readRecord(args[0], cmd.InOrStdin())
	if err != nil {
		return nil, nil, err
	}
	b, err := readRecord(args[1], cmd.InOrStdin())
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
