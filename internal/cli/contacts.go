package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/ensemble/internal/contact"
	"github.com/roach88/ensemble/internal/value"
)

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	ID string
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Normalize a record and store it",
		Long: `Normalize a record and store it in the database.

Without --id a new contact is created; with --id the stored contact is
replaced.

Example:
  ensemble save house.json
  ensemble save --id 0b6f... house.json --db ./contacts.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts.RootOptions, cmd)
			rec, err := readRecord(args[0], cmd.InOrStdin())
			if err != nil {
				return out.Fail(err)
			}

			st, err := opts.openStore()
			if err != nil {
				return out.Fail(err)
			}
			defer opts.closeStore(st)

			id, err := st.SaveContact(commandContext(cmd), opts.ID, rec)
			if err != nil {
				return out.Fail(rejected("failed to save contact", err))
			}
			opts.logger().Info("contact saved", zap.String("id", id))
			return out.Render(map[string]string{"id": id}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, id)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "replace the contact with this id")

	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <id>",
		Short:         "Print a stored contact",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd)
			st, err := opts.openStore()
			if err != nil {
				return out.Fail(err)
			}
			defer opts.closeStore(st)

			rec, err := st.GetContact(commandContext(cmd), args[0])
			if err != nil {
				return out.Fail(rejected("failed to get contact", err))
			}
			return out.Render(rec, func(w io.Writer) error {
				return writeJSON(w, rec)
			})
		},
	}
}

// ContactListItem is one entry of the list command's JSON payload.
type ContactListItem struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Revision    string `json:"revision"`
}

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stored contacts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd)
			st, err := opts.openStore()
			if err != nil {
				return out.Fail(err)
			}
			defer opts.closeStore(st)

			summaries, err := st.ListContacts(commandContext(cmd))
			if err != nil {
				return out.Fail(rejected("failed to list contacts", err))
			}

			items := make([]ContactListItem, len(summaries))
			for i, s := range summaries {
				items[i] = ContactListItem{ID: s.ID, DisplayName: s.DisplayName, Revision: s.Revision}
			}
			return out.Render(items, func(w io.Writer) error {
				if len(items) == 0 {
					fmt.Fprintln(w, "No contacts.")
					return nil
				}
				for _, item := range items {
					fmt.Fprintf(w, "%s  %s\n", item.ID, item.DisplayName)
				}
				return nil
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a stored contact and its pending diffs",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd)
			st, err := opts.openStore()
			if err != nil {
				return out.Fail(err)
			}
			defer opts.closeStore(st)

			if err := st.DeleteContact(commandContext(cmd), args[0]); err != nil {
				return out.Fail(rejected("failed to delete contact", err))
			}
			return out.Render(map[string]string{"id": args[0]}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted %s\n", args[0])
				return err
			})
		},
	}
}

// NewFindCommand creates the find command.
func NewFindCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "find <field> <value>",
		Short: "Find contacts holding a list entry",
		Long: `Find the contacts whose list field holds the given entry.

The value is parsed as JSON when possible, so structured entries can be
matched exactly; anything else is taken as a plain string.

Example:
  ensemble find name House
  ensemble find email '{"type":["Work"],"value":"house@example.com"}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd)
			v := parseEntry(args[1])

			st, err := opts.openStore()
			if err != nil {
				return out.Fail(err)
			}
			defer opts.closeStore(st)

			ids, err := st.FindByValue(commandContext(cmd), args[0], v)
			if err != nil {
				return out.Fail(rejected("failed to search contacts", err))
			}
			return out.Render(ids, func(w io.Writer) error {
				for _, id := range ids {
					fmt.Fprintln(w, id)
				}
				return nil
			})
		},
	}
}

// parseEntry reads a command-line list entry: a JSON object for structured
// fields, otherwise a string.
func parseEntry(arg string) value.Value {
	var obj value.Object
	if err := json.Unmarshal([]byte(arg), &obj); err == nil {
		return obj
	}
	return value.String(arg)
}

// NewQueueDiffCommand creates the queue-diff command.
func NewQueueDiffCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "queue-diff <id> <diff>",
		Short: "Queue a diff for later application",
		Long: `Queue a diff against a stored contact.

Queued diffs are applied in order by apply-pending. Queuing the same diff
twice for one contact is a no-op.

Example:
  ensemble diff old.json new.json --format json | jq .data > change.json
  ensemble queue-diff 0b6f... change.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd)
			d, err := readDiff(args[1], cmd.InOrStdin())
			if err != nil {
				return out.Fail(err)
			}

			st, err := opts.openStore()
			if err != nil {
				return out.Fail(err)
			}
			defer opts.closeStore(st)

			diffID, err := st.QueueDiff(commandContext(cmd), args[0], d)
			if err != nil {
				return out.Fail(rejected("failed to queue diff", err))
			}
			return out.Render(map[string]string{"id": diffID}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, diffID)
				return err
			})
		},
	}
}

// ApplyPendingOutput is the JSON payload of the apply-pending command.
type ApplyPendingOutput struct {
	Applied int             `json:"applied"`
	Record  *contact.Record `json:"record"`
}

// NewApplyPendingCommand creates the apply-pending command.
func NewApplyPendingCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply-pending <id>",
		Short: "Apply every queued diff of a contact",
		Long: `Apply the diffs queued for a contact, oldest first.

Either every diff applies and the queue is emptied, or none does and the
stored contact is unchanged.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts, cmd)
			st, err := opts.openStore()
			if err != nil {
				return out.Fail(err)
			}
			defer opts.closeStore(st)

			rec, applied, err := st.ApplyPending(commandContext(cmd), args[0])
			if err != nil {
				return out.Fail(rejected("failed to apply pending diffs", err))
			}
			out.VerboseLog("Applied %d diff(s) to %s", applied, args[0])
			return out.Render(ApplyPendingOutput{Applied: applied, Record: rec}, func(w io.Writer) error {
				fmt.Fprintf(w, "Applied %d diff(s)\n", applied)
				return writeJSON(w, rec)
			})
		},
	}
}
