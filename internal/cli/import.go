package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/ensemble/internal/contact"
	"github.com/roach88/ensemble/internal/jobqueue"
	"github.com/roach88/ensemble/internal/legacy"
	"github.com/roach88/ensemble/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	DryRun bool
}

// ImportOutput is the JSON payload of the import command.
type ImportOutput struct {
	IDs     []string          `json:"ids,omitempty"`
	Records []*contact.Record `json:"records,omitempty"`
	Tags    map[string]string `json:"tags"`
	Unknown map[int][]string  `json:"unknown,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <book.yaml>",
		Short: "Import a legacy address book",
		Long: `Import the cards of a legacy address book export.

Cards are mapped to records, normalized in parallel and then saved one at
a time in book order. Directories and mailing lists become category tags.
Card properties with no matching field are reported, not fatal.

Example:
  ensemble import addressbook.yaml
  ensemble import addressbook.yaml --dry-run --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the records instead of saving them")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger()
	ctx := commandContext(cmd)

	book, err := legacy.LoadBook(path)
	if err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to load address book", err))
	}
	res := legacy.Process(book)
	logger.Info("address book loaded",
		zap.String("path", path),
		zap.Int("cards", len(res.Records)),
		zap.Int("tags", len(res.Tags)))

	records, err := normalizeAll(ctx, res, opts.importWorkers())
	if err != nil {
		return out.Fail(err)
	}

	result := ImportOutput{Tags: res.Tags, Unknown: res.Unknown}
	for i, unknown := range res.Unknown {
		out.VerboseLog("card %d: skipped %v", i, unknown)
	}

	if opts.DryRun {
		result.Records = records
		return out.Render(result, func(w io.Writer) error {
			return writeJSON(w, records)
		})
	}

	st, err := opts.openStore()
	if err != nil {
		return out.Fail(err)
	}
	defer opts.closeStore(st)

	ids, err := saveAll(ctx, st, records, logger, out)
	if err != nil {
		return out.Fail(rejected("import stopped", err))
	}
	result.IDs = ids

	return out.Render(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Imported %d contact(s)\n", len(ids))
		if len(res.Unknown) > 0 {
			fmt.Fprintf(w, "%d card(s) had unrecognized properties (use --verbose to list them)\n", len(res.Unknown))
		}
		return nil
	})
}

// normalizeAll normalizes every mapped card, at most workers at a time.
// Results keep book order.
func normalizeAll(ctx context.Context, res *legacy.Result, workers int) ([]*contact.Record, error) {
	records := make([]*contact.Record, len(res.Records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, raw := range res.Records {
		i, raw := i, raw
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := contact.Normalize(raw)
			if err != nil {
				return WrapExitError(ExitFailure, fmt.Sprintf("card %d", i), err)
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// saveAll stores the records one at a time, in order, through a job queue.
// The first failure stops the import; contacts saved before it are kept.
func saveAll(ctx context.Context, st *store.Store, records []*contact.Record, logger *zap.Logger, out *OutputFormatter) ([]string, error) {
	q := jobqueue.New(jobqueue.WithLogger(logger))
	q.AddListener(jobqueue.Listeners{
		Progress: func(completed, total int) {
			out.VerboseLog("saved %d/%d", completed, total)
		},
	})

	ids := make([]string, 0, len(records))
	for i, rec := range records {
		i, rec := i, rec
		q.AddJob(fmt.Sprintf("save card %d", i), func(ctx context.Context) error {
			id, err := st.SaveContact(ctx, "", rec)
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
	}
	q.Close()

	if err := q.Run(ctx); err != nil {
		return ids, err
	}
	return ids, nil
}
