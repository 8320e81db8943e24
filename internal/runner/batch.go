package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/tasking-planner/internal/logging"
	"github.com/signalsfoundry/tasking-planner/internal/report"
	"github.com/signalsfoundry/tasking-planner/internal/store"
)

// Batch is the result of planning every matching problem in a directory.
type Batch struct {
	ID       string
	Dir      string
	Outcomes []Outcome
}

// Rows converts the batch into report rows, in file order.
func (b *Batch) Rows() []report.Row {
	rows := make([]report.Row, 0, len(b.Outcomes))
	for _, o := range b.Outcomes {
		rows = append(rows, o.Row())
	}
	return rows
}

// Records converts the batch into history records.
func (b *Batch) Records() []store.Run {
	runs := make([]store.Run, 0, len(b.Outcomes))
	for _, o := range b.Outcomes {
		runs = append(runs, o.Record(b.ID))
	}
	return runs
}

// ProblemFiles lists the regular files in dir whose name contains pattern,
// sorted by name.
func ProblemFiles(dir, pattern string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read problem dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.Contains(e.Name(), pattern) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// RunBatch plans every matching problem in dir, at most Options.Workers at a
// time. Outcomes come back in file order. A problem that errors is reported
// as a failed outcome and does not stop the batch; only context
// cancellation or an unreadable dir aborts it.
func (r *Runner) RunBatch(ctx context.Context, dir string) (*Batch, error) {
	files, err := ProblemFiles(dir, r.pattern)
	if err != nil {
		return nil, err
	}

	b := &Batch{ID: r.newID(), Dir: dir, Outcomes: make([]Outcome, len(files))}
	log := r.log.With(logging.String("batch_id", b.ID))
	log.Info(ctx, "batch started",
		logging.String("dir", dir),
		logging.Int("problems", len(files)),
		logging.Int("workers", r.workers),
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			b.Outcomes[i] = r.RunFile(gCtx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := report.Summarize(b.Rows())
	log.Info(ctx, "batch finished",
		logging.Int("tested", sum.Tested),
		logging.Int("failed", sum.Failed),
		logging.Int("nodes_expanded", sum.NodesExpanded),
	)
	return b, nil
}
