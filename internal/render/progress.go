package render

import (
	"context"

	"github.com/raphaelgruber/credcheck/internal/models"
)

// Stage names reported in progress events.
const (
	StageLayout    = "layout"
	StageMeasure   = "measure"
	StagePaginate  = "paginate"
	StageEncode    = "encode"
	StageFinalize  = "finalize"
	StageRasterize = "rasterize"
)

// Tracker reports stage progress and is where renderers notice cancellation.
// Stage boundaries are the only points at which a renderer may be interrupted.
type Tracker struct {
	total   int
	current int
	report  ProgressFunc
}

// NewTracker creates a tracker for total stages. report may be nil.
func NewTracker(total int, report ProgressFunc) *Tracker {
	if total < 1 {
		total = 1
	}
	return &Tracker{total: total, report: report}
}

// Advance returns the cancellation cause if ctx is done; otherwise it counts
// one stage and reports it.
func (t *Tracker) Advance(ctx context.Context, stage, message string) error {
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	if t.current < t.total {
		t.current++
	}
	t.emit(stage, message, false)
	return nil
}

// Check reports the cancellation cause without counting a stage. Long loops
// inside a stage call it between units of work.
func (t *Tracker) Check(ctx context.Context) error {
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return nil
}

// Done reports completion.
func (t *Tracker) Done(message string) {
	t.current = t.total
	t.emit(StageFinalize, message, true)
}

func (t *Tracker) emit(stage, message string, complete bool) {
	if t.report == nil {
		return
	}
	t.report(models.ExportProgress{
		Current:    t.current,
		Total:      t.total,
		Stage:      stage,
		Message:    message,
		Percentage: float64(t.current) / float64(t.total) * 100,
		IsComplete: complete,
	})
}
