package export

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func checklist(title string) *models.ChecklistResult {
	return &models.ChecklistResult{
		Title:           title,
		CreatedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Score:           models.Score{Total: 3, MaxScore: 5},
		ConfidenceLevel: 70,
		Judgment:        models.JudgmentCaution,
		Items: []models.CheckItem{
			{ID: "a", Category: models.CategoryCritical, Checked: true, Title: "Author named?"},
			{ID: "b", Category: models.CategoryContext, Title: "Date given?"},
		},
	}
}

// stageRenderer runs a fixed number of stages, each taking delay without
// looking at ctx, like a real renderer between boundaries.
type stageRenderer struct {
	format models.ExportFormat
	stages int
	delay  time.Duration
	data   []byte
	err    error

	mu    sync.Mutex
	order []string
	calls int
}

func (s *stageRenderer) Format() models.ExportFormat { return s.format }

func (s *stageRenderer) Render(ctx context.Context, doc *render.Document, progress render.ProgressFunc) (*render.Output, error) {
	s.mu.Lock()
	s.calls++
	s.order = append(s.order, doc.Checklist.Title)
	s.mu.Unlock()

	t := render.NewTracker(s.stages, progress)
	for i := 0; i < s.stages; i++ {
		if err := t.Advance(ctx, render.StageEncode, "working"); err != nil {
			return nil, err
		}
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	t.Done("done")
	return &render.Output{Data: s.data}, nil
}

func (s *stageRenderer) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func newOrchestrator(cfg Config, renderers ...render.Renderer) *Orchestrator {
	return New(cfg, renderers, nil, nil, nil)
}

func TestExportCompletes(t *testing.T) {
	o := newOrchestrator(Config{Timeout: 5 * time.Second}, render.Standard()...)
	defer o.Close()

	id, err := o.Enqueue(checklist("Flood rumour"), models.ExportOptions{Format: models.FormatJSON, IncludeSummary: true}, 0)
	require.NoError(t, err)

	var rec recorder
	unsubscribe, err := o.Subscribe(id, rec.record)
	require.NoError(t, err)
	defer unsubscribe()

	o.Start(context.Background())
	item, err := o.Wait(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, item.Status)
	require.NotNil(t, item.Result)
	assert.True(t, item.Result.Success)
	assert.Equal(t, "application/json", item.Result.MIMEType)
	assert.True(t, strings.HasPrefix(item.Result.Filename, "flood-rumour-"))
	assert.True(t, strings.HasSuffix(item.Result.Filename, ".json"))
	assert.Equal(t, int64(len(item.Result.Data)), item.Result.FileSize)
	assert.True(t, item.Progress.IsComplete)

	events := rec.all()
	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, EventStarted, events[0].Type)
	assert.Equal(t, EventComplete, events[len(events)-1].Type)
	last := 0
	for _, ev := range events[1 : len(events)-1] {
		require.Equal(t, EventProgress, ev.Type)
		assert.GreaterOrEqual(t, ev.Progress.Current, last)
		last = ev.Progress.Current
	}

	stats := o.Statistics()
	assert.Equal(t, int64(1), stats.TotalExports)
	assert.Equal(t, int64(1), stats.ExportsByFormat[models.FormatJSON])
	assert.InDelta(t, 100, stats.SuccessRate, 0.001)
}

func TestEnqueueRejectsInvalidRequests(t *testing.T) {
	pdf := &stageRenderer{format: models.FormatPDF, stages: 1, data: []byte("%PDF")}
	o := newOrchestrator(Config{}, append(render.Standard(), pdf)...)
	defer o.Close()

	tests := []struct {
		name string
		c    *models.ChecklistResult
		opts models.ExportOptions
		want error
	}{
		{"two pdf modes", checklist("x"), models.ExportOptions{Format: models.FormatPDF, TextMode: true, PixelPerfectMode: true}, models.ErrInvalidOptions},
		{"no pdf mode", checklist("x"), models.ExportOptions{Format: models.FormatPDF}, models.ErrInvalidOptions},
		{"pdf flag on html", checklist("x"), models.ExportOptions{Format: models.FormatHTML, ReliableMode: true}, models.ErrUnsupportedFeature},
		{"unknown format", checklist("x"), models.ExportOptions{Format: "docx"}, models.ErrInvalidOptions},
		{"nil checklist", nil, models.ExportOptions{Format: models.FormatJSON}, models.ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Enqueue(tt.c, tt.opts, 0)
			require.ErrorIs(t, err, tt.want)
		})
	}

	assert.Empty(t, o.Items(), "rejected requests never occupy the queue")
	assert.Zero(t, pdf.calls)
	assert.Zero(t, o.Statistics().TotalExports)
}

func TestTimeoutFailsPromptly(t *testing.T) {
	slow := &stageRenderer{format: models.FormatHTML, stages: 20, delay: 40 * time.Millisecond, data: []byte("x")}
	o := newOrchestrator(Config{Timeout: 100 * time.Millisecond}, slow)
	defer o.Close()

	id, err := o.Enqueue(checklist("slow"), models.ExportOptions{Format: models.FormatHTML}, 0)
	require.NoError(t, err)

	start := time.Now()
	o.Start(context.Background())
	item, err := o.Wait(context.Background(), id)
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.Equal(t, models.StatusFailed, item.Status)
	require.NotNil(t, item.Error)
	assert.Equal(t, models.CodeTimeout, item.Error.Code)
	assert.ErrorIs(t, item.Error, models.ErrTimeout)
	assert.False(t, item.Result.Success)
	assert.Less(t, elapsed, 100*time.Millisecond+250*time.Millisecond)

	stats := o.Statistics()
	assert.Equal(t, int64(1), stats.TotalExports)
	assert.Zero(t, stats.SuccessRate)
}

// stuckRenderer blocks until release is closed and never looks at ctx.
type stuckRenderer struct {
	release chan struct{}
}

func (s *stuckRenderer) Format() models.ExportFormat { return models.FormatHTML }

func (s *stuckRenderer) Render(context.Context, *render.Document, render.ProgressFunc) (*render.Output, error) {
	<-s.release
	return &render.Output{Data: []byte("late")}, nil
}

func TestCloseDoesNotWaitForStuckRenderer(t *testing.T) {
	stuck := &stuckRenderer{release: make(chan struct{})}
	defer close(stuck.release)
	o := newOrchestrator(Config{Timeout: 100 * time.Millisecond, DrainTimeout: 50 * time.Millisecond}, stuck)

	id, err := o.Enqueue(checklist("stuck"), models.ExportOptions{Format: models.FormatHTML}, 0)
	require.NoError(t, err)
	o.Start(context.Background())

	item, err := o.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, item.Status)
	require.NotNil(t, item.Error)
	assert.Equal(t, models.CodeTimeout, item.Error.Code)

	closed := make(chan struct{})
	go func() {
		o.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on a renderer that ignores its context")
	}

	got, err := o.Item(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status, "a late result never revives the item")
}

func TestSubscriberMayReadItem(t *testing.T) {
	o := newOrchestrator(Config{}, render.Standard()...)
	defer o.Close()

	id, err := o.Enqueue(checklist("read back"), models.ExportOptions{Format: models.FormatHTML}, 0)
	require.NoError(t, err)

	seen := make(chan models.QueueStatus, 1)
	_, err = o.Subscribe(id, func(ev Event) {
		if !ev.Type.Terminal() {
			return
		}
		item, err := o.Item(id)
		if err == nil {
			seen <- item.Status
		}
		o.Items()
	})
	require.NoError(t, err)

	require.NoError(t, o.Cancel(id))
	select {
	case status := <-seen:
		assert.Equal(t, models.StatusCancelled, status)
	case <-time.After(time.Second):
		t.Fatal("subscriber could not read its item")
	}
}

func TestCancelPending(t *testing.T) {
	o := newOrchestrator(Config{}, render.Standard()...)
	defer o.Close()

	id, err := o.Enqueue(checklist("queued"), models.ExportOptions{Format: models.FormatHTML}, 0)
	require.NoError(t, err)
	require.NoError(t, o.Cancel(id))

	item, err := o.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, item.Status)
	assert.ErrorIs(t, item.Error, models.ErrCancelled)

	require.ErrorIs(t, o.Cancel(id), ErrNotCancellable)
	require.ErrorIs(t, o.Cancel("missing"), ErrNotFound)

	var rec recorder
	_, err = o.Subscribe(id, rec.record)
	require.NoError(t, err)
	require.Len(t, rec.all(), 1, "terminal event is replayed")
	assert.Equal(t, EventCancelled, rec.all()[0].Type)

	assert.Zero(t, o.Statistics().TotalExports, "cancelled exports are not counted")
}

func TestCancelProcessing(t *testing.T) {
	slow := &stageRenderer{format: models.FormatHTML, stages: 100, delay: 10 * time.Millisecond, data: []byte("x")}
	o := newOrchestrator(Config{Timeout: 10 * time.Second}, slow)
	defer o.Close()

	id, err := o.Enqueue(checklist("long"), models.ExportOptions{Format: models.FormatHTML}, 0)
	require.NoError(t, err)
	o.Start(context.Background())

	require.Eventually(t, func() bool {
		item, _ := o.Item(id)
		return item.Status == models.StatusProcessing && item.Progress.Current > 0
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, o.Cancel(id))

	item, err := o.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, item.Status)
	assert.Equal(t, models.CodeCancelled, item.Error.Code)
	assert.Zero(t, o.Statistics().TotalExports)
}

func TestPriorityThenFIFO(t *testing.T) {
	rec := &stageRenderer{format: models.FormatMarkdown, stages: 1, data: []byte("#")}
	o := newOrchestrator(Config{Concurrency: 1}, rec)
	defer o.Close()

	var ids []string
	for _, req := range []struct {
		title    string
		priority int
	}{{"low", 0}, {"high", 10}, {"mid", 5}, {"high-2", 10}} {
		id, err := o.Enqueue(checklist(req.title), models.ExportOptions{Format: models.FormatMarkdown}, req.priority)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	o.Start(context.Background())
	for _, id := range ids {
		_, err := o.Wait(context.Background(), id)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"high", "high-2", "mid", "low"}, rec.seen())
}

func TestFileTooLarge(t *testing.T) {
	big := &stageRenderer{format: models.FormatCSV, stages: 1, data: []byte("0123456789ABCDEF")}
	o := newOrchestrator(Config{MaxFileSize: 10}, big)
	defer o.Close()

	id, err := o.Enqueue(checklist("big"), models.ExportOptions{Format: models.FormatCSV}, 0)
	require.NoError(t, err)
	o.Start(context.Background())

	item, err := o.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, item.Status)
	assert.ErrorIs(t, item.Error, models.ErrFileTooLarge)
	assert.Nil(t, item.Result.Data, "no partial payload")
	assert.Equal(t, int64(1), o.Statistics().TotalExports)
}

func TestRendererErrorIsClassified(t *testing.T) {
	broken := &stageRenderer{format: models.FormatHTML, stages: 2, err: errors.New("boom")}
	o := newOrchestrator(Config{}, broken)
	defer o.Close()

	id, err := o.Enqueue(checklist("broken"), models.ExportOptions{Format: models.FormatHTML}, 0)
	require.NoError(t, err)
	o.Start(context.Background())

	var rec recorder
	_, err = o.Subscribe(id, rec.record)
	require.NoError(t, err)

	item, err := o.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, item.Status)
	assert.Equal(t, models.CodeGenerationFailure, item.Error.Code)

	events := rec.all()
	require.NotEmpty(t, events)
	assert.Equal(t, EventError, events[len(events)-1].Type)
	terminal := 0
	for _, ev := range events {
		if ev.Type.Terminal() {
			terminal++
		}
	}
	assert.Equal(t, 1, terminal)
}

func TestCompletedImpliesSuccess(t *testing.T) {
	o := newOrchestrator(Config{Concurrency: 3}, render.Standard()...)
	defer o.Close()

	var ids []string
	for _, f := range []models.ExportFormat{models.FormatHTML, models.FormatMarkdown, models.FormatJSON, models.FormatCSV} {
		id, err := o.Enqueue(checklist(string(f)), models.ExportOptions{Format: f, IncludeGuides: true}, 0)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	o.Start(context.Background())

	for _, id := range ids {
		item, err := o.Wait(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, models.StatusCompleted, item.Status)
		assert.True(t, item.Result.Success)
		assert.Nil(t, item.Error)
		require.NotNil(t, item.StartedAt)
		require.NotNil(t, item.CompletedAt)
	}
	assert.Equal(t, int64(4), o.Statistics().TotalExports)
}

func TestChecklistIsSnapshotted(t *testing.T) {
	o := newOrchestrator(Config{}, render.Standard()...)
	defer o.Close()

	c := checklist("original")
	id, err := o.Enqueue(c, models.ExportOptions{Format: models.FormatJSON}, 0)
	require.NoError(t, err)
	c.Title = "changed"
	c.Items[0].Checked = false

	item, err := o.Item(id)
	require.NoError(t, err)
	assert.Equal(t, "original", item.Checklist.Title)
	assert.True(t, item.Checklist.Items[0].Checked)
}

func TestCloseCancelsQueued(t *testing.T) {
	o := newOrchestrator(Config{}, render.Standard()...)

	id, err := o.Enqueue(checklist("never run"), models.ExportOptions{Format: models.FormatHTML}, 0)
	require.NoError(t, err)
	o.Close()

	item, err := o.Item(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, item.Status)

	_, err = o.Enqueue(checklist("late"), models.ExportOptions{Format: models.FormatHTML}, 0)
	require.ErrorIs(t, err, ErrClosed)
}

func TestStartContextCancelStopsQueue(t *testing.T) {
	slow := &stageRenderer{format: models.FormatHTML, stages: 100, delay: 10 * time.Millisecond, data: []byte("x")}
	o := newOrchestrator(Config{Timeout: 10 * time.Second}, slow)
	defer o.Close()

	ctx, cancel := context.WithCancel(context.Background())
	id, err := o.Enqueue(checklist("interrupted"), models.ExportOptions{Format: models.FormatHTML}, 0)
	require.NoError(t, err)
	o.Start(ctx)

	require.Eventually(t, func() bool {
		item, _ := o.Item(id)
		return item.Status == models.StatusProcessing
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	item, err := o.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, item.Status)
}

func TestWaitRespectsContext(t *testing.T) {
	o := newOrchestrator(Config{}, render.Standard()...)
	defer o.Close()

	id, err := o.Enqueue(checklist("idle"), models.ExportOptions{Format: models.FormatHTML}, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = o.Wait(ctx, id)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
