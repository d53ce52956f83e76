package export

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/raphaelgruber/credcheck/internal/i18n"
	"github.com/raphaelgruber/credcheck/internal/metrics"
	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/render"
)

// Config bounds the work of the orchestrator.
type Config struct {
	Timeout     time.Duration
	MaxFileSize int64
	Concurrency int
	// DrainTimeout bounds how long Close waits for renderers that were
	// abandoned after a timeout or cancel and have not returned yet.
	DrainTimeout time.Duration
}

// Orchestrator owns the export queue. Only the orchestrator changes item
// status; renderers report progress and return a payload or an error.
type Orchestrator struct {
	cfg       Config
	renderers map[models.ExportFormat]render.Renderer
	text      i18n.TextResolver
	stats     *metrics.Collector
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	cond     *sync.Cond
	items    map[string]*entry
	pending  []*entry
	seq      uint64
	started  bool
	closed   bool
	baseCtx  context.Context
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// renders tracks renderer goroutines, which may outlive their item.
	renders  sync.WaitGroup
	inflight atomic.Int64
}

// New creates an orchestrator. A nil resolver means canonical text; a nil
// collector gets a fresh one.
func New(cfg Config, renderers []render.Renderer, text i18n.TextResolver, stats *metrics.Collector, logger *slog.Logger) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if stats == nil {
		stats = metrics.NewCollector()
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		cfg:       cfg,
		renderers: make(map[models.ExportFormat]render.Renderer, len(renderers)),
		text:      text,
		stats:     stats,
		logger:    logger,
		now:       time.Now,
		items:     make(map[string]*entry),
		baseCtx:   context.Background(),
		stop:      make(chan struct{}),
	}
	o.cond = sync.NewCond(&o.mu)
	for _, r := range renderers {
		o.renderers[r.Format()] = r
	}
	return o
}

// Start launches the workers. Cancelling ctx shuts the queue down like Close,
// without waiting.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.started || o.closed {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.baseCtx = ctx
	o.mu.Unlock()

	for i := 0; i < o.cfg.Concurrency; i++ {
		o.wg.Add(1)
		go o.worker()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		select {
		case <-ctx.Done():
			o.shutdown()
		case <-o.stop:
		}
	}()
}

// Close cancels everything still queued or running and waits for the workers.
// Renderers still unwinding get up to DrainTimeout; one that ignores its
// context is left running and logged.
func (o *Orchestrator) Close() {
	o.shutdown()
	o.wg.Wait()

	drained := make(chan struct{})
	go func() {
		o.renders.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(o.cfg.DrainTimeout):
		o.logger.Warn("renderers still running after close",
			"count", o.inflight.Load(), "waited", o.cfg.DrainTimeout)
	}
}

func (o *Orchestrator) shutdown() {
	o.stopOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		queued := o.pending
		o.pending = nil
		var running []*entry
		for _, e := range o.items {
			e.mu.RLock()
			if e.item.Status == models.StatusProcessing {
				running = append(running, e)
			}
			e.mu.RUnlock()
		}
		close(o.stop)
		o.cond.Broadcast()
		o.mu.Unlock()

		for _, e := range queued {
			o.cancelPending(e, "queue closed")
		}
		for _, e := range running {
			e.mu.RLock()
			cancel := e.cancel
			e.mu.RUnlock()
			if cancel != nil {
				cancel(models.ErrCancelled)
			}
		}
	})
}

// Enqueue validates a request and queues a snapshot of the checklist.
// Invalid requests are rejected here and never occupy the queue.
func (o *Orchestrator) Enqueue(c *models.ChecklistResult, opts models.ExportOptions, priority int) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if _, ok := o.renderers[opts.Format]; !ok {
		return "", models.Errorf(models.CodeUnsupportedFeature, "no renderer for %s exports", opts.Format)
	}
	if err := c.Validate(); err != nil {
		return "", err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return "", ErrClosed
	}

	o.seq++
	e := &entry{
		seq:  o.seq,
		done: make(chan struct{}),
		subs: make(map[int]func(Event)),
		item: QueueItem{
			ID:        uuid.NewString(),
			Checklist: c.Clone(),
			Options:   opts,
			CreatedAt: o.now(),
			Priority:  priority,
			Status:    models.StatusPending,
		},
	}
	o.items[e.item.ID] = e
	o.pending = append(o.pending, e)
	o.cond.Signal()

	o.logger.Info("export queued", "item_id", e.item.ID, "format", opts.Format, "priority", priority)
	return e.item.ID, nil
}

// Cancel stops an export. A pending export is cancelled at once; a running one
// stops at its renderer's next stage boundary.
func (o *Orchestrator) Cancel(id string) error {
	o.mu.Lock()
	e, ok := o.items[id]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	e.mu.RLock()
	status, cancel := e.item.Status, e.cancel
	e.mu.RUnlock()

	switch status {
	case models.StatusPending:
		o.pending = slices.DeleteFunc(o.pending, func(p *entry) bool { return p == e })
		o.mu.Unlock()
		o.cancelPending(e, "cancelled before start")
		return nil
	case models.StatusProcessing:
		o.mu.Unlock()
		cancel(models.ErrCancelled)
		o.logger.Info("export cancel requested", "item_id", id)
		return nil
	default:
		o.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrNotCancellable, id, status)
	}
}

func (o *Orchestrator) cancelPending(e *entry, reason string) {
	e.mu.Lock()
	if !e.transition(models.StatusCancelled) {
		e.mu.Unlock()
		return
	}
	now := o.now()
	e.item.CompletedAt = &now
	e.item.Error = models.Errorf(models.CodeCancelled, "%s", reason)
	ee := e.item.Error
	e.mu.Unlock()

	o.logger.Info("export cancelled", "item_id", e.item.ID, "reason", reason)
	o.emit(e, Event{Type: EventCancelled, ItemID: e.item.ID, Error: ee})
	close(e.done)
}

// Subscribe registers fn for the item's events. Subscribing to a finished
// item replays its terminal event. fn runs while the item's event lock is
// held: it must not subscribe to the same item, and it must not call Wait on
// it, since the item is only marked done after the terminal event has been
// delivered.
func (o *Orchestrator) Subscribe(id string, fn func(Event)) (func(), error) {
	e, err := o.entry(id)
	if err != nil {
		return nil, err
	}

	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	if e.terminal != nil {
		fn(*e.terminal)
		return func() {}, nil
	}
	key := e.nextSub
	e.nextSub++
	e.subs[key] = fn
	return func() {
		e.emitMu.Lock()
		delete(e.subs, key)
		e.emitMu.Unlock()
	}, nil
}

// Wait blocks until the item is finished or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context, id string) (QueueItem, error) {
	e, err := o.entry(id)
	if err != nil {
		return QueueItem{}, err
	}
	select {
	case <-e.done:
		return e.snapshot(), nil
	case <-ctx.Done():
		return QueueItem{}, ctx.Err()
	}
}

// Item returns a snapshot of one export.
func (o *Orchestrator) Item(id string) (QueueItem, error) {
	e, err := o.entry(id)
	if err != nil {
		return QueueItem{}, err
	}
	return e.snapshot(), nil
}

// Items returns snapshots of all exports in enqueue order.
func (o *Orchestrator) Items() []QueueItem {
	o.mu.Lock()
	entries := make([]*entry, 0, len(o.items))
	for _, e := range o.items {
		entries = append(entries, e)
	}
	o.mu.Unlock()

	slices.SortFunc(entries, func(a, b *entry) int {
		return cmp.Compare(a.seq, b.seq)
	})
	out := make([]QueueItem, len(entries))
	for i, e := range entries {
		out[i] = e.snapshot()
	}
	return out
}

// Statistics returns a snapshot of the export statistics.
func (o *Orchestrator) Statistics() models.ExportStatistics {
	return o.stats.Snapshot()
}

func (o *Orchestrator) entry(id string) (*entry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

func (o *Orchestrator) worker() {
	defer o.wg.Done()
	for {
		e := o.take()
		if e == nil {
			return
		}
		o.process(e)
	}
}

// take blocks for the next pending item: highest priority first, then FIFO.
func (o *Orchestrator) take() *entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	for len(o.pending) == 0 && !o.closed {
		o.cond.Wait()
	}
	if o.closed {
		return nil
	}

	best := 0
	for i, e := range o.pending[1:] {
		b := o.pending[best]
		if e.item.Priority > b.item.Priority || (e.item.Priority == b.item.Priority && e.seq < b.seq) {
			best = i + 1
		}
	}
	e := o.pending[best]
	o.pending = slices.Delete(o.pending, best, best+1)

	ctx, cancel := context.WithCancelCause(o.baseCtx)
	e.mu.Lock()
	e.transition(models.StatusProcessing)
	now := o.now()
	e.item.StartedAt = &now
	e.ctx, e.cancel = ctx, cancel
	e.mu.Unlock()
	return e
}

type outcome struct {
	out *render.Output
	err error
}

func (o *Orchestrator) process(e *entry) {
	e.mu.RLock()
	item, ctx, cancel := e.item, e.ctx, e.cancel
	e.mu.RUnlock()
	defer cancel(nil)

	o.logger.Info("export started", "item_id", item.ID, "format", item.Options.Format)
	o.emit(e, Event{Type: EventStarted, ItemID: item.ID})

	ctx, stopTimer := context.WithTimeoutCause(ctx, o.cfg.Timeout, models.ErrTimeout)
	defer stopTimer()

	start := time.Now()
	doc := render.NewDocument(item.Checklist, item.Options, o.text, o.now())
	r := o.renderers[item.Options.Format]

	results := make(chan outcome, 1)
	o.renders.Add(1)
	o.inflight.Add(1)
	go func() {
		defer o.renders.Done()
		defer o.inflight.Add(-1)
		defer func() {
			if p := recover(); p != nil {
				results <- outcome{err: fmt.Errorf("renderer panic: %v", p)}
			}
		}()
		out, err := r.Render(ctx, doc, func(p models.ExportProgress) { o.progress(e, p) })
		results <- outcome{out: out, err: err}
	}()

	var res outcome
	select {
	case res = <-results:
	case <-ctx.Done():
		res = outcome{err: context.Cause(ctx)}
	}
	o.finish(e, item, res, time.Since(start))
}

// progress records a renderer report, dropping regressions and anything
// arriving after the item left processing.
func (o *Orchestrator) progress(e *entry, p models.ExportProgress) {
	e.mu.Lock()
	if e.item.Status != models.StatusProcessing || p.Current < e.item.Progress.Current {
		e.mu.Unlock()
		return
	}
	e.item.Progress = p
	e.mu.Unlock()
	o.emit(e, Event{Type: EventProgress, ItemID: e.item.ID, Progress: &p})
}

func (o *Orchestrator) finish(e *entry, item QueueItem, res outcome, elapsed time.Duration) {
	format := item.Options.Format
	var mode models.PDFMode
	if format == models.FormatPDF {
		mode, _ = item.Options.PDFMode()
	}

	err := res.err
	if err == nil && res.out == nil {
		err = models.Errorf(models.CodeGenerationFailure, "renderer returned no output")
	}
	if err == nil && o.cfg.MaxFileSize > 0 && int64(len(res.out.Data)) > o.cfg.MaxFileSize {
		err = models.Errorf(models.CodeFileTooLarge, "export is %s, limit is %s",
			humanize.Bytes(uint64(len(res.out.Data))), humanize.Bytes(uint64(o.cfg.MaxFileSize))).
			WithHint("leave out guides or use text-based mode")
	}

	now := o.now()
	result := &models.ExportResult{Format: format, Duration: elapsed, Mode: mode}
	status := models.StatusCompleted
	ev := Event{Type: EventComplete, ItemID: item.ID, Result: result}

	if err != nil {
		ee := o.classify(err)
		result.Error = ee
		ev.Error = ee
		status, ev.Type = models.StatusFailed, EventError
		if ee.Code == models.CodeCancelled {
			status, ev.Type = models.StatusCancelled, EventCancelled
		}
	} else {
		if res.out.Mode != "" {
			result.Mode = res.out.Mode
		}
		result.Success = true
		result.Data = res.out.Data
		result.FileSize = int64(len(res.out.Data))
		result.MIMEType = format.MIMEType()
		result.Filename = models.ExportFilename(item.Checklist.Title, format, now)
	}

	// Statistics are recorded before the item becomes observable as finished.
	if status != models.StatusCancelled {
		o.stats.RecordExport(format, result.Mode, result.Success, elapsed, result.FileSize, now)
	}

	e.mu.Lock()
	e.transition(status)
	e.item.Result = result
	e.item.Error = result.Error
	e.item.CompletedAt = &now
	if result.Success {
		p := e.item.Progress
		p.Current, p.Percentage, p.IsComplete = p.Total, 100, true
		e.item.Progress = p
	}
	e.mu.Unlock()

	logArgs := []any{"item_id", item.ID, "format", format, "duration", elapsed}
	if mode != "" {
		logArgs = append(logArgs, "mode", result.Mode)
	}
	switch status {
	case models.StatusCompleted:
		o.logger.Info("export completed", append(logArgs, "size", humanize.Bytes(uint64(result.FileSize)))...)
	case models.StatusCancelled:
		o.logger.Info("export cancelled", logArgs...)
	default:
		o.logger.Error("export failed", append(logArgs, "error", result.Error)...)
	}

	o.emit(e, ev)
	close(e.done)
}

// classify maps a renderer or context error onto an export error.
func (o *Orchestrator) classify(err error) *models.ExportError {
	switch {
	case errors.Is(err, models.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return models.NewExportError(models.CodeTimeout, fmt.Sprintf("export exceeded %s", o.cfg.Timeout), err).
			WithHint("raise CREDCHECK_EXPORT_TIMEOUT or use a lighter format")
	case errors.Is(err, models.ErrCancelled), errors.Is(err, context.Canceled):
		return models.NewExportError(models.CodeCancelled, "export cancelled", nil)
	}
	return models.AsExportError(err)
}

// emit delivers ev to the item's subscribers. Nothing is delivered after a
// terminal event.
func (o *Orchestrator) emit(e *entry, ev Event) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	if e.terminal != nil {
		return
	}
	if ev.Type.Terminal() {
		e.terminal = &ev
	}
	keys := make([]int, 0, len(e.subs))
	for k := range e.subs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		e.subs[k](ev)
	}
}
