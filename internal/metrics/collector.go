// Package metrics provides in-memory export statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"

	"github.com/raphaelgruber/credcheck/internal/models"
)

// FormatMetrics holds aggregated metrics for one export format.
type FormatMetrics struct {
	Count     int64
	Successes int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
	// TotalBytes counts successful payloads only.
	TotalBytes int64
}

// FormatSnapshot provides computed stats from raw metrics.
type FormatSnapshot struct {
	Count       int64
	Successes   int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
	AvgFileSize int64
}

// Collector aggregates export statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	formats   map[models.ExportFormat]*FormatMetrics
	modes     map[models.PDFMode]int64
	last      time.Time
}

// NewCollector creates a new statistics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		formats:   make(map[models.ExportFormat]*FormatMetrics),
		modes:     make(map[models.PDFMode]int64),
	}
}

// getOrCreate returns existing metrics or creates new ones for a format.
// Caller must hold write lock.
func (c *Collector) getOrCreate(format models.ExportFormat) *FormatMetrics {
	m, ok := c.formats[format]
	if !ok {
		m = &FormatMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.formats[format] = m
	}
	return m
}

// RecordExport records one finished export attempt. Cancelled exports are
// not exports and must not be recorded.
func (c *Collector) RecordExport(format models.ExportFormat, mode models.PDFMode, success bool, duration time.Duration, size int64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(format)
	m.Count++
	m.TotalTime += duration
	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
	if success {
		m.Successes++
		m.TotalBytes += size
	}
	if mode != "" {
		c.modes[mode]++
	}
	if at.After(c.last) {
		c.last = at
	}
}

// Snapshot returns a point-in-time copy of the statistics.
func (c *Collector) Snapshot() models.ExportStatistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := models.ExportStatistics{
		ExportsByFormat: make(map[models.ExportFormat]int64, len(c.formats)),
		ExportsByMode:   make(map[models.PDFMode]int64, len(c.modes)),
	}

	var successes, totalBytes int64
	var totalTime time.Duration
	for format, m := range c.formats {
		stats.ExportsByFormat[format] = m.Count
		stats.TotalExports += m.Count
		successes += m.Successes
		totalBytes += m.TotalBytes
		totalTime += m.TotalTime
	}
	for mode, n := range c.modes {
		stats.ExportsByMode[mode] = n
	}

	if stats.TotalExports > 0 {
		stats.SuccessRate = float64(successes) / float64(stats.TotalExports) * 100
		stats.AverageGenerationTime = totalTime / time.Duration(stats.TotalExports)
	}
	if successes > 0 {
		stats.AverageFileSize = totalBytes / successes
	}
	if !c.last.IsZero() {
		last := c.last
		stats.LastExportAt = &last
	}
	return stats
}

// Breakdown returns per-format figures, omitting formats never exported.
func (c *Collector) Breakdown() map[models.ExportFormat]FormatSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[models.ExportFormat]FormatSnapshot, len(c.formats))
	for format, m := range c.formats {
		if m.Count == 0 {
			continue
		}
		snap := FormatSnapshot{
			Count:     m.Count,
			Successes: m.Successes,
			AvgTimeMs: float64(m.TotalTime.Milliseconds()) / float64(m.Count),
			MinTimeMs: m.MinTime.Milliseconds(),
			MaxTimeMs: m.MaxTime.Milliseconds(),
		}
		if m.Successes > 0 {
			snap.AvgFileSize = m.TotalBytes / m.Successes
		}
		out[format] = snap
	}
	return out
}

// Uptime reports how long the collector has existed.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}
