// Package crawllog accumulates the per-URL disposition trail of a crawl job.
// Entries buffer in memory and are written in one batch when the job ends.
// A process crash mid-job therefore loses the trail even though product rows
// may already be committed; this mirrors the job row's own in-place update
// and is accepted.
package crawllog

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/shopcrawl/internal/domain"
)

// Store persists log entries in one batch.
type Store interface {
	InsertBatch(ctx context.Context, entries []domain.CrawlLogEntry) error
}

// Recorder buffers crawl log entries for a single job.
type Recorder struct {
	jobID        string
	competitorID string
	entries      []domain.CrawlLogEntry
	mu           sync.Mutex
}

// NewRecorder creates a recorder bound to one job.
func NewRecorder(jobID, competitorID string) *Recorder {
	return &Recorder{
		jobID:        jobID,
		competitorID: competitorID,
	}
}

// Info records an informational milestone with optional structured details.
func (r *Recorder) Info(message string, details domain.JSONBMap) {
	r.append(domain.CrawlLogEntry{
		LogType: domain.LogTypeInfo,
		Message: message,
		Details: details,
	})
}

// Added records a successful product insert.
func (r *Recorder) Added(name, url string, price *float64) {
	r.append(domain.CrawlLogEntry{
		LogType:      domain.LogTypeAdded,
		Message:      "product added",
		ProductName:  &name,
		ProductURL:   &url,
		ProductPrice: price,
	})
}

// Filtered records a URL rejected by the classifier or category exclusion.
func (r *Recorder) Filtered(url, reason string) {
	r.append(domain.CrawlLogEntry{
		LogType:      domain.LogTypeFiltered,
		Message:      "url filtered",
		ProductURL:   &url,
		FilterReason: &reason,
	})
}

// Skipped records a URL excluded as a duplicate of a persisted product.
func (r *Recorder) Skipped(url, reason string) {
	r.append(domain.CrawlLogEntry{
		LogType:      domain.LogTypeSkipped,
		Message:      "url skipped",
		ProductURL:   &url,
		FilterReason: &reason,
	})
}

// Error records a per-URL or per-stage failure.
func (r *Recorder) Error(message string, url *string, details domain.JSONBMap) {
	r.append(domain.CrawlLogEntry{
		LogType:    domain.LogTypeError,
		Message:    message,
		ProductURL: url,
		Details:    details,
	})
}

// append stamps and buffers one entry.
func (r *Recorder) append(entry domain.CrawlLogEntry) {
	entry.JobID = r.jobID
	entry.CompetitorID = r.competitorID
	entry.CreatedAt = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

// Entries returns a copy of the buffered entries in insertion order.
func (r *Recorder) Entries() []domain.CrawlLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.CrawlLogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns the number of buffered entries, optionally filtered by type.
func (r *Recorder) Count(logType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if logType == "" {
		return len(r.entries)
	}

	n := 0
	for i := range r.entries {
		if r.entries[i].LogType == logType {
			n++
		}
	}
	return n
}

// Flush writes all buffered entries to the store in one batch and clears
// the buffer on success.
func (r *Recorder) Flush(ctx context.Context, store Store) error {
	r.mu.Lock()
	entries := r.entries
	r.entries = nil
	r.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}

	if err := store.InsertBatch(ctx, entries); err != nil {
		// Restore so a retry at job teardown still has the trail.
		r.mu.Lock()
		r.entries = append(entries, r.entries...)
		r.mu.Unlock()
		return err
	}

	return nil
}
