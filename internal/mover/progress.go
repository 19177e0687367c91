package mover

import (
	"sync"
	"time"
)

// percentMultiplier converts a ratio to a percentage (0-100).
const percentMultiplier = 100

// Progress tracks a move run. The total is the pre-flight estimate, which the
// server may revise while the run is in flight, so percentages are capped at 100.
type Progress struct {
	// Estimated is the pre-flight count of matching records, or 0 if unknown.
	Estimated int

	// Moved is the number of records moved so far.
	Moved int

	// Pages is the number of non-empty pages acted on.
	Pages int

	// PageSize is the configured $$LIMIT.
	PageSize int

	// StartTime is when the run started.
	StartTime time.Time

	// LastUpdateTime is when progress last changed.
	LastUpdateTime time.Time

	mu sync.RWMutex
}

// NewProgress creates a tracker for a run expected to move estimated records.
func NewProgress(estimated, pageSize int) *Progress {
	now := time.Now()
	return &Progress{
		Estimated:      estimated,
		PageSize:       pageSize,
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Start resets the clock. Counts and the estimate are kept.
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.StartTime = now
	p.LastUpdateTime = now
}

// AddMoved records one moved record.
func (p *Progress) AddMoved() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Moved++
	p.LastUpdateTime = time.Now()
}

// AddPage records a completed page.
func (p *Progress) AddPage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Pages++
	p.LastUpdateTime = time.Now()
}

// SetEstimate replaces the estimated total.
func (p *Progress) SetEstimate(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Estimated = n
}

// PercentComplete returns 0-100, or 0 when no estimate is known.
func (p *Progress) PercentComplete() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.percentCompleteLocked()
}

// EstimatedPages is the number of pages the estimate implies.
func (p *Progress) EstimatedPages() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Estimated + p.PageSize - 1) / p.PageSize
}

// ElapsedTime returns the time since the run started.
func (p *Progress) ElapsedTime() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Since(p.StartTime)
}

// EstimatedTimeRemaining extrapolates from the average time per moved record.
// It returns 0 until something has moved or once the estimate is reached.
func (p *Progress) EstimatedTimeRemaining() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	remaining := p.Estimated - p.Moved
	if p.Moved == 0 || remaining <= 0 {
		return 0
	}
	perItem := time.Since(p.StartTime) / time.Duration(p.Moved)
	return perItem * time.Duration(remaining)
}

// ItemsPerSecond returns the move rate.
func (p *Progress) ItemsPerSecond() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.itemsPerSecondLocked()
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return ProgressSnapshot{
		Estimated:       p.Estimated,
		Moved:           p.Moved,
		Pages:           p.Pages,
		PageSize:        p.PageSize,
		StartTime:       p.StartTime,
		LastUpdateTime:  p.LastUpdateTime,
		PercentComplete: p.percentCompleteLocked(),
		ElapsedTime:     time.Since(p.StartTime),
		ItemsPerSecond:  p.itemsPerSecondLocked(),
	}
}

// ProgressSnapshot is an immutable copy of Progress.
type ProgressSnapshot struct {
	Estimated       int
	Moved           int
	Pages           int
	PageSize        int
	StartTime       time.Time
	LastUpdateTime  time.Time
	PercentComplete float64
	ElapsedTime     time.Duration
	ItemsPerSecond  float64
}

func (p *Progress) percentCompleteLocked() float64 {
	if p.Estimated <= 0 {
		return 0
	}
	pct := float64(p.Moved) / float64(p.Estimated) * percentMultiplier
	if pct > percentMultiplier {
		return percentMultiplier
	}
	return pct
}

func (p *Progress) itemsPerSecondLocked() float64 {
	elapsed := time.Since(p.StartTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(p.Moved) / elapsed
}
