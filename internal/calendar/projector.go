// Package calendar projects stored events into month grids and upcoming lists.
// Everything here is pure: no I/O, no clock reads, safe for concurrent use.
package calendar

import (
	"errors"
	"time"

	"github.com/workpulse/work-pulse/internal/domain"
	"github.com/workpulse/work-pulse/pkg/logger"
)

// ErrInvalidArgument is returned for out-of-range paging arguments
var ErrInvalidArgument = errors.New("invalid argument")

const (
	// DefaultHorizon bounds open-ended recurrences
	DefaultHorizon = 2 * 365 * 24 * time.Hour
	// DefaultMaxOccurrences caps occurrences of one event inside one window
	DefaultMaxOccurrences = 1000
)

// Projector holds the recurrence limits used by the projections
type Projector struct {
	horizon        time.Duration
	maxOccurrences int
	log            *logger.Logger
}

// Option configures a Projector
type Option func(*Projector)

// WithHorizon sets how far past Start an open-ended recurrence is expanded
func WithHorizon(d time.Duration) Option {
	return func(p *Projector) {
		if d > 0 {
			p.horizon = d
		}
	}
}

// WithMaxOccurrences caps the occurrences one event contributes to a grid
func WithMaxOccurrences(n int) Option {
	return func(p *Projector) {
		if n > 0 {
			p.maxOccurrences = n
		}
	}
}

// WithLogger sets the logger used to report skipped events
func WithLogger(l *logger.Logger) Option {
	return func(p *Projector) {
		if l != nil {
			p.log = l
		}
	}
}

// NewProjector creates a Projector
func NewProjector(opts ...Option) *Projector {
	p := &Projector{
		horizon:        DefaultHorizon,
		maxOccurrences: DefaultMaxOccurrences,
		log:            logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultProjector = NewProjector()

// BuildMonthGrid projects events onto the month containing monthAnchor using default limits
func BuildMonthGrid(events []domain.Event, monthAnchor time.Time) []Day {
	return defaultProjector.BuildMonthGrid(events, monthAnchor)
}

// ListUpcoming returns one page of future events using default limits
func ListUpcoming(events []domain.Event, now time.Time, searchQuery string, page, pageSize int) (*UpcomingPage, error) {
	return defaultProjector.ListUpcoming(events, now, searchQuery, page, pageSize)
}

func normalizedRepeat(r domain.RepeatRule) domain.RepeatRule {
	if r == "" {
		return domain.RepeatOnce
	}
	return r
}
