package calendar

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/workpulse/work-pulse/internal/domain"
)

// UpcomingPage is one page of ListUpcoming results
type UpcomingPage struct {
	Items      []domain.Event `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalItems int            `json:"total_items"`
	TotalPages int            `json:"total_pages"`
}

// ListUpcoming keeps events with Start >= now whose title contains searchQuery
// (case-insensitive, empty matches all), orders them by Start then ID, and returns
// the 1-indexed page. A page past the end is empty, not an error.
func (p *Projector) ListUpcoming(events []domain.Event, now time.Time, searchQuery string, page, pageSize int) (*UpcomingPage, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: pageSize must be positive, got %d", ErrInvalidArgument, pageSize)
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1, got %d", ErrInvalidArgument, page)
	}

	needle := strings.ToLower(searchQuery)
	matched := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if e.Start.Before(now) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(e.Title), needle) {
			continue
		}
		matched = append(matched, e)
	}

	slices.SortFunc(matched, func(a, b domain.Event) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	total := len(matched)
	result := &UpcomingPage{
		Items:      []domain.Event{},
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: total / pageSize,
	}
	if total%pageSize != 0 {
		result.TotalPages++
	}

	if page > result.TotalPages {
		return result, nil
	}
	offset := (page - 1) * pageSize
	end := min(offset+pageSize, total)
	result.Items = matched[offset:end]
	return result, nil
}
