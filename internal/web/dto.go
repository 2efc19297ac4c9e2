package web

import (
	"plancal/internal/agg"
	"plancal/internal/dates"
)

// weekResponse is the JSON shape for /api/week. partial=true tells the UI
// to mark the week as incomplete; the buckets of failed categories are
// empty, while stale categories show cached data the upstream could not
// refresh this pass.
type weekResponse struct {
	WeekStart         string               `json:"week_start"`
	Dates             []string             `json:"dates"`
	Generation        uint64               `json:"generation"`
	Partial           bool                 `json:"partial"`
	FailedCategories  []string             `json:"failed_categories,omitempty"`
	StaleCategories   []string             `json:"stale_categories,omitempty"`
	FullyCoveredDates []string             `json:"fully_covered_dates"`
	Buckets           map[string][]itemDTO `json:"buckets"`
}

type itemDTO struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Note      string              `json:"note,omitempty"`
	Dates     []string            `json:"dates"`
	Assignees map[string][]string `json:"assignees,omitempty"`
	Start     string              `json:"start,omitempty"`
	Until     string              `json:"until,omitempty"`
	SpanStart string              `json:"span_start,omitempty"`
	SpanEnd   string              `json:"span_end,omitempty"`
	AllUsers  bool                `json:"all_users,omitempty"`
}

func buildWeekResponse(week *agg.AggregatedWeek, buckets map[agg.Bucket][]agg.WorkItem) weekResponse {
	resp := weekResponse{
		WeekStart:         week.WeekStart.String(),
		Dates:             formatDates(week.Window.Dates()),
		Generation:        week.Generation,
		Partial:           week.Partial(),
		FailedCategories:  failedCategories(week.Failed),
		StaleCategories:   staleCategories(week.Stale),
		FullyCoveredDates: formatCovered(week.FullyCovered),
		Buckets:           make(map[string][]itemDTO, len(buckets)),
	}
	for bucket, items := range buckets {
		dtos := make([]itemDTO, 0, len(items))
		for _, item := range items {
			dtos = append(dtos, buildItemDTO(item))
		}
		resp.Buckets[string(bucket)] = dtos
	}
	return resp
}

func buildItemDTO(item agg.WorkItem) itemDTO {
	dto := itemDTO{
		ID:       item.ID,
		Title:    item.Title,
		Note:     item.Note,
		Dates:    formatDates(item.Dates),
		AllUsers: item.AllUsers,
	}
	if len(item.AssigneesByDate) > 0 {
		dto.Assignees = make(map[string][]string, len(item.AssigneesByDate))
		for d, names := range item.AssigneesByDate {
			dto.Assignees[d.String()] = names
		}
	}
	if item.HasStart {
		dto.Start = item.Start.String()
	}
	if item.HasUntil {
		dto.Until = item.Until.String()
	}
	if item.HasSpan {
		dto.SpanStart = item.Span.Start.String()
		dto.SpanEnd = item.Span.End.String()
	}
	return dto
}

func formatDates(ds []dates.CalendarDate) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.String())
	}
	return out
}

func formatCovered(covered map[dates.CalendarDate]bool) []string {
	ds := make([]dates.CalendarDate, 0, len(covered))
	for d := range covered {
		ds = append(ds, d)
	}
	dates.Sort(ds)
	return formatDates(ds)
}
