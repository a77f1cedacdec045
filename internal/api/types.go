package api

import (
	"sort"
	"time"

	"podo/internal/backend"
)

// dateTimeFormat is used for RFC3339 timestamps in view payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// EvaluationView describes an evaluation in a transport-friendly format.
type EvaluationView struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	InternalName string `json:"internalName,omitempty"`
	Description  string `json:"description,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// FromEvaluation converts a backend record into a view.
func FromEvaluation(ev backend.Evaluation) EvaluationView {
	return EvaluationView{
		ID:           ev.ID,
		Title:        ev.Title,
		InternalName: ev.InternalName,
		Description:  ev.Description,
		Status:       ev.Status,
		CreatedAt:    formatTime(ev.CreatedTime),
		UpdatedAt:    formatTime(ev.UpdatedTime),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// SortEvaluationsNewestFirst orders views by CreatedAt descending, breaking
// ties by ID descending.
func SortEvaluationsNewestFirst(items []EvaluationView) []EvaluationView {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]EvaluationView, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti := parseViewTime(sorted[i].CreatedAt)
		tj := parseViewTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})
	return sorted
}

func parseViewTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
