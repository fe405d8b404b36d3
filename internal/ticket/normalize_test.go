package ticket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/model"
)

func TestFromInquiry(t *testing.T) {
	got := FromInquiry(api.Inquiry{
		ID:        "12",
		Type:      "bug",
		Title:     "dropped",
		Content:   "the search page crashes",
		Answer:    "fixed",
		Status:    "done",
		CreatedAt: "2026-03-01T10:00:00Z",
	})

	assert.Equal(t, model.Ticket{
		ID:        "12",
		Source:    model.SourceInquiry,
		Category:  model.CategoryBug,
		Body:      "the search page crashes",
		Answer:    "fixed",
		Status:    model.StatusDone,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}, got)
}

func TestFromReport(t *testing.T) {
	got := FromReport(api.Report{
		ID:         "12",
		TargetType: "JOB_POST",
		TargetID:   "900",
		Reason:     "scam listing",
		Status:     "OPEN",
		CreatedAt:  "2026-03-01T10:00:00.123+09:00",
	})

	assert.Equal(t, "12", got.ID)
	assert.Equal(t, model.SourceReport, got.Source)
	assert.Equal(t, model.CategoryJobPost, got.Category)
	assert.Equal(t, "scam listing", got.Body)
	assert.Empty(t, got.Answer)
	assert.Equal(t, model.StatusOpen, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestNormalizeDefaults(t *testing.T) {
	got := FromReport(api.Report{ID: "1", CreatedAt: "yesterday"})

	assert.Equal(t, model.CategoryOther, got.Category)
	assert.Equal(t, model.StatusOpen, got.Status)
	assert.True(t, got.CreatedAt.IsZero())

	assert.Equal(t, model.Category("SPAM"), FromInquiry(api.Inquiry{Type: "spam"}).Category)
}
