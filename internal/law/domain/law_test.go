package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRecord(t *testing.T) {
	lastUpdate := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	record := NewRecord(Candidate{TextID: "LEGITEXT000012345678", LastUpdate: lastUpdate})

	assert.Equal(t, "LEGITEXT000012345678", record.TextID)
	assert.Equal(t, "2025-01-15T10:30:00Z", record.Date)
	assert.False(t, record.IsProcessed)
}

func TestNewRecord_NormalizesToUTC(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	record := NewRecord(Candidate{
		TextID:     "LEGITEXT000012345678",
		LastUpdate: time.Date(2025, 1, 15, 11, 30, 0, 0, paris),
	})

	// RFC 3339 in UTC keeps lexicographic order aligned with temporal order.
	assert.Equal(t, "2025-01-15T10:30:00Z", record.Date)
}

func TestLawDetail_HasContent(t *testing.T) {
	tests := []struct {
		name   string
		detail LawDetail
		want   bool
	}{
		{
			name: "title and article content",
			detail: LawDetail{
				Title:    "Loi n° 2025-42",
				Articles: []Article{{Content: "<p>Article 1</p>"}},
			},
			want: true,
		},
		{
			name:   "empty title",
			detail: LawDetail{Articles: []Article{{Content: "<p>Article 1</p>"}}},
			want:   false,
		},
		{
			name:   "no articles",
			detail: LawDetail{Title: "Loi n° 2025-42"},
			want:   false,
		},
		{
			name: "articles with blank content",
			detail: LawDetail{
				Title:    "Loi n° 2025-42",
				Articles: []Article{{Content: "  "}, {Content: ""}},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.detail.HasContent())
		})
	}
}

func TestLawDetail_CombinedContent(t *testing.T) {
	detail := LawDetail{
		Title: "Loi n° 2025-42",
		Articles: []Article{
			{Content: "<p>First</p>"},
			{Content: ""},
			{Content: "<p>Second</p>"},
		},
	}

	assert.Equal(t, "<p>First</p>\n\n<p>Second</p>", detail.CombinedContent())
}
