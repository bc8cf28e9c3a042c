package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShortRecommendation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "short text unchanged",
			text: "A brief note",
			want: "A brief note",
		},
		{
			name: "exactly 150 characters unchanged",
			text: strings.Repeat("a", 150),
			want: strings.Repeat("a", 150),
		},
		{
			name: "151 characters truncated with ellipsis",
			text: strings.Repeat("a", 151),
			want: strings.Repeat("a", 150) + "...",
		},
		{
			name: "multibyte text counted in runes not bytes",
			text: strings.Repeat("é", 200),
			want: strings.Repeat("é", 150) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Recommendation{RecommendationText: tt.text}
			assert.Equal(t, tt.want, rec.ShortRecommendation())
		})
	}
}

func TestRecommenderFullTitle(t *testing.T) {
	rec := Recommendation{
		RecommenderTitle:   "Engineering Manager",
		RecommenderCompany: "Acme Corp",
	}
	assert.Equal(t, "Engineering Manager at Acme Corp", rec.RecommenderFullTitle())
}

func TestRatingDisplay(t *testing.T) {
	tests := []struct {
		rating int
		want   string
	}{
		{1, "★☆☆☆☆"},
		{3, "★★★☆☆"},
		{5, "★★★★★"},
	}

	for _, tt := range tests {
		rec := Recommendation{Rating: tt.rating}
		assert.Equal(t, tt.want, rec.RatingDisplay())
		assert.Equal(t, 5, len([]rune(rec.RatingDisplay())))
	}
}

func TestSkillsDisplay(t *testing.T) {
	rec := Recommendation{SkillsMentioned: []string{"Go", "PostgreSQL", "Redis"}}
	assert.Equal(t, "Go, PostgreSQL, Redis", rec.SkillsDisplay())

	empty := Recommendation{}
	assert.Equal(t, "", empty.SkillsDisplay())
}

func TestSoftDeleteAndRestore(t *testing.T) {
	rec := Recommendation{}
	now := time.Now()

	rec.SoftDelete(now)
	assert.True(t, rec.IsDeleted)
	if assert.NotNil(t, rec.DeletedAt) {
		assert.Equal(t, now, *rec.DeletedAt)
	}

	rec.Restore()
	assert.False(t, rec.IsDeleted)
	assert.Nil(t, rec.DeletedAt)
}

func TestToResponseDerivedValues(t *testing.T) {
	rec := Recommendation{
		RecommenderTitle:   "CTO",
		RecommenderCompany: "Initech",
		RecommendationText: strings.Repeat("x", 200),
		RecommendationDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Rating:             4,
		SkillsMentioned:    []string{"Go", "Docker"},
	}

	resp := ToResponse(rec)
	assert.Equal(t, "CTO at Initech", resp.RecommenderFullTitle)
	assert.Equal(t, strings.Repeat("x", 150)+"...", resp.ShortRecommendation)
	assert.Equal(t, "★★★★☆", resp.RatingDisplay)
	assert.Equal(t, "Go, Docker", resp.SkillsDisplay)
	assert.Equal(t, "2024-03-15", resp.RecommendationDate)
}

func TestToResponseNilSkillsBecomesEmptySlice(t *testing.T) {
	resp := ToResponse(Recommendation{})
	assert.NotNil(t, resp.SkillsMentioned)
	assert.Empty(t, resp.SkillsMentioned)
}

func TestGenerateCacheKeyStable(t *testing.T) {
	f := Filter{Company: "Acme", Page: 2, Limit: 10}
	key1 := GenerateCacheKey("recommendations:company", f)
	key2 := GenerateCacheKey("recommendations:company", f)
	assert.Equal(t, key1, key2)

	other := GenerateCacheKey("recommendations:company", Filter{Company: "Acme", Page: 3, Limit: 10})
	assert.NotEqual(t, key1, other)
	assert.True(t, strings.HasPrefix(key1, "recommendations:company:"))
}
