package model

import "time"

// Stats is the raw aggregate computed over public, non-deleted records.
type Stats struct {
	Total              int
	Featured           int
	AverageRating      float64
	RatingDistribution map[int]int
	CompaniesCount     int
	LatestDate         *time.Time
}

// ToStatsResponse maps the aggregate to the wire shape. The average is
// rounded to two decimals and the latest date formatted as YYYY-MM-DD.
func ToStatsResponse(s Stats) StatsResponse {
	dist := s.RatingDistribution
	if dist == nil {
		dist = map[int]int{}
	}
	for rating := MinRating; rating <= MaxRating; rating++ {
		if _, ok := dist[rating]; !ok {
			dist[rating] = 0
		}
	}

	resp := StatsResponse{
		TotalRecommendations:    s.Total,
		FeaturedRecommendations: s.Featured,
		AverageRating:           roundTwo(s.AverageRating),
		RatingDistribution:      dist,
		CompaniesCount:          s.CompaniesCount,
	}
	if s.LatestDate != nil {
		formatted := s.LatestDate.Format(dateLayout)
		resp.LatestRecommendation = &formatted
	}
	return resp
}

func roundTwo(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
