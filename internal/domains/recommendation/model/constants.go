package model

const (
	// Content limits
	MinTextLength = 50
	MaxTextLength = 2000

	// Rating
	MinRating = 1
	MaxRating = 5

	// Skills
	MaxSkills      = 20
	MaxSkillLength = 50

	// Accepted LinkedIn URL prefixes
	LinkedinPrefix    = "https://linkedin.com/"
	LinkedinWWWPrefix = "https://www.linkedin.com/"

	// Upload directory for recommender images
	ImageUploadDirectory = "recommendations/images"
)
