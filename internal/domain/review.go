package domain

import "time"

type Review struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user"`
	Username  string    `json:"username,omitempty"`
	ItemID    int64     `json:"skin"`
	Rating    int       `json:"rate"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	MinRating     = 1
	MaxRating     = 5
	MaxReviewText = 2000
)

// MeanRating is the arithmetic mean of ratings, or 0 when there are none.
func MeanRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum int
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}
