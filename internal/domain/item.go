package domain

import "time"

type Item struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Title      string    `json:"title,omitempty"`
	Grade      string    `json:"grade,omitempty"`
	Kind       string    `json:"type,omitempty"`
	Content    string    `json:"content,omitempty"`
	CategoryID *int64    `json:"category,omitempty"`
	IconURL    string    `json:"icon,omitempty"`
	ImageURL   string    `json:"image,omitempty"`
	BasePrice  int64     `json:"priceWithoutSale"`
	Discount   int       `json:"sale"`
	RealPrice  int64     `json:"realPrice"`
	Rating     float64   `json:"rating"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Number   int    `json:"number"`
	ImageURL string `json:"image,omitempty"`
}

// ItemFilter narrows catalog listings.
type ItemFilter struct {
	CategoryID *int64
	Search     string
	SortBy     string
	Desc       bool
	Limit      int
	Offset     int
}

const (
	SortNone      = ""
	SortRealPrice = "realPrice"
)
