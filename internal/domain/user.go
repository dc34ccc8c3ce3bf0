package domain

import (
	"slices"
	"time"
)

type User struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	FirstName      string     `json:"firstName,omitempty"`
	LastName       string     `json:"lastName,omitempty"`
	PhotoURL       string     `json:"photo,omitempty"`
	PasswordHash   string     `json:"-"`
	Cash           int64      `json:"cash"`
	IsActive       bool       `json:"isActive"`
	IsVerified     bool       `json:"isVerified"`
	IsStaff        bool       `json:"-"`
	ActivationCode string     `json:"-"`
	Friends        []int64    `json:"friends"`
	DateJoined     time.Time  `json:"dateJoined"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
}

// PublicUser is what other users may see.
type PublicUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	PhotoURL  string `json:"photo,omitempty"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, PhotoURL: u.PhotoURL}
}

// AddFriend appends id unless present.
func AddFriend(friends []int64, id int64) []int64 {
	if slices.Contains(friends, id) {
		return friends
	}
	return append(friends, id)
}

// RemoveFriend drops every occurrence of id.
func RemoveFriend(friends []int64, id int64) []int64 {
	out := friends[:0:0]
	for _, f := range friends {
		if f != id {
			out = append(out, f)
		}
	}
	return out
}
