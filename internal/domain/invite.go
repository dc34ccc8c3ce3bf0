package domain

import "time"

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRejected InviteStatus = "rejected"
)

type Invite struct {
	ID         int64        `json:"id"`
	FromUserID int64        `json:"fromUser"`
	ToUserID   int64        `json:"toUser"`
	FromName   string       `json:"fromUsername,omitempty"`
	ToName     string       `json:"toUsername,omitempty"`
	Status     InviteStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	ResolvedAt *time.Time   `json:"resolvedAt,omitempty"`
}

// Accept moves a pending invite to accepted.
func (i Invite) Accept() (Invite, error) {
	return i.resolve(InviteAccepted)
}

// Reject moves a pending invite to rejected.
func (i Invite) Reject() (Invite, error) {
	return i.resolve(InviteRejected)
}

func (i Invite) resolve(to InviteStatus) (Invite, error) {
	if i.Status != InvitePending {
		return i, ErrInviteResolved
	}
	now := time.Now().UTC()
	i.Status = to
	i.ResolvedAt = &now
	return i, nil
}
