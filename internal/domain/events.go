package domain

// Event is a change notification raised by a write path. Derived fields and
// mail delivery react to events asynchronously.
type Event interface {
	EventName() string
}

type ItemCreated struct {
	ItemID int64 `json:"itemId"`
}

type ItemPriceChanged struct {
	ItemID int64 `json:"itemId"`
}

type ReviewChanged struct {
	ItemID int64 `json:"itemId"`
}

type BasketLineChanged struct {
	UserID   int64 `json:"userId"`
	BasketID int64 `json:"basketId"`
}

type UserRegistered struct {
	UserID         int64  `json:"userId"`
	Email          string `json:"email"`
	ActivationCode string `json:"activationCode"`
}

type InviteCreated struct {
	InviteID int64 `json:"inviteId"`
}

type InviteResolved struct {
	InviteID int64        `json:"inviteId"`
	Status   InviteStatus `json:"status"`
}

// PasswordReset carries only the account id; the new password is generated
// where it is mailed so it never sits in the task queue.
type PasswordReset struct {
	UserID int64 `json:"userId"`
}

func (ItemCreated) EventName() string       { return "item.created" }
func (ItemPriceChanged) EventName() string  { return "item.price_changed" }
func (ReviewChanged) EventName() string     { return "review.changed" }
func (BasketLineChanged) EventName() string { return "basket.line_changed" }
func (UserRegistered) EventName() string    { return "user.registered" }
func (InviteCreated) EventName() string     { return "invite.created" }
func (InviteResolved) EventName() string    { return "invite.resolved" }
func (PasswordReset) EventName() string     { return "user.password_reset" }
