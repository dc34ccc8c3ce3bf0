package worker

const (
	subjectActivation = "Activate your account"
	bodyActivation    = "Follow this link to activate your account: %s"

	subjectInvite = "Invite to friend list"
	bodyInvite    = "Hello there. User %s has invited you to their friend list. Check your invites in your personal cabinet."

	subjectInviteAccepted = "Your invite was accepted"
	bodyInviteAccepted    = "Hello there. User %s has accepted your invite!"

	subjectInviteRejected = "Your invite was rejected"
	bodyInviteRejected    = "Hello there. User %s has rejected your invite."

	subjectPasswordReset = "Reset password"
	bodyPasswordReset    = "Hello there. Your password has been changed at your request. Here is the new password: %s"

	subjectNewItems = "New items in the market"
	bodyNewItems    = "Hello there. These items were added yesterday:\n%s"
)
