package domain

// NotificationKind selects the email template.
type NotificationKind string

const (
	NotifyWelcome        NotificationKind = "welcome"
	NotifyIssueCreated   NotificationKind = "issue_created"
	NotifyProfileUpdated NotificationKind = "profile_updated"
	NotifyPasswordReset  NotificationKind = "password_reset"
)

// Notification is an outbound email intent. Delivery is best effort.
type Notification struct {
	Kind NotificationKind
	To   string
	Name string

	// Issue alerts.
	IssueTitle string
	IssueType  IssueType

	// Password reset.
	ResetLink string
}
