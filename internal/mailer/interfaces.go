package mailer

// Service delivers admin-facing emails. Delivery is best effort; the
// workflow never depends on it.
type Service interface {
	SendAdminAlert(subject, text string) error
}
