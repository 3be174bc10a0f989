// Package notify delivers transactional email.
//
// Mailer implements service.Notifier. Notify only enqueues; a small worker
// pool renders the HTML template for the notification kind and hands it to
// a Sender, paced by a token bucket. The default Sender talks to the
// Resend HTTP API. Delivery failures are logged and never reach the
// request that triggered them.
package notify
