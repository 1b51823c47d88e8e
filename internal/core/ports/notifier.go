package ports

import "context"

// Notifier pushes short operational messages to the staff channel
// (new registrations, withdrawal requests awaiting review).
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Mailer delivers transactional email through the external relay.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// MediaStorage uploads an image to the external object store and
// returns its public URL. The request blocks until the round trip
// completes.
type MediaStorage interface {
	Upload(ctx context.Context, filename string, data []byte) (url string, err error)
}
