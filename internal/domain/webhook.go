package domain

import "time"

// Webhook is an outbound notification endpoint owned by a team. It is
// disabled automatically after 10 consecutive delivery failures.
type Webhook struct {
	ID                  int64
	TeamID              int64
	URL                 string
	Secret              string
	IsActive            bool
	ConsecutiveFailures int
	CreatedAt           time.Time
}

// MaxWebhookFailures is the consecutive-failure count at which a webhook
// is disabled.
const MaxWebhookFailures = 10
