// Package notifications records scenario alerts and delivers them to
// webhook subscribers.
package notifications

import "time"

// Notification is one alert raised by a monitoring pass over a scenario set.
type Notification struct {
	ID        string    `json:"id"`
	SetID     string    `json:"set_id"`
	Topic     string    `json:"topic"`
	Revision  int       `json:"revision"`
	Message   string    `json:"message"`
	Delivered bool      `json:"delivered"`
	CreatedAt time.Time `json:"created_at"`
}

// Payload is the JSON body posted to webhooks: every alert of one revision.
type Payload struct {
	SetID    string    `json:"set_id"`
	Topic    string    `json:"topic"`
	Revision int       `json:"revision"`
	Alerts   []string  `json:"alerts"`
	SentAt   time.Time `json:"sent_at"`
}
