package domain

import "time"

// Routing keys for lookup events.
const (
	LookupFoundRoutingKey    = "payid.lookup.found"
	LookupNotFoundRoutingKey = "payid.lookup.not_found"
)

// LookupEvent is published after every completed resolution.
type LookupEvent struct {
	EventID        string    `json:"event_id"`
	PayID          string    `json:"pay_id"`
	PaymentNetwork string    `json:"payment_network,omitempty"`
	Environment    string    `json:"environment,omitempty"`
	AcceptTypes    []string  `json:"accept_types"`
	Found          bool      `json:"found"`
	OccurredAt     time.Time `json:"occurred_at"`
}
