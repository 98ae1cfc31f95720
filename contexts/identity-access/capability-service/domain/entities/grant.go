package entities

import "time"

// CapabilityGrant records that an actor holds a named capability.
type CapabilityGrant struct {
	Actor      string
	Capability string
	GrantedBy  string
	GrantedAt  time.Time
}

// CapabilityDecision is the outcome of a single capability check.
type CapabilityDecision struct {
	Actor      string
	Capability string
	Allowed    bool
	Reason     string
	CheckedAt  time.Time
}
