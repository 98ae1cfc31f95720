// Package capabilityservice implements capability-based authorization inside
// the identity-access context.
//
// Governance operations consult it before privileged transitions: proposal
// creation, forwarding and quorum-configuration changes. Lookup failures
// resolve to deny-by-default.
package capabilityservice
