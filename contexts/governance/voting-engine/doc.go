// Package votingengine implements the token-weighted governance voting
// engine inside the governance context.
//
// The module owns the proposal lifecycle state machine: creation with a
// frozen eligibility snapshot, latest-ballot-wins weighted tallying, lazy
// quorum/closure determination, and one-shot action execution. Business
// rules live in the application/domain layers; the eligibility snapshot
// provider, the action executor, the capability checker and persistence are
// isolated behind ports and adapters.
package votingengine
