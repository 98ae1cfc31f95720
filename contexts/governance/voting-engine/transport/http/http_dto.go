package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateProposalRequest struct {
	Metadata       string `json:"metadata"`
	ActionPayload  []byte `json:"action_payload"`
	CastInitialYes bool   `json:"cast_initial_yes"`
}

type ForwardRequest struct {
	Payload []byte `json:"payload"`
}

type CastBallotRequest struct {
	DeclaredShare    uint64 `json:"declared_share"`
	ExecuteIfDecided bool   `json:"execute_if_decided"`
}

type ProposalResponse struct {
	ProposalID          uint64    `json:"proposal_id"`
	Creator             string    `json:"creator"`
	StartTime           time.Time `json:"start_time"`
	Deadline            time.Time `json:"deadline"`
	SnapshotPoint       uint64    `json:"snapshot_point"`
	QuorumPct           uint64    `json:"quorum_pct"`
	SupportPct          uint64    `json:"support_pct"`
	TotalWeightedShare  uint64    `json:"total_weighted_share"`
	TotalStake          uint64    `json:"total_stake"`
	TotalEligibleWeight uint64    `json:"total_eligible_weight"`
	Metadata            string    `json:"metadata"`
	ActionPayload       []byte    `json:"action_payload"`
	Executed            bool      `json:"executed"`
	Open                bool      `json:"open"`
	Executable          bool      `json:"executable"`
	BallotCount         int       `json:"ballot_count"`
}

type ProposalListResponse struct {
	Items []ProposalResponse `json:"items"`
}

type CastBallotResponse struct {
	Proposal    ProposalResponse `json:"proposal"`
	StakeWeight uint64           `json:"stake_weight"`
	Executed    bool             `json:"executed"`
}

type VoterBallotResponse struct {
	ProposalID    uint64 `json:"proposal_id"`
	Voter         string `json:"voter"`
	DeclaredShare uint64 `json:"declared_share"`
	HasVoted      bool   `json:"has_voted"`
}

type QuorumConfigResponse struct {
	MinQuorumPct        uint64 `json:"min_quorum_pct"`
	MinSupportPct       uint64 `json:"min_support_pct"`
	VoteDurationSeconds int64  `json:"vote_duration_seconds"`
}

type SetQuorumRequest struct {
	NewPct uint64 `json:"new_pct"`
}
