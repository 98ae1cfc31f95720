package errors

import "errors"

var (
	ErrUnauthorized         = errors.New("caller lacks the required capability")
	ErrProposalNotFound     = errors.New("proposal not found")
	ErrNotEligible          = errors.New("voter is not eligible on this proposal")
	ErrNotExecutable        = errors.New("proposal is not executable")
	ErrInvalidConfiguration = errors.New("invalid governance configuration")
	ErrInvalidBallot        = errors.New("invalid ballot input")
	ErrWeightOverflow       = errors.New("weight accumulation overflow")
	ErrActionFailed         = errors.New("proposal action execution failed")
)
