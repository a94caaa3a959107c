package brackets

import "errors"

var (
	ErrInvalidParticipantCount = errors.New("not enough participants to generate a bracket (minimum 2)")
	ErrAmbiguousResult         = errors.New("result has no determinable winner: a manual winner is required")
	ErrFixtureLocked           = errors.New("fixture has played matches: structural edits are locked")
	ErrIneligiblePartner       = errors.New("partner is not eligible for this slot")
	ErrInconsistentSwap        = errors.New("swap references are stale or were modified concurrently")
	ErrMatchNotFound           = errors.New("match not found in bracket")
	ErrMatchNotEditable        = errors.New("match cannot be edited")
	ErrMatchNotReady           = errors.New("match does not have both participants yet")
	ErrInvalidWinner           = errors.New("winner must be one of the match participants")
	ErrInvalidStatusTransition = errors.New("invalid match status transition")
	ErrDownstreamPlayed        = errors.New("the next match has already started")
	ErrInvalidSlot             = errors.New("slot must be either home or away")
	ErrScoresRequired          = errors.New("scores or sets are required to complete a match")
)
