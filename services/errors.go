package services

import (
	"errors"

	"github.com/Dosada05/tournament-dashboard/brackets"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	ErrFixtureNotFound     = errors.New("fixture not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrEventNotFound       = errors.New("event not found")

	ErrBracketAlreadyExists = errors.New("bracket already exists for this fixture")
	ErrNotDoublesFixture    = errors.New("partners can only be assigned in doubles fixtures")
	ErrWrongFormat          = errors.New("operation is not supported for this fixture format")
	ErrPublishingDisabled   = errors.New("snapshot publishing is not configured")
)

// Ошибки движка сетки.
var (
	ErrInvalidParticipantCount = brackets.ErrInvalidParticipantCount
	ErrAmbiguousResult         = brackets.ErrAmbiguousResult
	ErrFixtureLocked           = brackets.ErrFixtureLocked
	ErrIneligiblePartner       = brackets.ErrIneligiblePartner
	ErrInconsistentSwap        = brackets.ErrInconsistentSwap
	ErrMatchNotEditable        = brackets.ErrMatchNotEditable
	ErrMatchNotReady           = brackets.ErrMatchNotReady
	ErrInvalidWinner           = brackets.ErrInvalidWinner
	ErrInvalidStatusTransition = brackets.ErrInvalidStatusTransition
	ErrDownstreamPlayed        = brackets.ErrDownstreamPlayed
	ErrInvalidSlot             = brackets.ErrInvalidSlot
	ErrScoresRequired          = brackets.ErrScoresRequired
)

// IsNotFound reports whether err means an unknown id of any kind.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrFixtureNotFound) ||
		errors.Is(err, ErrMatchNotFound) ||
		errors.Is(err, brackets.ErrMatchNotFound) ||
		errors.Is(err, ErrParticipantNotFound) ||
		errors.Is(err, ErrEventNotFound)
}
