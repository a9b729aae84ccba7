package reactor

import "github.com/vellumkit/reactor/internal"

// Error types, re-exported so callers can errors.As against them without
// importing the internal package directly. See each type's doc comment
// for the condition it reports.
type (
	CycleDetectedError      = internal.CycleDetectedError
	MaxDepthExceededError    = internal.MaxDepthExceededError
	MaxReactionExceededError = internal.MaxReactionExceededError
	EffectCanceledError      = internal.EffectCanceledError
	BrokenEffectsError       = internal.BrokenEffectsError
	TimeoutExpiredError      = internal.TimeoutExpiredError
	BadTargetError           = internal.BadTargetError
	NoActiveEffectError      = internal.NoActiveEffectError
)
