package game

import "errors"

// Input errors. These are the only failures the state-update path returns;
// nothing is mutated when one is reported.
var (
	ErrUnknownActivity = errors.New("unknown activity")
	ErrInvalidAmount   = errors.New("amount must be a positive number")
	ErrQuestNotFound   = errors.New("quest not found")
	ErrQuestIncomplete = errors.New("quest is not complete")
	ErrQuestClaimed    = errors.New("quest already claimed")
	ErrInvalidBuff     = errors.New("buff multiplier must exceed 1 and duration must be positive")
	ErrProfileExists   = errors.New("profile already onboarded")
	ErrInvalidProfile  = errors.New("profile name is required")
)
