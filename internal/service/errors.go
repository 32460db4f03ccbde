package service

import "errors"

// Service errors, grouped by how the API layer reports them. Not-found
// and no-visibility are deliberately the same error so callers cannot
// probe for the existence of other users' resources.
var (
	// Authorization: caller is not the owner/payer/payee of the resource.
	ErrNotOwner = errors.New("caller is not the owner of this resource")
	ErrNotPayer = errors.New("caller is not the payer of this resource")

	// Not-found (or not visible to the caller).
	ErrGroupNotFound    = errors.New("group not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrRequestNotFound  = errors.New("request not found")
	ErrScheduleNotFound = errors.New("schedule not found")

	// State-conflict: the operation is invalid for the current status.
	ErrPaymentAlreadyCompleted = errors.New("payment already completed")
	ErrPaymentNotPending       = errors.New("payment is not pending")
	ErrRequestNotPending       = errors.New("request is not pending")
	ErrScheduleNotActive       = errors.New("schedule is not active")
	ErrScheduleNotPaused       = errors.New("schedule is not paused")
	ErrScheduleHasExecutions   = errors.New("active schedule with executions must be cancelled, not deleted")

	// Uniqueness-conflict.
	ErrDuplicateGroupName = errors.New("a group with this name already exists")
	ErrDuplicateRequest   = errors.New("an open request with the same payer, payee, amount, and tokens already exists")

	// Input validation beyond the validate package.
	ErrEmptyMembersList    = errors.New("group has no members")
	ErrOwnerIsMember       = errors.New("owner must not appear in the member list")
	ErrShareMismatch       = errors.New("claimed per-member share does not match the computed split")
	ErrSelfRequest         = errors.New("payer and payee must differ")
	ErrInvalidSlotCount    = errors.New("member count must be between 1 and 50")
	ErrNoAvailableSlots    = errors.New("no available slots")
	ErrAlreadyJoined       = errors.New("claimant already occupies a slot")
	ErrOwnerCannotJoin     = errors.New("owner cannot claim a slot on their own payment")
	ErrNotQuickShare       = errors.New("payment does not belong to a quick share group")
	ErrScheduleInPast      = errors.New("next execution date must be in the future")
	ErrEndBeforeStart      = errors.New("end date must not precede the next execution date")
	ErrInvalidMaxExec      = errors.New("max executions must be at least 1")
	ErrNoSettlementTxs     = errors.New("at least one settlement transaction id is required")
	ErrMissingSettlementTx = errors.New("settlement transaction id is required")
	ErrInvalidFrequency    = errors.New("frequency must be DAILY, WEEKLY, or MONTHLY")
	ErrNoTokens            = errors.New("at least one token is required")
)
