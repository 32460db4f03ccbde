// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/nmalik/paysplit/internal/models"
)

// Sentinel errors the service layer relies on to classify store failures.
var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert violates a unique
	// constraint (group name per owner, link code).
	ErrDuplicate = errors.New("duplicate")

	// ErrNoRowsUpdated is returned by conditional updates whose
	// predicate matched nothing (slot already claimed, status already
	// changed by a concurrent caller).
	ErrNoRowsUpdated = errors.New("no rows updated")
)

// Store defines the persistence operations the settlement engine needs.
// Implementations must provide atomic single-row conditional updates and
// unique-constraint enforcement; the engine's race-safety (link codes,
// slot claims, the completion flip) depends on them.
type Store interface {
	// Groups.

	// CreateGroup persists a new group and its roster. The group.ID
	// field is populated by the store. Returns ErrDuplicate if the
	// owner already has a group with the same name.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its roster.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// GetGroupByName retrieves an owner's group by sanitized name.
	GetGroupByName(ctx context.Context, ownerAddress, name string) (*models.Group, error)

	// UpdateGroup replaces a group's name and roster. Updates are
	// last-write-coherent per group id: the whole roster swap happens
	// in one transaction.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes a group. Payments keep their copied rosters.
	DeleteGroup(ctx context.Context, groupID string) error

	// ListGroupsByOwner returns all groups owned by an address.
	ListGroupsByOwner(ctx context.Context, ownerAddress string) ([]*models.Group, error)

	// Group payments.

	// CreateGroupPayment inserts the payment row. Returns ErrDuplicate
	// if the link code collides; callers retry with a fresh code.
	CreateGroupPayment(ctx context.Context, p *models.GroupPayment) error

	// CreateMemberStatuses inserts the per-member settlement rows.
	CreateMemberStatuses(ctx context.Context, statuses []*models.MemberStatus) error

	GetGroupPayment(ctx context.Context, paymentID string) (*models.GroupPayment, error)
	GetGroupPaymentByLink(ctx context.Context, linkCode string) (*models.GroupPayment, error)
	ListGroupPayments(ctx context.Context, groupID string) ([]*models.GroupPayment, error)

	// ListMemberStatuses returns all member rows for a payment in slot
	// order, reflecting the most recently committed writes.
	ListMemberStatuses(ctx context.Context, paymentID string) ([]*models.MemberStatus, error)

	// SetMemberPaid conditionally marks the occupied slot for the given
	// address PAID. Returns ErrNoRowsUpdated if no such pending member
	// exists.
	SetMemberPaid(ctx context.Context, paymentID, memberAddress string, paidAt time.Time) error

	// SetMemberDenied conditionally marks the member DENIED.
	SetMemberDenied(ctx context.Context, paymentID, memberAddress string) error

	// ClaimSlot atomically claims the first empty slot of the payment
	// for the claimant and marks it PAID in the same statement. Returns
	// ErrNoRowsUpdated when no empty slot remains or the claimant
	// already holds one.
	ClaimSlot(ctx context.Context, paymentID, claimantAddress string, paidAt time.Time) error

	// CompleteGroupPayment flips PENDING -> COMPLETED. The flip is
	// idempotent: completing an already COMPLETED payment is a no-op.
	CompleteGroupPayment(ctx context.Context, paymentID string) error

	// Request payments.

	// CreateRequestPayment persists a new request. The request.ID field
	// is populated by the store.
	CreateRequestPayment(ctx context.Context, r *models.RequestPayment) error

	GetRequestPayment(ctx context.Context, requestID string) (*models.RequestPayment, error)

	// FindOpenRequest returns a PENDING request with the same payer,
	// payee, and amount, if any; the caller compares token sets.
	FindOpenRequests(ctx context.Context, payer, payee string, amount float64) ([]*models.RequestPayment, error)

	// SetRequestStatus conditionally transitions a PENDING request to
	// the given terminal status, recording the settlement tx id when
	// accepting. Returns ErrNoRowsUpdated if the request was no longer
	// PENDING.
	SetRequestStatus(ctx context.Context, requestID string, status models.RequestStatus, settlementTx string) error

	// ListRequestsForUser returns requests where the address is payer
	// or payee, newest first.
	ListRequestsForUser(ctx context.Context, address string) ([]*models.RequestPayment, error)

	// Schedule payments.

	// CreateSchedulePayment persists a new schedule with its linked
	// settlement transaction ids.
	CreateSchedulePayment(ctx context.Context, s *models.SchedulePayment) error

	GetSchedulePayment(ctx context.Context, scheduleID string) (*models.SchedulePayment, error)
	ListSchedulesForUser(ctx context.Context, address string, status models.ScheduleStatus) ([]*models.SchedulePayment, error)

	// ListSchedulesReady returns ACTIVE schedules due at or before now
	// whose end date has not passed. This is the polling contract the
	// external scheduler relies on.
	ListSchedulesReady(ctx context.Context, now time.Time) ([]*models.SchedulePayment, error)

	// UpdateScheduleExecution records one execution: the new count, the
	// advanced (or cleared) next date, and the possibly-terminal status.
	UpdateScheduleExecution(ctx context.Context, scheduleID string, count int, next *time.Time, status models.ScheduleStatus) error

	// SetScheduleStatus writes a status directly (pause/resume/cancel,
	// markFailed).
	SetScheduleStatus(ctx context.Context, scheduleID string, status models.ScheduleStatus) error

	// DeleteSchedulePayment removes a schedule and its linked ids.
	DeleteSchedulePayment(ctx context.Context, scheduleID string) error

	// Close releases any resources held by the store.
	Close() error
}
