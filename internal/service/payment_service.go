package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nmalik/paysplit/internal/models"
	"github.com/nmalik/paysplit/internal/storage"
	"github.com/nmalik/paysplit/internal/validate"
)

// shareTolerance is the absolute drift allowed between the caller's
// claimed per-member share and the server-computed one. It guards
// against client/server rounding differences without requiring exact
// float equality. Splits whose computed share falls below the tolerance
// cannot be verified against it and are rejected.
const shareTolerance = 0.01

// maxQuickShareSlots bounds how many placeholder slots a Quick Share
// payment may open.
const maxQuickShareSlots = 50

// PaymentService orchestrates group payments: it computes the split,
// mints the link code, fans out member statuses and request payments,
// and runs the completion cascade when members settle. It also covers
// the Quick Share variant where members are unknown at creation time.
type PaymentService struct {
	store    storage.Store
	notifier Notifier
	book     AddressBook
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(store storage.Store, notifier Notifier, book AddressBook) *PaymentService {
	return &PaymentService{store: store, notifier: notifier, book: book}
}

// CreateGroupPaymentInput carries the caller's split request. Amounts
// arrive as decimal strings and are validated before use.
type CreateGroupPaymentInput struct {
	GroupID          string
	TotalAmount      string
	Tokens           []models.Token
	ClaimedPerMember string
	OwnerAddress     string
}

// GroupPaymentResult is the created payment plus its shareable link.
type GroupPaymentResult struct {
	Payment   *models.GroupPayment
	Link      string
	PerMember float64
}

// CreateGroupPayment creates a split of totalAmount across the group's
// members: one PENDING member status and one PENDING request payment per
// member, all reachable through a freshly minted link code.
//
// If fan-out fails after the payment row is committed, the error is
// surfaced but the payment remains visible in PENDING with no members
// paid; callers should treat it as a retry/cleanup candidate.
func (s *PaymentService) CreateGroupPayment(ctx context.Context, in CreateGroupPaymentInput) (*GroupPaymentResult, error) {
	owner, err := validate.Address(in.OwnerAddress)
	if err != nil {
		return nil, err
	}
	total, err := validate.Amount(in.TotalAmount)
	if err != nil {
		return nil, err
	}
	claimed, err := validate.Amount(in.ClaimedPerMember)
	if err != nil {
		return nil, err
	}
	if len(in.Tokens) == 0 {
		return nil, ErrNoTokens
	}

	group, err := s.store.GetGroup(ctx, in.GroupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if group.OwnerAddress != owner {
		return nil, ErrNotOwner
	}
	if len(group.Members) == 0 {
		return nil, ErrEmptyMembersList
	}

	perMember := validate.RoundShare(total / float64(len(group.Members)))
	if perMember < shareTolerance {
		return nil, fmt.Errorf("%w: computed share %g is below the verifiable minimum", ErrShareMismatch, perMember)
	}
	if math.Abs(claimed-perMember) > shareTolerance {
		return nil, fmt.Errorf("%w: claimed %g, computed %g", ErrShareMismatch, claimed, perMember)
	}

	payment := &models.GroupPayment{
		GroupID:      group.ID,
		OwnerAddress: owner,
		Tokens:       in.Tokens,
		TotalAmount:  total,
		PerMember:    perMember,
		Status:       models.GroupPaymentPending,
	}
	if err := s.insertWithFreshCode(ctx, payment); err != nil {
		return nil, err
	}

	statuses := make([]*models.MemberStatus, len(group.Members))
	for i, m := range group.Members {
		statuses[i] = &models.MemberStatus{
			PaymentID:   payment.ID,
			SlotIndex:   i,
			Slot:        models.SlotOccupied,
			Address:     m.Address,
			DisplayName: m.DisplayName,
			Status:      models.MemberPending,
		}
	}
	if err := s.store.CreateMemberStatuses(ctx, statuses); err != nil {
		slog.Error("CreateGroupPayment fan-out failed", "payment_id", payment.ID, "error", err)
		return nil, fmt.Errorf("payment %s created but member fan-out failed: %w", payment.ID, err)
	}

	if err := s.fanOutRequests(ctx, payment, group); err != nil {
		slog.Error("CreateGroupPayment request fan-out failed", "payment_id", payment.ID, "error", err)
		return nil, fmt.Errorf("payment %s created but request fan-out failed: %w", payment.ID, err)
	}

	slog.Info("Group payment created",
		"payment_id", payment.ID,
		"group_id", group.ID,
		"members", len(group.Members),
		"per_member", perMember,
	)
	return &GroupPaymentResult{
		Payment:   payment,
		Link:      "/group-payment/" + payment.LinkCode,
		PerMember: perMember,
	}, nil
}

// insertWithFreshCode inserts the payment, regenerating the link code on
// a unique-constraint collision up to maxCodeAttempts times. Collisions
// are never surfaced to callers.
func (s *PaymentService) insertWithFreshCode(ctx context.Context, payment *models.GroupPayment) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newLinkCode()
		if err != nil {
			return err
		}
		payment.LinkCode = code

		err = s.store.CreateGroupPayment(ctx, payment)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrDuplicate) {
			return err
		}
		slog.Warn("Link code collision, regenerating", "attempt", attempt+1)
	}
	return fmt.Errorf("failed to mint a unique link code after %d attempts", maxCodeAttempts)
}

// fanOutRequests creates one PENDING group-tagged request per member and
// sends each member a best-effort notification.
func (s *PaymentService) fanOutRequests(ctx context.Context, payment *models.GroupPayment, group *models.Group) error {
	memberTokens := shareTokens(payment.Tokens, len(group.Members))
	for _, m := range group.Members {
		req := &models.RequestPayment{
			Payer:          m.Address,
			Payee:          payment.OwnerAddress,
			Amount:         payment.PerMember,
			Tokens:         memberTokens,
			Message:        fmt.Sprintf("Your share of a %s group payment", group.Name),
			Status:         models.RequestPending,
			IsGroupPayment: true,
			GroupPaymentID: payment.ID,
		}
		if err := s.store.CreateRequestPayment(ctx, req); err != nil {
			return err
		}
		notifyRequestCreated(ctx, s.notifier, s.book, req)
	}
	return nil
}

// shareTokens scales a payment's token amounts down to one member's share.
func shareTokens(tokens []models.Token, memberCount int) []models.Token {
	out := make([]models.Token, len(tokens))
	for i, t := range tokens {
		out[i] = models.Token{
			ID:     t.ID,
			Symbol: t.Symbol,
			Amount: validate.RoundShare(t.Amount / float64(memberCount)),
		}
	}
	return out
}

// PaymentSummary is a payment plus its live per-member status, with
// paid/total counts recomputed from current rows on every call.
type PaymentSummary struct {
	Payment *models.GroupPayment
	Members []*models.MemberStatus
	Paid    int
	Total   int
}

// GetPaymentByLink resolves a shareable code to its payment and live
// member summary. Links to COMPLETED payments are rejected: a link is
// single-purpose once fulfilled.
func (s *PaymentService) GetPaymentByLink(ctx context.Context, code string) (*PaymentSummary, error) {
	clean, err := validate.LinkCode(code)
	if err != nil {
		return nil, err
	}
	payment, err := s.store.GetGroupPaymentByLink(ctx, clean)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment.Status == models.GroupPaymentCompleted {
		return nil, ErrPaymentAlreadyCompleted
	}

	statuses, err := s.store.ListMemberStatuses(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	return &PaymentSummary{
		Payment: payment,
		Members: statuses,
		Paid:    models.CountPaid(statuses),
		Total:   len(statuses),
	}, nil
}

// GetGroupPayments lists a group's payments keyed by UTC calendar date
// of creation. Every returned payment's owner must match the caller; a
// mismatch is an authorization failure, not a filter.
func (s *PaymentService) GetGroupPayments(ctx context.Context, groupID, callerAddress string) (map[string][]*models.GroupPayment, error) {
	caller, err := validate.Address(callerAddress)
	if err != nil {
		return nil, err
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if group.OwnerAddress != caller {
		return nil, ErrNotOwner
	}

	payments, err := s.store.ListGroupPayments(ctx, groupID)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string][]*models.GroupPayment)
	for _, p := range payments {
		if p.OwnerAddress != caller {
			return nil, ErrNotOwner
		}
		day := time.Unix(p.CreatedAt, 0).UTC().Format("2006-01-02")
		byDate[day] = append(byDate[day], p)
	}
	return byDate, nil
}

// QuickShareResult describes a freshly created Quick Share payment.
type QuickShareResult struct {
	Payment     *models.GroupPayment
	Code        string
	MemberCount int
	PerMember   float64
}

// CreateQuickShare creates a group payment whose members are unknown at
// creation time: memberCount placeholder slots are opened instead, and
// no request payments are fanned out. The payment hangs off the owner's
// well-known Quick Share group, created on first use.
func (s *PaymentService) CreateQuickShare(ctx context.Context, amount string, tokens []models.Token, memberCount int, ownerAddress string) (*QuickShareResult, error) {
	owner, err := validate.Address(ownerAddress)
	if err != nil {
		return nil, err
	}
	total, err := validate.Amount(amount)
	if err != nil {
		return nil, err
	}
	if memberCount < 1 || memberCount > maxQuickShareSlots {
		return nil, ErrInvalidSlotCount
	}
	if len(tokens) == 0 {
		return nil, ErrNoTokens
	}

	group, err := s.findOrCreateQuickShareGroup(ctx, owner)
	if err != nil {
		return nil, err
	}

	perMember := validate.RoundShare(total / float64(memberCount))
	payment := &models.GroupPayment{
		GroupID:      group.ID,
		OwnerAddress: owner,
		Tokens:       tokens,
		TotalAmount:  total,
		PerMember:    perMember,
		Status:       models.GroupPaymentPending,
	}
	if err := s.insertWithFreshCode(ctx, payment); err != nil {
		return nil, err
	}

	slots := make([]*models.MemberStatus, memberCount)
	for i := range slots {
		slots[i] = &models.MemberStatus{
			PaymentID: payment.ID,
			SlotIndex: i,
			Slot:      models.SlotEmpty,
			Status:    models.MemberPending,
		}
	}
	if err := s.store.CreateMemberStatuses(ctx, slots); err != nil {
		slog.Error("CreateQuickShare slot fan-out failed", "payment_id", payment.ID, "error", err)
		return nil, fmt.Errorf("payment %s created but slot fan-out failed: %w", payment.ID, err)
	}

	slog.Info("Quick share payment created",
		"payment_id", payment.ID,
		"slots", memberCount,
		"per_member", perMember,
	)
	return &QuickShareResult{
		Payment:     payment,
		Code:        payment.LinkCode,
		MemberCount: memberCount,
		PerMember:   perMember,
	}, nil
}

// quickShareSpellings are the stored-name variants looked up before a
// new Quick Share group is created for an owner.
var quickShareSpellings = []string{QuickShareGroupName, "QuickShare", "quick share", "quickshare"}

func (s *PaymentService) findOrCreateQuickShareGroup(ctx context.Context, owner string) (*models.Group, error) {
	for _, name := range quickShareSpellings {
		group, err := s.store.GetGroupByName(ctx, owner, name)
		if err == nil {
			return group, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	group := &models.Group{OwnerAddress: owner, Name: QuickShareGroupName}
	err := s.store.CreateGroup(ctx, group)
	if errors.Is(err, storage.ErrDuplicate) {
		// Concurrent creation; the winner's group is the one.
		return s.store.GetGroupByName(ctx, owner, QuickShareGroupName)
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

// JoinResult describes the slot state after a successful claim.
type JoinResult struct {
	FilledSlots int
	TotalSlots  int
	PerMember   float64
	Completed   bool
}

// JoinQuickShare claims the first empty slot of a Quick Share payment
// for the claimant. The claim itself is the settlement signal: the slot
// goes straight to PAID with no request/accept round-trip, and the
// completion cascade runs afterwards.
func (s *PaymentService) JoinQuickShare(ctx context.Context, code, claimantAddress string) (*JoinResult, error) {
	clean, err := validate.LinkCode(code)
	if err != nil {
		return nil, err
	}
	claimant, err := validate.Address(claimantAddress)
	if err != nil {
		return nil, err
	}

	payment, err := s.store.GetGroupPaymentByLink(ctx, clean)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, payment.GroupID)
	if err != nil {
		return nil, err
	}
	if !IsQuickShareName(group.Name) {
		return nil, ErrNotQuickShare
	}
	if payment.Status != models.GroupPaymentPending {
		return nil, ErrPaymentNotPending
	}
	if claimant == payment.OwnerAddress {
		return nil, ErrOwnerCannotJoin
	}

	err = s.store.ClaimSlot(ctx, payment.ID, claimant, time.Now())
	if errors.Is(err, storage.ErrNoRowsUpdated) {
		// Zero rows means either the claimant already holds a slot or
		// none remain; fresh reads tell them apart.
		statuses, lerr := s.store.ListMemberStatuses(ctx, payment.ID)
		if lerr != nil {
			return nil, lerr
		}
		for _, st := range statuses {
			if st.Address == claimant {
				return nil, ErrAlreadyJoined
			}
		}
		return nil, ErrNoAvailableSlots
	}
	if err != nil {
		return nil, err
	}

	completed, cascadeErr := s.checkCompletion(ctx, payment.ID)
	if cascadeErr != nil {
		// The claim already settled; the completion check is a secondary
		// effect and must not fail it.
		slog.Warn("Completion check failed after slot claim", "payment_id", payment.ID, "error", cascadeErr)
	}

	statuses, err := s.store.ListMemberStatuses(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	filled := 0
	for _, st := range statuses {
		if st.Slot == models.SlotOccupied && st.Status == models.MemberPaid {
			filled++
		}
	}

	slog.Info("Quick share slot claimed",
		"payment_id", payment.ID,
		"claimant", claimant,
		"filled", filled,
		"total", len(statuses),
	)
	return &JoinResult{
		FilledSlots: filled,
		TotalSlots:  len(statuses),
		PerMember:   payment.PerMember,
		Completed:   completed,
	}, nil
}

// MemberSettled marks the member PAID and runs the completion cascade.
// It reports whether the payment transitioned to COMPLETED. Invoked by
// the request lifecycle when a group-tagged request is accepted.
func (s *PaymentService) MemberSettled(ctx context.Context, paymentID, memberAddress string) (bool, error) {
	err := s.store.SetMemberPaid(ctx, paymentID, memberAddress, time.Now())
	if err != nil && !errors.Is(err, storage.ErrNoRowsUpdated) {
		return false, err
	}
	return s.checkCompletion(ctx, paymentID)
}

// MemberDenied marks the member DENIED. A denied member is excluded from
// future completion checks; the payment can then only be resolved by an
// external process.
func (s *PaymentService) MemberDenied(ctx context.Context, paymentID, memberAddress string) error {
	err := s.store.SetMemberDenied(ctx, paymentID, memberAddress)
	if errors.Is(err, storage.ErrNoRowsUpdated) {
		return nil
	}
	return err
}

// checkCompletion re-derives "all paid" from fresh member-status reads
// and flips the payment to COMPLETED when it holds. Safe to invoke
// concurrently from multiple settling members: the flip itself is an
// idempotent conditional update.
func (s *PaymentService) checkCompletion(ctx context.Context, paymentID string) (bool, error) {
	statuses, err := s.store.ListMemberStatuses(ctx, paymentID)
	if err != nil {
		return false, err
	}
	if !models.AllPaid(statuses) {
		return false, nil
	}
	if err := s.store.CompleteGroupPayment(ctx, paymentID); err != nil {
		return false, err
	}
	slog.Info("Group payment completed", "payment_id", paymentID)
	return true, nil
}

// notifyRequestCreated sends the payer a best-effort notification about
// a new request. Failures are logged, never propagated: notification is
// a secondary effect of an already-committed creation.
func notifyRequestCreated(ctx context.Context, notifier Notifier, book AddressBook, req *models.RequestPayment) {
	if notifier == nil {
		return
	}
	n := Notification{
		PayerAddress: req.Payer,
		Message:      req.Message,
		Amount:       req.Amount,
		PayeeLabel:   payeeLabel(ctx, book, req.Payer, req.Payee),
	}
	if len(req.Tokens) > 0 {
		n.TokenSymbol = req.Tokens[0].Symbol
		n.TokenID = req.Tokens[0].ID
	}
	if err := notifier.Notify(ctx, n); err != nil {
		slog.Warn("Request notification failed", "request_id", req.ID, "payer", req.Payer, "error", err)
	}
}
