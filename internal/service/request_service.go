package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/nmalik/paysplit/internal/models"
	"github.com/nmalik/paysplit/internal/storage"
	"github.com/nmalik/paysplit/internal/validate"
)

// GroupSettler receives member settlement events from the request
// lifecycle so the owning group payment can re-evaluate completion.
// Implemented by PaymentService.
type GroupSettler interface {
	MemberSettled(ctx context.Context, paymentID, memberAddress string) (bool, error)
	MemberDenied(ctx context.Context, paymentID, memberAddress string) error
}

// RequestService is the single-counterparty obligation lifecycle:
// PENDING -> ACCEPTED or PENDING -> DENIED, both terminal.
type RequestService struct {
	store    storage.Store
	notifier Notifier
	book     AddressBook
	settler  GroupSettler
}

// NewRequestService creates a new RequestService. settler may be nil in
// deployments without group payments.
func NewRequestService(store storage.Store, notifier Notifier, book AddressBook, settler GroupSettler) *RequestService {
	return &RequestService{store: store, notifier: notifier, book: book, settler: settler}
}

// CreateRequestInput carries a peer-to-peer request creation.
type CreateRequestInput struct {
	Payer   string
	Payee   string
	Amount  string
	Tokens  []models.Token
	Message string
}

// CreateRequest creates a PENDING request from payee against payer. An
// open request with the same payer, payee, amount, and token set is a
// duplicate and is rejected. The payer gets a best-effort notification;
// its failure never rolls back the creation.
func (s *RequestService) CreateRequest(ctx context.Context, in CreateRequestInput) (*models.RequestPayment, error) {
	payer, err := validate.Address(in.Payer)
	if err != nil {
		return nil, err
	}
	payee, err := validate.Address(in.Payee)
	if err != nil {
		return nil, err
	}
	if payer == payee {
		return nil, ErrSelfRequest
	}
	amount, err := validate.Amount(in.Amount)
	if err != nil {
		return nil, err
	}
	message, err := validate.Message(in.Message)
	if err != nil {
		return nil, err
	}
	if len(in.Tokens) == 0 {
		return nil, ErrNoTokens
	}

	open, err := s.store.FindOpenRequests(ctx, payer, payee, amount)
	if err != nil {
		return nil, err
	}
	for _, existing := range open {
		if sameTokenSet(existing.Tokens, in.Tokens) {
			return nil, ErrDuplicateRequest
		}
	}

	req := &models.RequestPayment{
		Payer:   payer,
		Payee:   payee,
		Amount:  amount,
		Tokens:  in.Tokens,
		Message: message,
		Status:  models.RequestPending,
	}
	if err := s.store.CreateRequestPayment(ctx, req); err != nil {
		slog.Error("CreateRequest failed", "payer", payer, "payee", payee, "error", err)
		return nil, err
	}

	notifyRequestCreated(ctx, s.notifier, s.book, req)

	slog.Info("Request created", "request_id", req.ID, "payer", payer, "payee", payee, "amount", amount)
	return req, nil
}

// sameTokenSet compares two token lists as sets of (id, symbol) pairs,
// ignoring order.
func sameTokenSet(a, b []models.Token) bool {
	if len(a) != len(b) {
		return false
	}
	keys := func(tokens []models.Token) []string {
		out := make([]string, len(tokens))
		for i, t := range tokens {
			out[i] = t.ID + "\x00" + t.Symbol
		}
		sort.Strings(out)
		return out
	}
	ka, kb := keys(a), keys(b)
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

// SettleResult reports a terminal transition plus the outcome of its
// secondary effects. The primary transition has already committed when
// CascadeErr is non-nil; callers observe the failed side effect instead
// of having the whole operation rolled back.
type SettleResult struct {
	Request        *models.RequestPayment
	GroupCompleted bool
	CascadeErr     error
}

// AcceptRequest transitions a PENDING request to ACCEPTED, recording the
// settlement transaction id. Only the named payer may accept. Group-
// tagged requests feed the completion cascade of their group payment.
func (s *RequestService) AcceptRequest(ctx context.Context, requestID, payerAddress, txid string) (*SettleResult, error) {
	req, err := s.loadForPayer(ctx, requestID, payerAddress)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(txid) == "" {
		return nil, ErrMissingSettlementTx
	}
	if req.Status != models.RequestPending {
		return nil, ErrRequestNotPending
	}

	err = s.store.SetRequestStatus(ctx, req.ID, models.RequestAccepted, txid)
	if errors.Is(err, storage.ErrNoRowsUpdated) {
		// A concurrent accept/deny won the race.
		return nil, ErrRequestNotPending
	}
	if err != nil {
		return nil, err
	}
	req.Status = models.RequestAccepted
	req.SettlementTx = txid

	result := &SettleResult{Request: req}
	if req.IsGroupPayment && s.settler != nil {
		completed, cascadeErr := s.settler.MemberSettled(ctx, req.GroupPaymentID, req.Payer)
		result.GroupCompleted = completed
		result.CascadeErr = cascadeErr
		if cascadeErr != nil {
			// The accept already committed; completion is re-derived on
			// the next settlement or read.
			slog.Warn("Completion cascade failed after accept",
				"request_id", req.ID, "payment_id", req.GroupPaymentID, "error", cascadeErr)
		}
	}

	slog.Info("Request accepted", "request_id", req.ID, "payer", req.Payer, "tx", txid)
	return result, nil
}

// DenyRequest transitions a PENDING request to DENIED. Only the named
// payer may deny. For group-tagged requests the member status is marked
// DENIED, which excludes that member from future completion checks.
func (s *RequestService) DenyRequest(ctx context.Context, requestID, payerAddress string) (*SettleResult, error) {
	req, err := s.loadForPayer(ctx, requestID, payerAddress)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, ErrRequestNotPending
	}

	err = s.store.SetRequestStatus(ctx, req.ID, models.RequestDenied, "")
	if errors.Is(err, storage.ErrNoRowsUpdated) {
		return nil, ErrRequestNotPending
	}
	if err != nil {
		return nil, err
	}
	req.Status = models.RequestDenied

	result := &SettleResult{Request: req}
	if req.IsGroupPayment && s.settler != nil {
		if cascadeErr := s.settler.MemberDenied(ctx, req.GroupPaymentID, req.Payer); cascadeErr != nil {
			result.CascadeErr = cascadeErr
			slog.Warn("Member denial cascade failed",
				"request_id", req.ID, "payment_id", req.GroupPaymentID, "error", cascadeErr)
		}
	}

	slog.Info("Request denied", "request_id", req.ID, "payer", req.Payer)
	return result, nil
}

// RequestList partitions a user's requests by settlement outcome.
type RequestList struct {
	Pending  []*models.RequestPayment
	Accepted []*models.RequestPayment
}

// ListForUser returns the user's open and accepted requests, as payer or
// payee, newest first.
func (s *RequestService) ListForUser(ctx context.Context, address string) (*RequestList, error) {
	addr, err := validate.Address(address)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListRequestsForUser(ctx, addr)
	if err != nil {
		return nil, err
	}

	list := &RequestList{}
	for _, r := range all {
		switch r.Status {
		case models.RequestPending:
			list.Pending = append(list.Pending, r)
		case models.RequestAccepted:
			list.Accepted = append(list.Accepted, r)
		}
	}
	return list, nil
}

// loadForPayer fetches a request and verifies the caller is its payer.
func (s *RequestService) loadForPayer(ctx context.Context, requestID, payerAddress string) (*models.RequestPayment, error) {
	caller, err := validate.Address(payerAddress)
	if err != nil {
		return nil, err
	}
	req, err := s.store.GetRequestPayment(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.Payer != caller {
		return nil, ErrNotPayer
	}
	return req, nil
}
