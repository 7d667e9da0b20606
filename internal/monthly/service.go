package monthly

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/patrickrooney09/tiba-update-user/internal/audit"
	"github.com/patrickrooney09/tiba-update-user/internal/metrics"
	"github.com/patrickrooney09/tiba-update-user/internal/smartpark"
)

// SmartPark is the slice of the provider client the workflow needs.
type SmartPark interface {
	GetAccessProfiles(ctx context.Context) ([]smartpark.AccessProfile, error)
	GetMonthlyDetails(ctx context.Context, monthlyID string) (*smartpark.Monthly, error)
	UpdateMonthly(ctx context.Context, record smartpark.MonthlyUpdate) (*smartpark.Monthly, error)
}

type Service interface {
	ListAccessProfiles(ctx context.Context) ([]smartpark.AccessProfile, error)
	GetDetails(ctx context.Context, monthlyID string) (*smartpark.Monthly, error)
	Update(ctx context.Context, performedBy string, req UpdateRequest) (*smartpark.Monthly, error)
	ApplyDiscount(ctx context.Context, performedBy string, req DiscountRequest) (*smartpark.Monthly, error)
}

type service struct {
	provider SmartPark
	audits   audit.Store
}

func NewService(provider SmartPark, audits audit.Store) Service {
	return &service{provider: provider, audits: audits}
}

func (s *service) ListAccessProfiles(ctx context.Context) ([]smartpark.AccessProfile, error) {
	return s.provider.GetAccessProfiles(ctx)
}

func (s *service) GetDetails(ctx context.Context, monthlyID string) (*smartpark.Monthly, error) {
	if monthlyID == "" {
		return nil, ErrMissingMonthlyID
	}
	return s.provider.GetMonthlyDetails(ctx, monthlyID)
}

// Update runs the replace-account workflow: snapshot the current record,
// submit the full replacement, then append an audit entry describing what
// changed. The audit write is best-effort and never alters the outcome.
func (s *service) Update(ctx context.Context, performedBy string, req UpdateRequest) (*smartpark.Monthly, error) {
	if req.MonthlyID == "" {
		return nil, ErrMissingMonthlyID
	}

	cars, err := normalizePlates(req.Cars)
	if err != nil {
		return nil, err
	}
	req.Cars = cars

	// A fetch failure surfaces without an audit entry: there is no
	// previous state to report and nothing has been mutated yet.
	previous, err := s.provider.GetMonthlyDetails(ctx, req.MonthlyID)
	if err != nil {
		return nil, fmt.Errorf("fetch account %s: %w", req.MonthlyID, err)
	}

	method := audit.MethodManual
	if req.IsDiscount {
		method = audit.MethodDiscount
	}

	return s.replace(ctx, performedBy, previous, req.MonthlyUpdate, method, req.Reason)
}

// ApplyDiscount credits a bounded amount onto the account's wallet. The
// submitted balance is the absolute target, not a delta, so resubmitting
// the same payload cannot double-apply the credit.
func (s *service) ApplyDiscount(ctx context.Context, performedBy string, req DiscountRequest) (*smartpark.Monthly, error) {
	if req.MonthlyID == "" {
		return nil, ErrMissingMonthlyID
	}
	if req.AmountCents <= 0 || req.AmountCents > MaxDiscountCents {
		return nil, ErrDiscountBounds
	}

	previous, err := s.provider.GetMonthlyDetails(ctx, req.MonthlyID)
	if err != nil {
		return nil, fmt.Errorf("fetch account %s: %w", req.MonthlyID, err)
	}

	record := smartpark.UpdateFromDetails(previous)
	target := previous.WalletBalance + req.AmountCents
	record.WalletBalance = &target

	return s.replace(ctx, performedBy, previous, record, audit.MethodDiscount, req.Reason)
}

func (s *service) replace(ctx context.Context, performedBy string, previous *smartpark.Monthly, record smartpark.MonthlyUpdate, method audit.UpdateMethod, reason string) (*smartpark.Monthly, error) {
	actionType, meta := classify(previous, record, method, reason)

	updated, err := s.provider.UpdateMonthly(ctx, record)
	if err != nil {
		metrics.RecordMonthlyUpdate(string(actionType), "failure")
		s.audits.Append(ctx, audit.Entry{
			ActionType:  actionType,
			PerformedBy: performedBy,
			MonthlyID:   record.MonthlyID,
			NewState:    mustJSON(record),
			Success:     false,
			Error:       err.Error(),
			Metadata:    meta,
		})
		return nil, err
	}

	metrics.RecordMonthlyUpdate(string(actionType), "success")
	if meta != nil {
		metrics.RecordWalletChange(string(method), meta.AmountChange)
	}

	s.audits.Append(ctx, audit.Entry{
		ActionType:    actionType,
		PerformedBy:   performedBy,
		MonthlyID:     record.MonthlyID,
		PreviousState: mustJSON(previous),
		NewState:      mustJSON(updated),
		Success:       true,
		Metadata:      meta,
	})

	return updated, nil
}

// classify derives the audit action and wallet metadata from the submitted
// record. A record without a WalletBalance is a plain profile update.
func classify(previous *smartpark.Monthly, record smartpark.MonthlyUpdate, method audit.UpdateMethod, reason string) (audit.ActionType, *audit.Metadata) {
	if record.WalletBalance == nil {
		return audit.ActionUserUpdate, nil
	}

	var previousBalance int64
	if previous != nil {
		previousBalance = previous.WalletBalance
	}

	return audit.ActionWalletUpdate, &audit.Metadata{
		UpdateMethod: method,
		AmountChange: *record.WalletBalance - previousBalance,
		Reason:       reason,
	}
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
