package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Candy2803/mpesa/internal/domain"
	"github.com/Candy2803/mpesa/internal/mpesa"
	"github.com/Candy2803/mpesa/internal/repository"
)

const (
	metaReceiptNumber   = "MpesaReceiptNumber"
	metaAmount          = "Amount"
	metaPhoneNumber     = "PhoneNumber"
	metaTransactionDate = "TransactionDate"
)

// Ack is the outward-facing result of processing one gateway notification.
// Everything except a malformed envelope or an unreconcilable successful
// payment collapses to AckOK: the gateway treats any non-success response
// as an instruction to retry, and retry storms are worse than dropping a
// notification we cannot use.
type Ack int

const (
	AckOK Ack = iota
	AckMalformed
	AckNotFound
)

type ReconcileResult struct {
	Ack Ack
	// Transaction is the record the notification was applied to or
	// synthesized as; nil when nothing was reconciled.
	Transaction *domain.Transaction
}

// Notifier receives a completed transaction for downstream relay. Dispatch
// is fire-and-forget; implementations must not block reconciliation.
type Notifier interface {
	Notify(tx domain.Transaction)
}

type ReconcileUsecase struct {
	store  Store
	relay  Notifier // nil when no relay is configured
	logger *slog.Logger
	now    func() time.Time
}

func NewReconcileUsecase(store Store, relay Notifier, logger *slog.Logger) *ReconcileUsecase {
	return &ReconcileUsecase{
		store:  store,
		relay:  relay,
		logger: logger,
		now:    time.Now,
	}
}

// matcher is one lookup strategy; it returns repository.ErrNotFound when it
// does not apply or finds nothing, letting the chain fall through.
type matcher func(ctx context.Context, cb *mpesa.StkCallback) (*domain.Transaction, error)

func (u *ReconcileUsecase) matchers() []matcher {
	return []matcher{
		func(ctx context.Context, cb *mpesa.StkCallback) (*domain.Transaction, error) {
			return u.store.FindByCheckoutRequestID(ctx, cb.CheckoutRequestID)
		},
		func(ctx context.Context, cb *mpesa.StkCallback) (*domain.Transaction, error) {
			if cb.MerchantRequestID == "" {
				return nil, repository.ErrNotFound
			}
			return u.store.FindByMerchantRequestID(ctx, cb.MerchantRequestID)
		},
	}
}

// Reconcile matches an asynchronous gateway notification to a transaction
// record and applies its outcome. It never returns an error: internal
// failures are logged and acknowledged as success.
func (u *ReconcileUsecase) Reconcile(ctx context.Context, env *mpesa.CallbackEnvelope) ReconcileResult {
	if env == nil || env.Body == nil || env.Body.StkCallback == nil || env.Body.StkCallback.CheckoutRequestID == "" {
		return ReconcileResult{Ack: AckMalformed}
	}
	cb := env.Body.StkCallback

	var tx *domain.Transaction
	for _, match := range u.matchers() {
		found, err := match(ctx, cb)
		if err == nil {
			tx = found
			break
		}
		if !errors.Is(err, repository.ErrNotFound) {
			u.logger.Error("transaction lookup failed",
				"checkout_request_id", cb.CheckoutRequestID,
				"err", err,
			)
			return ReconcileResult{Ack: AckOK}
		}
	}

	if tx == nil {
		return u.reconcileUnmatched(ctx, cb)
	}

	u.applyOutcome(ctx, tx, cb)

	if tx.Status == domain.StatusCompleted && tx.OwnerID != "" && u.relay != nil {
		u.relay.Notify(*tx)
	}

	return ReconcileResult{Ack: AckOK, Transaction: tx}
}

// reconcileUnmatched handles a notification with no matching record. A
// successful payment with full metadata is recovered into a new completed
// record; a successful payment without it cannot be attributed to anyone
// and is the one business failure surfaced outward. A failure report with
// no record needs no reconciliation at all.
func (u *ReconcileUsecase) reconcileUnmatched(ctx context.Context, cb *mpesa.StkCallback) ReconcileResult {
	if cb.ResultCode != 0 {
		u.logger.Info("ignoring unmatched failure notification",
			"checkout_request_id", cb.CheckoutRequestID,
			"result_code", cb.ResultCode,
		)
		return ReconcileResult{Ack: AckOK}
	}

	receipt, haveReceipt := cb.CallbackMetadata.StringValue(metaReceiptNumber)
	amount, haveAmount := cb.CallbackMetadata.DecimalValue(metaAmount)
	phone, havePhone := cb.CallbackMetadata.StringValue(metaPhoneNumber)

	if !haveReceipt || !haveAmount || !havePhone {
		u.logger.Warn("successful payment cannot be reconciled",
			"checkout_request_id", cb.CheckoutRequestID,
		)
		return ReconcileResult{Ack: AckNotFound}
	}

	tx := &domain.Transaction{
		ID:                 uuid.NewString(),
		PhoneNumber:        phone,
		Amount:             amount,
		Reference:          fmt.Sprintf("Recovery-%d", u.now().UnixMilli()),
		Description:        "Recovered payment",
		MerchantRequestID:  cb.MerchantRequestID,
		CheckoutRequestID:  cb.CheckoutRequestID,
		MpesaReceiptNumber: receipt,
		Status:             domain.StatusCompleted,
	}
	if ts, ok := cb.CallbackMetadata.StringValue(metaTransactionDate); ok {
		if completed, err := mpesa.ParseTimestamp(ts); err == nil {
			tx.CompletedAt = &completed
		}
	}

	if err := u.store.Insert(ctx, tx); err != nil {
		// A duplicate here is a replayed notification that lost the race to
		// an earlier recovery; the record already exists in the same state.
		u.logger.Error("failed to persist recovery transaction",
			"checkout_request_id", cb.CheckoutRequestID,
			"err", err,
		)
		return ReconcileResult{Ack: AckOK}
	}

	u.logger.Info("created recovery transaction",
		"transaction_id", tx.ID,
		"receipt", receipt,
	)

	return ReconcileResult{Ack: AckOK, Transaction: tx}
}

// applyOutcome moves a matched record to its terminal state and persists
// it. Persistence failures are logged and swallowed.
func (u *ReconcileUsecase) applyOutcome(ctx context.Context, tx *domain.Transaction, cb *mpesa.StkCallback) {
	var target domain.TxStatus
	if cb.ResultCode == 0 && cb.CallbackMetadata != nil {
		target = domain.StatusCompleted
	} else {
		target = domain.StatusFailed
	}

	if !domain.ValidTransition(tx.Status, target) {
		u.logger.Warn("ignoring notification for terminal transaction",
			"transaction_id", tx.ID,
			"status", tx.Status,
			"result_code", cb.ResultCode,
		)
		return
	}

	switch target {
	case domain.StatusCompleted:
		tx.Status = domain.StatusCompleted
		if receipt, ok := cb.CallbackMetadata.StringValue(metaReceiptNumber); ok {
			tx.MpesaReceiptNumber = receipt
		}
		if ts, ok := cb.CallbackMetadata.StringValue(metaTransactionDate); ok {
			if completed, err := mpesa.ParseTimestamp(ts); err == nil {
				tx.CompletedAt = &completed
			}
		}
	case domain.StatusFailed:
		tx.Status = domain.StatusFailed
		tx.ResponseCode = strconv.Itoa(cb.ResultCode)
		tx.ResponseDescription = cb.ResultDesc
	}

	if err := u.store.Update(ctx, tx); err != nil {
		u.logger.Error("failed to persist reconciled transaction",
			"transaction_id", tx.ID,
			"err", err,
		)
		return
	}

	u.logger.Info("transaction reconciled",
		"transaction_id", tx.ID,
		"status", tx.Status,
		"result_code", cb.ResultCode,
	)
}
