package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Candy2803/mpesa/internal/domain"
	"github.com/Candy2803/mpesa/internal/mpesa"
	"github.com/Candy2803/mpesa/internal/repository"
)

const defaultLabel = "Payment"

var (
	ErrMissingField = errors.New("phone number and amount are required")

	// ErrInitiationFailed covers gateway send and persistence failures that
	// are not duplicate submissions; the upstream detail is attached.
	ErrInitiationFailed = errors.New("failed to initiate stk push")
)

type STKPushUsecase struct {
	store   Store
	gateway *mpesa.Client
	logger  *slog.Logger
	now     func() time.Time
}

func NewSTKPushUsecase(store Store, gateway *mpesa.Client, logger *slog.Logger) *STKPushUsecase {
	return &STKPushUsecase{
		store:   store,
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
	}
}

type InitiateInput struct {
	PhoneNumber string
	Amount      decimal.Decimal
	Reference   string
	Description string
	OwnerID     string
}

type InitiateResult struct {
	TransactionID string
	Ack           *mpesa.STKPushResponse
}

// Initiate validates the request, sends the push prompt to the gateway and
// persists a pending transaction keyed by the gateway's correlation IDs.
func (u *STKPushUsecase) Initiate(ctx context.Context, in InitiateInput) (*InitiateResult, error) {
	if in.PhoneNumber == "" || !in.Amount.IsPositive() {
		return nil, ErrMissingField
	}

	phone, err := mpesa.NormalizePhone(in.PhoneNumber)
	if err != nil {
		return nil, err
	}

	token, err := u.gateway.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := mpesa.Timestamp(u.now())
	password := u.gateway.Password(timestamp)

	reference := in.Reference
	if reference == "" {
		reference = defaultLabel
	}
	description := in.Description
	if description == "" {
		description = defaultLabel
	}

	payload := u.gateway.BuildSTKPushRequest(phone, in.Amount.String(), description, password, timestamp)

	ack, err := u.gateway.STKPush(ctx, token, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitiationFailed, err)
	}

	tx := &domain.Transaction{
		ID:                  uuid.NewString(),
		OwnerID:             in.OwnerID,
		PhoneNumber:         phone,
		Amount:              in.Amount,
		Reference:           reference,
		Description:         description,
		MerchantRequestID:   ack.MerchantRequestID,
		CheckoutRequestID:   ack.CheckoutRequestID,
		ResponseCode:        ack.ResponseCode,
		ResponseDescription: ack.ResponseDescription,
		CustomerMessage:     ack.CustomerMessage,
		Status:              domain.StatusPending,
	}

	if err := u.store.Insert(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInitiationFailed, err)
	}

	u.logger.Info("stk push initiated",
		"transaction_id", tx.ID,
		"checkout_request_id", tx.CheckoutRequestID,
		"phone", phone,
	)

	return &InitiateResult{TransactionID: tx.ID, Ack: ack}, nil
}
