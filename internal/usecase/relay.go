package usecase

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Candy2803/mpesa/internal/domain"
)

// RelayNotifier posts a denormalized summary of a completed transaction to
// the downstream relay endpoint. Dispatch is best effort: a failure is
// logged and never reaches the reconciliation result.
type RelayNotifier struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

func NewRelayNotifier(url string, timeout time.Duration, logger *slog.Logger) *RelayNotifier {
	return &RelayNotifier{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type relayPayload struct {
	OwnerID            string     `json:"ownerId"`
	PhoneNumber        string     `json:"phoneNumber"`
	Amount             string     `json:"amount"`
	MerchantRequestID  string     `json:"merchantRequestId"`
	CheckoutRequestID  string     `json:"checkoutRequestId"`
	MpesaReceiptNumber string     `json:"mpesaReceiptNumber"`
	TransactionDate    *time.Time `json:"transactionDate,omitempty"`
	Status             string     `json:"status"`
}

// Notify dispatches the relay call on its own goroutine and returns
// immediately.
func (n *RelayNotifier) Notify(tx domain.Transaction) {
	go n.send(tx)
}

func (n *RelayNotifier) send(tx domain.Transaction) {
	payload := relayPayload{
		OwnerID:            tx.OwnerID,
		PhoneNumber:        tx.PhoneNumber,
		Amount:             tx.Amount.String(),
		MerchantRequestID:  tx.MerchantRequestID,
		CheckoutRequestID:  tx.CheckoutRequestID,
		MpesaReceiptNumber: tx.MpesaReceiptNumber,
		TransactionDate:    tx.CompletedAt,
		Status:             string(tx.Status),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("relay payload marshal failed", "transaction_id", tx.ID, "err", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("relay request build failed", "transaction_id", tx.ID, "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.http.Do(req)
	if err != nil {
		n.logger.Error("relay dispatch failed", "transaction_id", tx.ID, "err", err)
		return
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		n.logger.Error("relay rejected notification",
			"transaction_id", tx.ID,
			"status", res.StatusCode,
		)
		return
	}

	n.logger.Info("relay notified", "transaction_id", tx.ID, "owner_id", tx.OwnerID)
}
