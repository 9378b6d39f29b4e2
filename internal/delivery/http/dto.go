package httpd

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Candy2803/mpesa/internal/domain"
	"github.com/Candy2803/mpesa/internal/mpesa"
)

type STKPushReq struct {
	PhoneNumber string          `json:"phoneNumber" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
	OwnerID     string          `json:"ownerId"`
}

type STKPushResp struct {
	Success       bool                   `json:"success"`
	Message       string                 `json:"message"`
	Data          *mpesa.STKPushResponse `json:"data"`
	TransactionID string                 `json:"transactionId"`
}

type failResp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type callbackResp struct {
	Success bool `json:"success"`
}

type listResp struct {
	Success bool     `json:"success"`
	Count   int      `json:"count"`
	Data    []TxItem `json:"data"`
}

type getResp struct {
	Success bool   `json:"success"`
	Data    TxItem `json:"data"`
}

type TxItem struct {
	ID                  string     `json:"id"`
	OwnerID             string     `json:"ownerId,omitempty"`
	PhoneNumber         string     `json:"phoneNumber"`
	Amount              string     `json:"amount"`
	Reference           string     `json:"reference"`
	Description         string     `json:"description"`
	MerchantRequestID   string     `json:"merchantRequestId,omitempty"`
	CheckoutRequestID   string     `json:"checkoutRequestId,omitempty"`
	ResponseCode        string     `json:"responseCode,omitempty"`
	ResponseDescription string     `json:"responseDescription,omitempty"`
	CustomerMessage     string     `json:"customerMessage,omitempty"`
	MpesaReceiptNumber  string     `json:"mpesaReceiptNumber,omitempty"`
	TransactionDate     *time.Time `json:"transactionDate,omitempty"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func toTxItem(t domain.Transaction) TxItem {
	return TxItem{
		ID:                  t.ID,
		OwnerID:             t.OwnerID,
		PhoneNumber:         t.PhoneNumber,
		Amount:              t.Amount.String(),
		Reference:           t.Reference,
		Description:         t.Description,
		MerchantRequestID:   t.MerchantRequestID,
		CheckoutRequestID:   t.CheckoutRequestID,
		ResponseCode:        t.ResponseCode,
		ResponseDescription: t.ResponseDescription,
		CustomerMessage:     t.CustomerMessage,
		MpesaReceiptNumber:  t.MpesaReceiptNumber,
		TransactionDate:     t.CompletedAt,
		Status:              string(t.Status),
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}
