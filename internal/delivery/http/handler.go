package httpd

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/Candy2803/mpesa/internal/mpesa"
	"github.com/Candy2803/mpesa/internal/repository"
	"github.com/Candy2803/mpesa/internal/usecase"
)

type Handler struct {
	stk       *usecase.STKPushUsecase
	reconcile *usecase.ReconcileUsecase
	store     usecase.Store
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewHandler(stk *usecase.STKPushUsecase, reconcile *usecase.ReconcileUsecase, store usecase.Store, logger *slog.Logger) *Handler {
	return &Handler{
		stk:       stk,
		reconcile: reconcile,
		store:     store,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(RequestLogger(h.logger))

	r.Post("/stkpush", h.InitiateSTKPush)
	r.Post("/callback", h.HandleCallback)
	r.Get("/transactions/{ownerId}", h.ListTransactions)
	r.Get("/transaction/{id}", h.GetTransaction)
	r.Get("/healthz", h.Healthz)

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) InitiateSTKPush(w http.ResponseWriter, r *http.Request) {
	var req STKPushReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Phone number and amount are required"})
		return
	}

	res, err := h.stk.Initiate(r.Context(), usecase.InitiateInput{
		PhoneNumber: req.PhoneNumber,
		Amount:      req.Amount,
		Reference:   req.Reference,
		Description: req.Description,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		h.writeInitiateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, STKPushResp{
		Success:       true,
		Message:       "STK Push initiated successfully",
		Data:          res.Ack,
		TransactionID: res.TransactionID,
	})
}

func (h *Handler) writeInitiateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrMissingField):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Phone number and amount are required"})
	case errors.Is(err, mpesa.ErrInvalidPhone):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, repository.ErrDuplicate):
		writeJSON(w, http.StatusConflict, failResp{
			Success: false,
			Message: "Transaction already initiated",
			Error:   "Duplicate transaction request",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, failResp{
			Success: false,
			Message: "Failed to initiate STK Push",
			Error:   err.Error(),
		})
	}
}

// HandleCallback receives the gateway's asynchronous result. The gateway
// retries on anything that is not a success response, so every outcome
// except a malformed envelope and an unreconcilable successful payment
// acknowledges with 200.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	var env mpesa.CallbackEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid callback data"})
		return
	}

	res := h.reconcile.Reconcile(r.Context(), &env)

	switch res.Ack {
	case usecase.AckMalformed:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid callback data"})
	case usecase.AckNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Transaction not found and recovery not possible"})
	default:
		writeJSON(w, http.StatusOK, callbackResp{Success: true})
	}
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerId")
	if ownerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner id is required"})
		return
	}

	items, err := h.store.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, failResp{
			Success: false,
			Message: "Failed to fetch transactions",
			Error:   err.Error(),
		})
		return
	}

	out := make([]TxItem, 0, len(items))
	for _, t := range items {
		out = append(out, toTxItem(t))
	}

	writeJSON(w, http.StatusOK, listResp{Success: true, Count: len(out), Data: out})
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, failResp{
				Success: false,
				Message: "Transaction not found",
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, failResp{
			Success: false,
			Message: "Failed to fetch transaction",
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, getResp{Success: true, Data: toTxItem(*t)})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
