/*
handlers.go - HTTP API handlers for EPF accounts and the passbook timeline

PURPOSE:
  Exposes the EPF engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the epf package.

ENDPOINTS:
  Accounts:
    GET    /api/users/{userID}/epf                 List accounts (start-date order)
    POST   /api/users/{userID}/epf                 Create account
    GET    /api/users/{userID}/epf/{id}            Get account
    PUT    /api/users/{userID}/epf/{id}            Update account
    DELETE /api/users/{userID}/epf/{id}            Delete account

  Passbook:
    GET    /api/users/{userID}/epf/timeline        Summary + timeline rows
    GET    /api/users/{userID}/epf/ledger          Month-by-month walk
    GET    /api/users/{userID}/epf/timeline.xlsx   Timeline workbook
    All accept ?as_of=YYYY-MM-DD (default today). A future date projects.

  Rates:
    GET    /api/rates                              Current rate policy
    PUT    /api/rates                              Replace per-year rates

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: accounts and stored rates
  - engine: current rate policy, swapped atomically on PUT /api/rates
  - Presenter: en-IN date formatting of engine output

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate shape (validator tags) then business rules (epf.Validate)
  3. Load the user's accounts and run the engine
  4. Present and serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, malformed as_of
  - 404: Account not found (or owned by another user)
  - 409: Duplicate account
  - 500: Internal errors (logged)

SECURITY NOTE:
  User scoping is by path only. Authentication happens upstream.

SEE ALSO:
  - dto.go: Request/response data structures
  - present.go: Date formatting
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/warp/networth/epf"
	"github.com/warp/networth/factory"
	"github.com/warp/networth/generic"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       epf.Store
	RateFactory *factory.RateFactory
	Presenter   Presenter
	Validation  epf.ValidationOptions

	// Now supplies the default as_of.
	Now func() generic.TimePoint

	validate *validator.Validate

	mu     sync.RWMutex
	engine *epf.Engine

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler computing with engine. A nil engine means
// the default flat rate.
func NewHandler(store epf.Store, engine *epf.Engine) *Handler {
	if engine == nil {
		engine = epf.NewEngine()
	}
	return &Handler{
		Store:       store,
		RateFactory: factory.NewRateFactory(),
		Presenter:   IndianPresenter,
		Validation:  epf.ValidationOptions{RejectOverlaps: true},
		Now:         generic.Today,
		validate:    newValidator(),
		engine:      engine,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Engine returns a snapshot of the current rate policy.
func (h *Handler) Engine() *epf.Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e := *h.engine
	return &e
}

func (h *Handler) setRates(rates epf.RateSchedule) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := *h.engine
	e.Rates = rates
	h.engine = &e
}

// LoadRates makes stored per-year rates current. An empty store is seeded
// with the configured schedule instead.
func (h *Handler) LoadRates(ctx context.Context) error {
	stored, err := h.Store.LoadRates(ctx)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		configured := h.Engine().Rates
		if len(configured) == 0 {
			return nil
		}
		return h.Store.SaveRates(ctx, configured)
	}
	h.setRates(stored)
	return nil
}

// =============================================================================
// HEALTH
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports whether the store is reachable.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns a user's accounts in start-date order.
// GET /api/users/{userID}/epf
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListAccounts(r.Context(), userParam(r))
	if err != nil {
		h.internalError(w, r, "Failed to list accounts", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTOs(accounts))
}

// CreateAccount adds an employment.
// POST /api/users/{userID}/epf
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userParam(r)

	var req AccountRequest
	if !h.decode(w, r, &req) {
		return
	}

	account, err := req.toAccount(userID, generic.AccountID(uuid.NewString()))
	if err != nil {
		h.domainError(w, r, "Invalid account", err)
		return
	}
	if err := h.checkSequence(ctx, account); err != nil {
		h.domainError(w, r, "Invalid account", err)
		return
	}

	if err := h.Store.CreateAccount(ctx, account); err != nil {
		h.domainError(w, r, "Failed to create account", err)
		return
	}

	created, err := h.Store.GetAccount(ctx, userID, account.ID)
	if err != nil {
		h.internalError(w, r, "Failed to read created account", err)
		return
	}

	log.Info().
		Str("user_id", string(userID)).
		Str("account_id", string(account.ID)).
		Str("organization", account.OrganizationName).
		Msg("EPF account created")

	writeJSON(w, http.StatusCreated, toAccountDTO(created))
}

// GetAccount returns one account.
// GET /api/users/{userID}/epf/{id}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.Store.GetAccount(r.Context(), userParam(r), accountParam(r))
	if err != nil {
		h.domainError(w, r, "Failed to get account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// UpdateAccount replaces an account's fields.
// PUT /api/users/{userID}/epf/{id}
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, id := userParam(r), accountParam(r)

	if _, err := h.Store.GetAccount(ctx, userID, id); err != nil {
		h.domainError(w, r, "Failed to get account", err)
		return
	}

	var req AccountRequest
	if !h.decode(w, r, &req) {
		return
	}

	account, err := req.toAccount(userID, id)
	if err != nil {
		h.domainError(w, r, "Invalid account", err)
		return
	}
	if err := h.checkSequence(ctx, account); err != nil {
		h.domainError(w, r, "Invalid account", err)
		return
	}

	if err := h.Store.UpdateAccount(ctx, account); err != nil {
		h.domainError(w, r, "Failed to update account", err)
		return
	}

	updated, err := h.Store.GetAccount(ctx, userID, id)
	if err != nil {
		h.internalError(w, r, "Failed to read updated account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(updated))
}

// DeleteAccount removes an account.
// DELETE /api/users/{userID}/epf/{id}
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteAccount(r.Context(), userParam(r), accountParam(r)); err != nil {
		h.domainError(w, r, "Failed to delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkSequence validates the candidate against the user's other
// employments, replacing any stored account with the same ID.
func (h *Handler) checkSequence(ctx context.Context, candidate epf.Account) error {
	if !h.Validation.RejectOverlaps {
		return nil
	}
	existing, err := h.Store.ListAccounts(ctx, candidate.UserID)
	if err != nil {
		return err
	}
	all := make([]epf.Account, 0, len(existing)+1)
	for _, a := range existing {
		if a.ID != candidate.ID {
			all = append(all, a)
		}
	}
	all = append(all, candidate)
	return epf.Validate(all, h.Validation)
}

func (req AccountRequest) toAccount(userID generic.UserID, id generic.AccountID) (epf.Account, error) {
	verr := &generic.ValidationError{AccountID: id}

	start, err := generic.ParseDate(req.StartDate)
	if err != nil {
		verr.Add("startDate", "must be a YYYY-MM-DD date")
	}
	var end *generic.TimePoint
	if req.EndDate != nil && *req.EndDate != "" {
		e, err := generic.ParseDate(*req.EndDate)
		if err != nil {
			verr.Add("endDate", "must be a YYYY-MM-DD date")
		} else {
			end = &e
		}
	}
	if err := verr.OrNil(); err != nil {
		return epf.Account{}, err
	}

	account := epf.Account{
		ID:               id,
		UserID:           userID,
		OrganizationName: strings.TrimSpace(req.OrganizationName),
		EPFAmount:        generic.NewAmountFromDecimal(*req.EPFAmount, generic.INR),
		CreditDay:        req.CreditDay,
		StartDate:        start,
		EndDate:          end,
	}
	return account, epf.ValidateAccount(account)
}

// =============================================================================
// PASSBOOK HANDLERS
// =============================================================================

// GetTimeline returns the passbook summary.
// GET /api/users/{userID}/epf/timeline?as_of=YYYY-MM-DD
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	accounts, asOf, ok := h.loadForCompute(w, r)
	if !ok {
		return
	}
	summary := h.Engine().Timeline(accounts, asOf)
	writeJSON(w, http.StatusOK, h.Presenter.Summary(summary))
}

// GetLedger returns the month-by-month walk behind the timeline.
// GET /api/users/{userID}/epf/ledger?as_of=YYYY-MM-DD
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	accounts, asOf, ok := h.loadForCompute(w, r)
	if !ok {
		return
	}
	entries := h.Engine().Ledger(accounts, asOf)
	writeJSON(w, http.StatusOK, h.Presenter.Ledger(entries))
}

func (h *Handler) loadForCompute(w http.ResponseWriter, r *http.Request) ([]epf.Account, generic.TimePoint, bool) {
	asOf, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
		return nil, asOf, false
	}
	accounts, err := h.Store.ListAccounts(r.Context(), userParam(r))
	if err != nil {
		h.internalError(w, r, "Failed to list accounts", err)
		return nil, asOf, false
	}
	return accounts, asOf, true
}

func (h *Handler) asOf(r *http.Request) (generic.TimePoint, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return h.Now(), nil
	}
	return generic.ParseDate(raw)
}

// =============================================================================
// RATE HANDLERS
// =============================================================================

// GetRates returns the rate policy in use.
// GET /api/rates
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.RateFactory.ToJSON(h.Engine()))
}

// PutRates replaces the per-year schedule. The flat default rate and the
// year boundaries stay as configured.
// PUT /api/rates
func (h *Handler) PutRates(w http.ResponseWriter, r *http.Request) {
	var req factory.RatePolicyJSON
	if !h.decode(w, r, &req) {
		return
	}

	schedule, err := h.RateFactory.Schedule(req.Rates)
	if err != nil {
		h.domainError(w, r, "Invalid rate policy", err)
		return
	}
	if err := h.Store.SaveRates(r.Context(), schedule); err != nil {
		h.internalError(w, r, "Failed to save rates", err)
		return
	}
	h.setRates(schedule)

	log.Info().Ints("financial_years", schedule.Years()).Msg("EPF rate schedule replaced")
	writeJSON(w, http.StatusOK, h.RateFactory.ToJSON(h.Engine()))
}

// =============================================================================
// HELPERS
// =============================================================================

func userParam(r *http.Request) generic.UserID {
	return generic.UserID(chi.URLParam(r, "userID"))
}

func accountParam(r *http.Request) generic.AccountID {
	return generic.AccountID(chi.URLParam(r, "id"))
}

// decode reads a JSON body and runs tag validation, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:  "Validation failed",
				Fields: processValidationErrors(verrs),
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func processValidationErrors(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

// domainError maps epf and store errors to a status code.
func (h *Handler) domainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var verr *generic.ValidationError
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Account not found", err)
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case errors.As(err, &verr):
		resp := ErrorResponse{Error: message, Details: err.Error(), Fields: map[string]string{}}
		for _, f := range verr.Fields {
			resp.Fields[f.Field] = f.Message
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.internalError(w, r, message, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	log.Error().
		Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg(message)
	writeError(w, http.StatusInternalServerError, message, nil)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
