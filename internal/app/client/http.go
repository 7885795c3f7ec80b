package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tableside/internal/billing"
	"tableside/internal/cart"
	"tableside/internal/domain"
	"tableside/internal/order"
	"tableside/internal/session"
)

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /session", a.handleSession)
	mux.HandleFunc("POST /session/table", a.handleSelectTable)

	mux.HandleFunc("GET /menu", a.handleMenu)
	mux.HandleFunc("GET /menu/search", a.handleMenuSearch)

	mux.HandleFunc("GET /cart", a.handleCart)
	mux.HandleFunc("POST /cart/items", a.handleAddItem)
	mux.HandleFunc("PATCH /cart/items/{id}", a.handleSetQuantity)

	mux.HandleFunc("POST /orders", a.handleSubmit)
	mux.HandleFunc("GET /orders", a.handleHistory)

	mux.HandleFunc("GET /bill", a.handleBill)
	mux.HandleFunc("POST /bill/finalize", a.handleFinalize)

	mux.HandleFunc("POST /service-requests", a.handleServiceRequest)

	return mux
}

func (a *App) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, err := a.sessions.GetOrCreate(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	// A table carried in the shareable URL is canonical when valid.
	if raw := r.URL.Query().Get("table"); raw != "" {
		if err := a.sessions.DetectTable(ctx, raw); err != nil && !errors.Is(err, session.ErrInvalidTable) {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		s, _ = a.sessions.Current()
	}

	history := a.pipeline.History()
	itemsOrdered, sessionTotal := a.cart.ItemCount(), a.cart.Total()
	for _, o := range history {
		itemsOrdered += o.ItemCount()
		sessionTotal += o.Total
	}

	writeJSON(w, http.StatusOK, domain.SessionResponse{
		SessionID:      s.ID,
		TableNumber:    s.TableNumber,
		Active:         s.Active,
		ElapsedSeconds: int(a.sessions.Elapsed() / time.Second),
		OrdersPlaced:   len(history),
		ItemsOrdered:   itemsOrdered,
		SessionTotal:   sessionTotal,
	})
}

func (a *App) handleSelectTable(w http.ResponseWriter, r *http.Request) {
	var req domain.SelectTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	if err := a.sessions.SetTableNumber(r.Context(), req.TableNumber); err != nil {
		if errors.Is(err, session.ErrInvalidTable) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleMenu(w http.ResponseWriter, r *http.Request) {
	if err := a.cache.Err(); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	grouped := make(map[string][]domain.MenuItem)
	for _, cat := range a.cache.Categories() {
		if items := a.cache.ItemsByCategory(cat); len(items) > 0 {
			grouped[cat] = items
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories":  a.cache.Categories(),
		"items":       grouped,
		"recommended": a.cache.Recommended(),
		"loaded":      a.cache.Loaded(),
	})
}

func (a *App) handleMenuSearch(w http.ResponseWriter, r *http.Request) {
	if err := a.cache.Err(); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	const maxSuggestions = 5
	writeJSON(w, http.StatusOK, a.cache.Search(r.URL.Query().Get("q"), maxSuggestions))
}

func (a *App) handleCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.CartResponse{
		Lines:     a.cart.Lines(),
		Total:     a.cart.Total(),
		ItemCount: a.cart.ItemCount(),
	})
}

func (a *App) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req domain.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	if err := a.cart.Add(r.Context(), req.ItemID); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.CartResponse{
		Lines:     a.cart.Lines(),
		Total:     a.cart.Total(),
		ItemCount: a.cart.ItemCount(),
	})
}

func (a *App) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	var req domain.SetQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	if err := a.cart.SetQuantity(r.Context(), r.PathValue("id"), req.Quantity); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.CartResponse{
		Lines:     a.cart.Lines(),
		Total:     a.cart.Total(),
		ItemCount: a.cart.ItemCount(),
	})
}

func (a *App) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s, ok := a.sessions.Current()
	if !ok {
		writeError(w, http.StatusConflict, errors.New("no active session"))
		return
	}
	o, err := a.pipeline.Submit(r.Context(), a.cart, s)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyCart), errors.Is(err, order.ErrNoTable):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, order.ErrSubmissionInProgress):
			writeError(w, http.StatusConflict, err)
		case errors.Is(err, order.ErrSubmissionFailed):
			writeError(w, http.StatusBadGateway, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, domain.SubmitOrderResponse{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Total:       o.Total,
	})
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.pipeline.History())
}

func (a *App) handleBill(w http.ResponseWriter, r *http.Request) {
	s, ok := a.sessions.Current()
	if !ok {
		writeError(w, http.StatusConflict, errors.New("no active session"))
		return
	}
	bill := billing.Calculate(s, a.pipeline.History(), time.Now())
	writeJSON(w, http.StatusOK, domain.BillResponse{Bill: bill, ShareText: billing.ShareText(bill)})
}

func (a *App) handleFinalize(w http.ResponseWriter, r *http.Request) {
	s, ok := a.sessions.Current()
	if !ok {
		writeError(w, http.StatusConflict, errors.New("no active session"))
		return
	}
	bill, err := billing.Finalize(r.Context(), a.sessions, s, a.pipeline.History(), time.Now())
	if err != nil {
		if errors.Is(err, billing.ErrNothingToBill) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.pipeline.Reset()
	a.cart.Reset()
	a.lg.Info("session_finalized", map[string]any{"session_id": s.ID, "total": bill.Total})
	writeJSON(w, http.StatusOK, domain.BillResponse{Bill: bill, ShareText: billing.ShareText(bill)})
}

func (a *App) handleServiceRequest(w http.ResponseWriter, r *http.Request) {
	var req domain.ServiceCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	s, ok := a.sessions.Current()
	if !ok {
		writeError(w, http.StatusConflict, errors.New("no active session"))
		return
	}
	sr, err := a.pipeline.RequestService(r.Context(), s, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNoTable):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, order.ErrSubmissionFailed):
			writeError(w, http.StatusBadGateway, err)
		default:
			writeError(w, http.StatusBadRequest, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, sr)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, domain.ErrorResponse{Error: err.Error()})
}
