package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/imrishuroy/restaurant-orderflow/internal/history"
	"github.com/imrishuroy/restaurant-orderflow/internal/idempotency"
	"github.com/imrishuroy/restaurant-orderflow/internal/orders"
	"github.com/imrishuroy/restaurant-orderflow/internal/validation"
)

// IdempotencyKeyHeader is the optional client key for POST /orders.
const IdempotencyKeyHeader = "Idempotency-Key"

type ordersHandler struct {
	cfg HandlerConfig
}

// RegisterOrdersRoutes registers routes for order API.
func RegisterOrdersRoutes(r *gin.Engine, cfg HandlerConfig) {
	h := &ordersHandler{cfg: cfg.withDefaults("orders_handler")}

	g := r.Group("/orders", RequireUser())
	g.POST("", h.create)
	g.GET("/my-orders", h.myOrders)
	g.GET("", RequireOperator(), h.list)
	g.GET("/analytics/stats", RequireOperator(), h.analytics)
	g.GET("/:id", h.get)
	g.GET("/:id/history", h.history)
	g.PUT("/:id/status", RequireOperator(), h.updateStatus)
	g.PUT("/:id/cancel", h.cancel)
}

func (h *ordersHandler) create(c *gin.Context) {
	ctx := c.Request.Context()
	who := viewer(c)

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	var req validation.CreateOrderRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		// BindAndValidate already wrote a 400
		return
	}

	in := orders.CreateInput{
		CustomerID: who.UserID,
		Notes:      req.Notes,
		TableID:    req.TableID,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, orders.ItemRequest{MenuItemID: it.MenuItemID, Quantity: it.Quantity})
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	if key != "" && h.cfg.Idempotency != nil {
		// keys are scoped to the caller so two customers cannot collide
		key = who.UserID + "#" + key
		orderID, done := h.claim(c, key, idempotency.Fingerprint(raw), uuid.NewString())
		if done {
			return
		}
		in.OrderID = orderID
	} else {
		key = ""
	}

	order, err := h.cfg.Orders.Create(ctx, in)
	if err != nil && key != "" && errors.Is(err, orders.ErrOrderExists) {
		// an earlier attempt holding the same key got there first
		if existing, gerr := h.cfg.Orders.Get(ctx, in.OrderID, who); gerr == nil {
			h.created(c, key, existing, true)
			return
		}
	}
	if err != nil {
		status, body := errorResponse(err)
		if key != "" {
			if status >= http.StatusInternalServerError {
				// let client retry
				if merr := h.cfg.Idempotency.MarkFailed(ctx, key, err.Error()); merr != nil {
					h.cfg.Log.Warn("mark idempotency failed", "error", merr)
				}
			} else {
				h.complete(c, key, "", status, body)
			}
		}
		writeError(c, h.cfg.Log, err)
		return
	}

	h.created(c, key, order, false)
}

// created writes the 201 for order and records it against key.
func (h *ordersHandler) created(c *gin.Context, key string, order *orders.Order, replayed bool) {
	if key != "" {
		h.complete(c, key, order.OrderID, http.StatusCreated, order)
	}
	if replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	c.Header("Location", fmt.Sprintf("/orders/%s", order.OrderID))
	c.JSON(http.StatusCreated, order)
}

// claim takes the idempotency key or answers the request from the stored record.
// It returns the order id the request must create under, and reports whether a response
// has already been written.
func (h *ordersHandler) claim(c *gin.Context, key, fingerprint, orderID string) (string, bool) {
	ctx := c.Request.Context()

	created, err := h.cfg.Idempotency.CreateIfNotExists(ctx, key, fingerprint, orderID)
	if err != nil {
		writeError(c, h.cfg.Log, fmt.Errorf("claim idempotency key: %w", err))
		return "", true
	}
	if created {
		return orderID, false
	}

	rec, err := h.cfg.Idempotency.Get(ctx, key)
	if err != nil {
		writeError(c, h.cfg.Log, fmt.Errorf("idempotency check: %w", err))
		return "", true
	}
	if rec == nil {
		// expired between the claim and the read
		c.JSON(http.StatusConflict, gin.H{"error": "idempotency_conflict"})
		return "", true
	}
	if rec.Fingerprint != "" && rec.Fingerprint != fingerprint {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency_key_reused", "msg": "key was used with a different request body"})
		return "", true
	}

	switch rec.Status {
	case idempotency.StatusDone:
		c.Header("Idempotent-Replayed", "true")
		if rec.ResponseBody != "" {
			c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
			return "", true
		}
		c.JSON(http.StatusOK, gin.H{"id": rec.OrderID})
		return "", true
	case idempotency.StatusInProgress:
		return h.resume(c, key, rec)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
		return "", true
	}
}

// resume handles a key still marked IN_PROGRESS. The order may already be stored by an
// attempt that never recorded its response, or the attempt may have died before inserting.
func (h *ordersHandler) resume(c *gin.Context, key string, rec *idempotency.IdempotencyRecord) (string, bool) {
	ctx := c.Request.Context()

	if rec.OrderID != "" {
		existing, err := h.cfg.Orders.Get(ctx, rec.OrderID, viewer(c))
		if err == nil {
			h.created(c, key, existing, true)
			return "", true
		}
		var nf *orders.NotFoundError
		if !errors.As(err, &nf) {
			writeError(c, h.cfg.Log, err)
			return "", true
		}
	}

	taken, err := h.cfg.Idempotency.TakeOver(ctx, key)
	if err != nil {
		writeError(c, h.cfg.Log, fmt.Errorf("take over idempotency key: %w", err))
		return "", true
	}
	if taken == nil || taken.OrderID == "" {
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
		return "", true
	}
	h.cfg.Log.Info("resuming abandoned request", "order_id", taken.OrderID)
	return taken.OrderID, false
}

// complete stores the final response for replays. Failures only cost the replay.
func (h *ordersHandler) complete(c *gin.Context, key, orderID string, status int, body any) {
	b, err := json.Marshal(body)
	if err == nil {
		err = h.cfg.Idempotency.MarkDone(c.Request.Context(), key, orderID, string(b), status)
	}
	if err != nil {
		h.cfg.Log.Warn("store idempotent response failed", "order_id", orderID, "error", err)
	}
}

func (h *ordersHandler) myOrders(c *gin.Context) {
	list, err := h.cfg.Orders.ListForCustomer(c.Request.Context(), viewer(c).UserID)
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

func (h *ordersHandler) list(c *gin.Context) {
	r, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "msg": err.Error()})
		return
	}
	list, err := h.cfg.Orders.List(c.Request.Context(), orders.ListFilter{
		Status: orders.Status(c.Query("status")),
		Range:  r,
	})
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

func (h *ordersHandler) analytics(c *gin.Context) {
	r, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "msg": err.Error()})
		return
	}
	stats, err := h.cfg.Orders.Analytics(c.Request.Context(), r)
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ordersHandler) get(c *gin.Context) {
	o, err := h.cfg.Orders.Get(c.Request.Context(), c.Param("id"), viewer(c))
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *ordersHandler) history(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	// same visibility rules as the order itself
	if _, err := h.cfg.Orders.Get(ctx, id, viewer(c)); err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	if h.cfg.History == nil {
		c.JSON(http.StatusOK, []history.Entry{})
		return
	}
	entries, err := h.cfg.History.ListByOrder(ctx, id)
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *ordersHandler) updateStatus(c *gin.Context) {
	var req validation.UpdateStatusRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}
	o, err := h.cfg.Orders.TransitionStatus(c.Request.Context(), c.Param("id"), orders.Status(req.Status))
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *ordersHandler) cancel(c *gin.Context) {
	o, err := h.cfg.Orders.Cancel(c.Request.Context(), c.Param("id"), viewer(c).UserID)
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func nonNil(list []orders.Order) []orders.Order {
	if list == nil {
		return []orders.Order{}
	}
	return list
}
