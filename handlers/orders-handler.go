package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quanh29/e-sweety-cake-sub000/internal/auth"
	"github.com/quanh29/e-sweety-cake-sub000/internal/orders"
	"github.com/quanh29/e-sweety-cake-sub000/internal/stock"
	"github.com/quanh29/e-sweety-cake-sub000/pkg/ctxmanage"
	"github.com/quanh29/e-sweety-cake-sub000/pkg/logkey"
)

type orderRequest struct {
	CustomerName    string           `json:"customer_name" validate:"required"`
	CustomerPhone   string           `json:"customer_phone" validate:"required"`
	CustomerAddress string           `json:"customer_address" validate:"required"`
	Note            string           `json:"note"`
	ShippingFee     int64            `json:"shipping_fee" validate:"min=0"`
	VoucherCode     *string          `json:"voucher_code"`
	Status          string           `json:"status"`
	Items           []orders.NewItem `json:"items" validate:"required,min=1,dive"`
}

// CreatePublicOrder is the unauthenticated storefront checkout. The status
// is forced to pending and created-by stays null.
func (h *Handler) CreatePublicOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	req, ok := h.bindOrderRequest(c, traceId)
	if !ok {
		return
	}

	order, err := h.o.CreateOrder(c.Request.Context(), orders.NewOrder{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		Note:            req.Note,
		ShippingFee:     req.ShippingFee,
		VoucherCode:     req.VoucherCode,
		Status:          orders.StatusPending,
		Items:           req.Items,
	})
	if err != nil {
		h.respondOrderWriteError(c, traceId, err)
		return
	}

	h.audit.Record(traceId, "", "create", "order", order.ID, nil, order)
	h.audit.OrderCreated(traceId, order.ID, order.Total)
	c.JSON(http.StatusCreated, order)
}

// CreateOrder is the authenticated variant: created-by is the caller and an
// initial status may be supplied, defaulting to pending.
func (h *Handler) CreateOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	req, ok := h.bindOrderRequest(c, traceId)
	if !ok {
		return
	}

	status := orders.StatusPending
	if req.Status != "" {
		parsed, err := orders.ParseInitialStatus(req.Status)
		if err != nil {
			slog.Error("invalid initial status", slog.String(logkey.TraceID, traceId), slog.String("Status", req.Status))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid initial status"})
			return
		}
		status = parsed
	}

	createdBy := claims.Subject
	order, err := h.o.CreateOrder(c.Request.Context(), orders.NewOrder{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		Note:            req.Note,
		ShippingFee:     req.ShippingFee,
		VoucherCode:     req.VoucherCode,
		Status:          status,
		CreatedBy:       &createdBy,
		Items:           req.Items,
	})
	if err != nil {
		h.respondOrderWriteError(c, traceId, err)
		return
	}

	h.audit.Record(traceId, claims.Subject, "create", "order", order.ID, nil, order)
	h.audit.OrderCreated(traceId, order.ID, order.Total)
	c.JSON(http.StatusCreated, order)
}

// ListOrders returns orders with computed totals.
func (h *Handler) ListOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid offset parameter"})
		return
	}

	result, err := h.o.ListOrders(c.Request.Context(), limit, offset)
	if err != nil {
		slog.Error("error listing orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": result})
}

func (h *Handler) GetOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	orderID := c.Param("id")

	order, err := h.o.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error fetching order", slog.String(logkey.TraceID, traceId), slog.String("OrderID", orderID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder replaces the order's customer fields and line set. Status is
// not changed by this endpoint.
func (h *Handler) UpdateOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	orderID := c.Param("id")

	req, ok := h.bindOrderRequest(c, traceId)
	if !ok {
		return
	}

	oldOrder, err := h.o.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error fetching order", slog.String(logkey.TraceID, traceId), slog.String("OrderID", orderID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	order, err := h.o.UpdateOrder(c.Request.Context(), orderID, orders.UpdateOrder{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		Note:            req.Note,
		ShippingFee:     req.ShippingFee,
		VoucherCode:     req.VoucherCode,
		Items:           req.Items,
	})
	if err != nil {
		h.respondOrderWriteError(c, traceId, err)
		return
	}

	h.audit.Record(traceId, actorID(c), "update", "order", orderID, oldOrder, order)
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus moves the order through the status enum, triggering the
// stock restore on cancellation and the sales marker on confirmation.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	orderID := c.Param("id")

	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	newStatus, err := orders.ParseStatus(req.Status)
	if err != nil {
		slog.Error("invalid status value", slog.String(logkey.TraceID, traceId), slog.String("Status", req.Status))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid status value"})
		return
	}

	err = h.o.UpdateOrderStatus(c.Request.Context(), orderID, newStatus, actorID(c))
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error updating order status", slog.String(logkey.TraceID, traceId), slog.String("OrderID", orderID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		return
	}

	h.audit.Record(traceId, actorID(c), "update-status", "order", orderID, nil, gin.H{"status": newStatus})
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully"})
}

// DeleteOrder removes the order, restoring stock unless already cancelled.
func (h *Handler) DeleteOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	orderID := c.Param("id")

	oldOrder, err := h.o.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error fetching order", slog.String(logkey.TraceID, traceId), slog.String("OrderID", orderID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	if err := h.o.DeleteOrder(c.Request.Context(), orderID); err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error deleting order", slog.String(logkey.TraceID, traceId), slog.String("OrderID", orderID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	h.audit.Record(traceId, actorID(c), "delete", "order", orderID, oldOrder, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}

func (h *Handler) bindOrderRequest(c *gin.Context, traceId string) (orderRequest, bool) {
	if c.Request.ContentLength > 64*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId), slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return orderRequest{}, false
	}

	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return orderRequest{}, false
	}

	if err := h.validate.Struct(req); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return orderRequest{}, false
	}
	return req, true
}

// respondOrderWriteError maps the order write error taxonomy onto HTTP
// statuses: validation 400, not found 404, voucher conflicts 409, the rest
// 500 after rollback.
func (h *Handler) respondOrderWriteError(c *gin.Context, traceId string, err error) {
	switch {
	case errors.Is(err, orders.ErrNoItems):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Order must have at least one item"})
	case errors.Is(err, orders.ErrInvalidStatus):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid initial status"})
	case errors.Is(err, stock.ErrProductNotFound):
		slog.Error("unknown product in order items", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unknown product in order items"})
	case errors.Is(err, orders.ErrVoucherNotRedeemable):
		slog.Error("voucher rejected", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrOrderNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	default:
		slog.Error("error writing order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to process order"})
	}
}

// actorID returns the authenticated principal's id, or empty for public
// callers.
func actorID(c *gin.Context) string {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		return ""
	}
	return claims.Subject
}
