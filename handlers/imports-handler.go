package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quanh29/e-sweety-cake-sub000/internal/imports"
	"github.com/quanh29/e-sweety-cake-sub000/internal/stock"
	"github.com/quanh29/e-sweety-cake-sub000/pkg/ctxmanage"
	"github.com/quanh29/e-sweety-cake-sub000/pkg/logkey"
)

type entryRequest struct {
	ShippingFee int64             `json:"shipping_fee" validate:"min=0"`
	Items       []imports.NewItem `json:"items" validate:"required,min=1,dive"`
}

// CreateEntry records received inventory: every line increases the
// referenced product's stock.
func (h *Handler) CreateEntry(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	req, ok := h.bindEntryRequest(c, traceId)
	if !ok {
		return
	}

	createdBy := actorID(c)
	entry, err := h.i.CreateEntry(c.Request.Context(), imports.NewEntry{
		ShippingFee: req.ShippingFee,
		CreatedBy:   &createdBy,
		Items:       req.Items,
	})
	if err != nil {
		h.respondEntryWriteError(c, traceId, err)
		return
	}

	h.audit.Record(traceId, createdBy, "create", "stock_entry", entry.ID, nil, entry)
	c.JSON(http.StatusCreated, entry)
}

// UpdateEntry replaces the entry's line set, reversing the old deltas and
// applying the new ones.
func (h *Handler) UpdateEntry(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	entryID := c.Param("id")

	req, ok := h.bindEntryRequest(c, traceId)
	if !ok {
		return
	}

	oldEntry, err := h.i.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		if errors.Is(err, imports.ErrEntryNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Stock entry not found"})
			return
		}
		slog.Error("error fetching stock entry", slog.String(logkey.TraceID, traceId), slog.String("EntryID", entryID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stock entry"})
		return
	}

	entry, err := h.i.UpdateEntry(c.Request.Context(), entryID, imports.NewEntry{
		ShippingFee: req.ShippingFee,
		Items:       req.Items,
	})
	if err != nil {
		h.respondEntryWriteError(c, traceId, err)
		return
	}

	h.audit.Record(traceId, actorID(c), "update", "stock_entry", entryID, oldEntry, entry)
	c.JSON(http.StatusOK, entry)
}

// DeleteEntry reverses the entry's stock deltas and removes it.
func (h *Handler) DeleteEntry(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	entryID := c.Param("id")

	oldEntry, err := h.i.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		if errors.Is(err, imports.ErrEntryNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Stock entry not found"})
			return
		}
		slog.Error("error fetching stock entry", slog.String(logkey.TraceID, traceId), slog.String("EntryID", entryID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stock entry"})
		return
	}

	if err := h.i.DeleteEntry(c.Request.Context(), entryID); err != nil {
		if errors.Is(err, imports.ErrEntryNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Stock entry not found"})
			return
		}
		slog.Error("error deleting stock entry", slog.String(logkey.TraceID, traceId), slog.String("EntryID", entryID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete stock entry"})
		return
	}

	h.audit.Record(traceId, actorID(c), "delete", "stock_entry", entryID, oldEntry, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Stock entry deleted successfully"})
}

func (h *Handler) GetEntry(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	entryID := c.Param("id")

	entry, err := h.i.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		if errors.Is(err, imports.ErrEntryNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Stock entry not found"})
			return
		}
		slog.Error("error fetching stock entry", slog.String(logkey.TraceID, traceId), slog.String("EntryID", entryID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stock entry"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) ListEntries(c *gin.Context) {
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

	result, err := h.i.ListEntries(c.Request.Context(), limit, offset)
	if err != nil {
		slog.Error("error listing stock entries", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stock entries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": result})
}

func (h *Handler) bindEntryRequest(c *gin.Context, traceId string) (entryRequest, bool) {
	if c.Request.ContentLength > 64*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId), slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return entryRequest{}, false
	}

	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return entryRequest{}, false
	}

	if err := h.validate.Struct(req); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return entryRequest{}, false
	}
	return req, true
}

func (h *Handler) respondEntryWriteError(c *gin.Context, traceId string, err error) {
	switch {
	case errors.Is(err, imports.ErrNoItems):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Stock entry must have at least one item"})
	case errors.Is(err, stock.ErrProductNotFound):
		slog.Error("unknown product in entry items", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unknown product in entry items"})
	case errors.Is(err, imports.ErrEntryNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Stock entry not found"})
	default:
		slog.Error("error writing stock entry", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to process stock entry"})
	}
}
