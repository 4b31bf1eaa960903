package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quanh29/e-sweety-cake-sub000/internal/vouchers"
	"github.com/quanh29/e-sweety-cake-sub000/pkg/ctxmanage"
	"github.com/quanh29/e-sweety-cake-sub000/pkg/logkey"
)

// ValidateVoucher is the public advisory check used by the storefront before
// checkout. Order creation re-validates inside its own transaction.
func (h *Handler) ValidateVoucher(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	code := c.Param("code")

	voucher, verdict, err := h.v.CheckRedeemable(c.Request.Context(), code, time.Now().UTC())
	if err != nil {
		slog.Error("error checking voucher", slog.String(logkey.TraceID, traceId), slog.String("Code", code), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate voucher"})
		return
	}

	if !verdict.Redeemable {
		status := http.StatusConflict
		if verdict.Reason == vouchers.ReasonNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"valid": false, "message": string(verdict.Reason)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":         true,
		"code":          voucher.Code,
		"discount_type": voucher.DiscountType,
		"value":         voucher.Value,
	})
}

func (h *Handler) CreateVoucher(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var nv vouchers.NewVoucher
	if err := c.ShouldBindJSON(&nv); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	if err := h.validate.Struct(nv); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	voucher, err := h.v.InsertVoucher(c.Request.Context(), nv)
	if err != nil {
		if errors.Is(err, vouchers.ErrDuplicateCode) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Voucher code already exists"})
			return
		}
		slog.Error("error creating voucher", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Voucher creation failed"})
		return
	}

	h.audit.Record(traceId, actorID(c), "create", "voucher", voucher.Code, nil, voucher)
	c.JSON(http.StatusCreated, voucher)
}

func (h *Handler) UpdateVoucher(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	code := c.Param("code")

	var nv vouchers.NewVoucher
	if err := c.ShouldBindJSON(&nv); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}
	nv.Code = code

	if err := h.validate.Struct(nv); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	voucher, err := h.v.UpdateVoucher(c.Request.Context(), code, nv)
	if err != nil {
		if errors.Is(err, vouchers.ErrVoucherNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Voucher not found"})
			return
		}
		slog.Error("error updating voucher", slog.String(logkey.TraceID, traceId), slog.String("Code", code), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Voucher update failed"})
		return
	}

	h.audit.Record(traceId, actorID(c), "update", "voucher", voucher.Code, nil, voucher)
	c.JSON(http.StatusOK, voucher)
}

func (h *Handler) DeleteVoucher(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	code := c.Param("code")

	if err := h.v.DeleteVoucher(c.Request.Context(), code); err != nil {
		if errors.Is(err, vouchers.ErrVoucherNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Voucher not found"})
			return
		}
		slog.Error("error deleting voucher", slog.String(logkey.TraceID, traceId), slog.String("Code", code), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Voucher deletion failed"})
		return
	}

	h.audit.Record(traceId, actorID(c), "delete", "voucher", code, nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Voucher deleted successfully"})
}

func (h *Handler) ListVouchers(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	result, err := h.v.ListVouchers(c.Request.Context())
	if err != nil {
		slog.Error("error listing vouchers", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vouchers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": result})
}
