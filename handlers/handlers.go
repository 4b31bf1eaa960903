package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/quanh29/e-sweety-cake-sub000/internal/audit"
	"github.com/quanh29/e-sweety-cake-sub000/internal/auth"
	"github.com/quanh29/e-sweety-cake-sub000/internal/contact"
	"github.com/quanh29/e-sweety-cake-sub000/internal/imports"
	"github.com/quanh29/e-sweety-cake-sub000/internal/orders"
	"github.com/quanh29/e-sweety-cake-sub000/internal/products"
	"github.com/quanh29/e-sweety-cake-sub000/internal/users"
	"github.com/quanh29/e-sweety-cake-sub000/internal/vouchers"
	"github.com/quanh29/e-sweety-cake-sub000/middleware"
)

type Handler struct {
	o        *orders.Conf
	p        *products.Conf
	i        *imports.Conf
	v        *vouchers.Conf
	u        *users.Conf
	cm       *contact.Conf
	audit    *audit.Sink
	authKeys *auth.Keys
	validate *validator.Validate
}

func NewHandler(o *orders.Conf, p *products.Conf, i *imports.Conf, v *vouchers.Conf,
	u *users.Conf, cm *contact.Conf, sink *audit.Sink, authKeys *auth.Keys) *Handler {
	return &Handler{
		o:        o,
		p:        p,
		i:        i,
		v:        v,
		u:        u,
		cm:       cm,
		audit:    sink,
		authKeys: authKeys,
		validate: validator.New(),
	}
}

func API(h *Handler) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m, err := middleware.NewMid(h.authKeys)
	if err != nil {
		panic(err)
	}

	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", HealthCheck)

	// Public storefront surface, no principal resolution.
	r.POST("/orders/public", h.CreatePublicOrder)
	r.GET("/vouchers/validate/:code", h.ValidateVoucher)
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.POST("/users/signup", h.Signup)
	r.POST("/users/login", h.UserLogin)
	r.POST("/contact", h.SubmitContactMessage)

	o := r.Group("/orders")
	{
		o.Use(m.Authentication())
		o.GET("", m.Authorize(h.ListOrders, auth.RoleUser, auth.RoleAdmin))
		o.GET("/:id", m.Authorize(h.GetOrder, auth.RoleUser, auth.RoleAdmin))
		o.POST("", m.Authorize(h.CreateOrder, auth.RoleUser, auth.RoleAdmin))
		o.PUT("/:id", m.Authorize(h.UpdateOrder, auth.RoleUser, auth.RoleAdmin))
		o.PATCH("/:id/status", m.Authorize(h.UpdateOrderStatus, auth.RoleUser, auth.RoleAdmin))
		o.DELETE("/:id", m.Authorize(h.DeleteOrder, auth.RoleUser, auth.RoleAdmin))
	}

	i := r.Group("/imports")
	{
		i.Use(m.Authentication())
		i.GET("", m.Authorize(h.ListEntries, auth.RoleUser, auth.RoleAdmin))
		i.GET("/:id", m.Authorize(h.GetEntry, auth.RoleUser, auth.RoleAdmin))
		i.POST("", m.Authorize(h.CreateEntry, auth.RoleUser, auth.RoleAdmin))
		i.PUT("/:id", m.Authorize(h.UpdateEntry, auth.RoleUser, auth.RoleAdmin))
		i.DELETE("/:id", m.Authorize(h.DeleteEntry, auth.RoleUser, auth.RoleAdmin))
	}

	p := r.Group("/products")
	{
		p.Use(m.Authentication())
		p.POST("", m.Authorize(h.CreateProduct, auth.RoleAdmin))
		p.PUT("/:id", m.Authorize(h.UpdateProduct, auth.RoleAdmin))
		p.DELETE("/:id", m.Authorize(h.DeleteProduct, auth.RoleAdmin))
	}

	v := r.Group("/vouchers")
	{
		v.Use(m.Authentication())
		v.GET("", m.Authorize(h.ListVouchers, auth.RoleAdmin))
		v.POST("", m.Authorize(h.CreateVoucher, auth.RoleAdmin))
		v.PUT("/:code", m.Authorize(h.UpdateVoucher, auth.RoleAdmin))
		v.DELETE("/:code", m.Authorize(h.DeleteVoucher, auth.RoleAdmin))
	}

	a := r.Group("/admin")
	{
		a.Use(m.Authentication())
		a.GET("/users", m.Authorize(h.ListUsers, auth.RoleAdmin))
		a.GET("/contact", m.Authorize(h.ListContactMessages, auth.RoleAdmin))
	}

	return r
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
