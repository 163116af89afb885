package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"petshop-service/internal/cart"
	"petshop-service/internal/catalog"
	"petshop-service/internal/checkout"
	"petshop-service/internal/models"
	"petshop-service/internal/store"
	"petshop-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog     *catalog.Store
	admin       *catalog.Admin
	checkout    *checkout.Service
	store       *store.Store
	cartStorage cart.Storage
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalogStore *catalog.Store,
	admin *catalog.Admin,
	checkoutSvc *checkout.Service,
	st *store.Store,
	cartStorage cart.Storage,
) *Handler {
	return &Handler{
		catalog:     catalogStore,
		admin:       admin,
		checkout:    checkoutSvc,
		store:       st,
		cartStorage: cartStorage,
		logger:      util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/webhooks/payment", h.paymentWebhook)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/categories", h.listCategories)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PUT("/cart/items/:productId", h.updateCartItem)
		v1.DELETE("/cart/items/:productId", h.removeCartItem)
		v1.DELETE("/cart", h.clearCart)

		v1.POST("/checkout", h.placeOrder)
		v1.GET("/payment/return", h.paymentReturn)

		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)

		v1.GET("/profile", h.getProfile)
		v1.PUT("/profile", h.updateProfile)

		admin := v1.Group("/admin", h.requireAdmin)
		{
			admin.POST("/products", h.createProduct)
			admin.PUT("/products/:id", h.adminUpdateProduct)
			admin.DELETE("/products/:id", h.deleteProduct)
		}
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Unix()})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready", "time": time.Now().Unix()})
}

// respond writes the {data, error} envelope every endpoint uses.
func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data, "error": nil})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"data": nil, "error": msg})
}

// userID returns the authenticated user set by the fronting proxy.
// Authentication itself is an external collaborator.
func userID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

func sessionID(c *gin.Context) string {
	if sid := c.GetHeader("X-Session-ID"); sid != "" {
		return sid
	}
	return userID(c)
}

func (h *Handler) openCart(c *gin.Context) (*cart.Ledger, bool) {
	sid := sessionID(c)
	if sid == "" {
		respondError(c, http.StatusBadRequest, "missing session")
		return nil, false
	}

	ledger, err := cart.NewLedger(c.Request.Context(), sid, h.cartStorage)
	if err != nil {
		h.logger.Error("Failed to open cart", zap.String("session_id", sid), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load cart")
		return nil, false
	}
	return ledger, true
}

// --- catalog ---

func (h *Handler) listProducts(c *gin.Context) {
	respond(c, http.StatusOK, h.catalog.Products())
}

func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, ok := h.catalog.Product(id)
	if !ok {
		respondError(c, http.StatusNotFound, "product not found")
		return
	}
	respond(c, http.StatusOK, product)
}

func (h *Handler) listCategories(c *gin.Context) {
	respond(c, http.StatusOK, h.catalog.Categories())
}

// --- cart ---

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) getCart(c *gin.Context) {
	ledger, ok := h.openCart(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, ledger.Lines())
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, found := h.catalog.Product(req.ProductID)
	if !found || !product.Active() {
		respondError(c, http.StatusNotFound, "product not found")
		return
	}

	ledger, ok := h.openCart(c)
	if !ok {
		return
	}

	if err := ledger.Add(c.Request.Context(), product, req.Quantity); err != nil {
		h.cartError(c, err)
		return
	}
	respond(c, http.StatusOK, ledger.Lines())
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateCartItem(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ledger, ok := h.openCart(c)
	if !ok {
		return
	}

	if err := ledger.UpdateQuantity(c.Request.Context(), productID, req.Quantity); err != nil {
		h.cartError(c, err)
		return
	}
	respond(c, http.StatusOK, ledger.Lines())
}

func (h *Handler) removeCartItem(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid product ID")
		return
	}

	ledger, ok := h.openCart(c)
	if !ok {
		return
	}

	if err := ledger.Remove(c.Request.Context(), productID); err != nil {
		h.cartError(c, err)
		return
	}
	respond(c, http.StatusOK, ledger.Lines())
}

func (h *Handler) clearCart(c *gin.Context) {
	ledger, ok := h.openCart(c)
	if !ok {
		return
	}

	if err := ledger.Clear(c.Request.Context()); err != nil {
		h.cartError(c, err)
		return
	}
	respond(c, http.StatusOK, ledger.Lines())
}

func (h *Handler) cartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrStockExceeded):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Cart operation failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "cart operation failed")
	}
}

// --- checkout ---

func (h *Handler) placeOrder(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		respondError(c, http.StatusUnauthorized, "missing user")
		return
	}

	ledger, ok := h.openCart(c)
	if !ok {
		return
	}

	placed, err := h.checkout.PlaceOrder(c.Request.Context(), uid, ledger)
	if err != nil {
		var cartErr *checkout.CartInvalidError
		switch {
		case errors.Is(err, checkout.ErrMissingProfile):
			respondError(c, http.StatusUnprocessableEntity, err.Error())
		case errors.As(err, &cartErr):
			c.JSON(http.StatusConflict, gin.H{"data": nil, "error": cartErr.Error(), "problems": cartErr.Problems})
		case errors.Is(err, checkout.ErrPaymentProvider):
			respondError(c, http.StatusBadGateway, err.Error())
		default:
			h.logger.Error("Checkout failed", zap.String("user_id", uid), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "failed to place order")
		}
		return
	}

	respond(c, http.StatusCreated, placed)
}

func (h *Handler) paymentReturn(c *gin.Context) {
	uid := userID(c)
	ref := c.Query("external_reference")
	if ref == "" {
		respond(c, http.StatusOK, gin.H{"target": checkout.TargetHome})
		return
	}

	target, err := h.checkout.Reconcile(c.Request.Context(), ref, uid)
	if err != nil {
		h.logger.Error("Reconciliation failed", zap.String("external_reference", ref), zap.Error(err))
	}
	respond(c, http.StatusOK, gin.H{"target": target})
}

type paymentWebhookRequest struct {
	ExternalReference string `json:"external_reference" binding:"required"`
	Status            string `json:"status" binding:"required"`
}

func (h *Handler) paymentWebhook(c *gin.Context) {
	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid notification body")
		return
	}

	if err := h.checkout.HandlePaymentNotification(c.Request.Context(), req.ExternalReference, req.Status); err != nil {
		h.logger.Error("Failed to apply payment notification",
			zap.String("external_reference", req.ExternalReference),
			zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to process notification")
		return
	}
	respond(c, http.StatusOK, gin.H{"received": true})
}

// --- orders ---

func (h *Handler) listOrders(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		respondError(c, http.StatusUnauthorized, "missing user")
		return
	}

	orders, err := h.store.GetOrdersByUserID(c.Request.Context(), uid)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load orders")
		return
	}
	respond(c, http.StatusOK, orders)
}

func (h *Handler) getOrder(c *gin.Context) {
	uid := userID(c)
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.store.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, http.StatusNotFound, "order not found")
		return
	}
	if order.UserID != uid {
		respondError(c, http.StatusNotFound, "order not found")
		return
	}

	lines, err := h.store.GetOrderLinesByOrderID(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load order lines")
		return
	}

	respond(c, http.StatusOK, gin.H{"order": order, "lines": lines})
}

// --- profile ---

func (h *Handler) getProfile(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		respondError(c, http.StatusUnauthorized, "missing user")
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), uid)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}
	respond(c, http.StatusOK, profile)
}

type updateProfileRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		respondError(c, http.StatusUnauthorized, "missing user")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := h.store.GetProfile(c.Request.Context(), uid)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}

	profile := &models.Profile{
		UserID:  uid,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if existing != nil {
		profile.Role = existing.Role
	}

	if err := h.store.UpsertProfile(c.Request.Context(), profile); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save profile")
		return
	}
	respond(c, http.StatusOK, profile)
}

// --- admin ---

func (h *Handler) requireAdmin(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		respondError(c, http.StatusUnauthorized, "missing user")
		c.Abort()
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), uid)
	if err != nil || profile == nil || profile.Role != "admin" {
		respondError(c, http.StatusForbidden, "admin access required")
		c.Abort()
		return
	}
	c.Next()
}

type productRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	Stock       int    `json:"stock"`
	Status      string `json:"status"`
	Categories  string `json:"categories"`
	Images      string `json:"images"`
}

func (h *Handler) createProduct(c *gin.Context) {
	product, ok := h.bindProduct(c, 0)
	if !ok {
		return
	}

	if err := h.admin.CreateProduct(c.Request.Context(), product); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to create product")
		return
	}
	respond(c, http.StatusCreated, product)
}

func (h *Handler) adminUpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, ok := h.bindProduct(c, id)
	if !ok {
		return
	}

	if err := h.admin.UpdateProduct(c.Request.Context(), product); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to update product")
		return
	}
	respond(c, http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.admin.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete product")
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) bindProduct(c *gin.Context, id int64) (*models.Product, bool) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid price")
		return nil, false
	}
	if req.Stock < 0 {
		respondError(c, http.StatusBadRequest, "stock must not be negative")
		return nil, false
	}
	if req.Status == "" {
		req.Status = models.ProductStatusActive
	}

	return &models.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
		Status:      req.Status,
		Categories:  req.Categories,
		Images:      req.Images,
	}, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
