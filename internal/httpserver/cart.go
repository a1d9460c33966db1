package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"medusa-storefront/internal/config"
	"medusa-storefront/internal/domain"
	"medusa-storefront/internal/logger"
	"medusa-storefront/internal/medusa"
	"medusa-storefront/internal/service/anonymous"
	cartsvc "medusa-storefront/internal/service/cart"
)

const (
	msgCartUnavailable = "The cart is temporarily unavailable. Please try again."
	msgProductNotFound = "Product not found."
)

// CartSessions hands out the cart container of one anonymous session.
type CartSessions interface {
	Get(sessionID string) *cartsvc.Service
}

type addItemRequest struct {
	VariantID string `json:"variant_id" binding:"required_without=Handle"`
	Handle    string `json:"handle" binding:"required_without=VariantID"`
	Quantity  int    `json:"quantity" binding:"omitempty,min=0"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type cartHandlers struct {
	carts    CartSessions
	sessions *anonymous.Service
	products ProductCatalog
	cookie   config.CartStoreConfig
	logg     *logger.Logger
}

// session resolves the caller's cart session, refreshing the cookie so its
// expiry slides with activity. issued reports a newly minted session.
func (h *cartHandlers) session(c *gin.Context) (id string, issued bool, ctx context.Context) {
	presented, _ := c.Cookie(h.cookie.CookieName)
	id, issued = h.sessions.Resolve(presented)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.CookieName, id, h.sessions.TTLSeconds(), "/", "", h.cookie.SecureOnly, true)

	ctx = h.logg.WithCartSession(c.Request.Context(), id)
	if issued {
		h.logg.Debug(ctx, "cart.session.issued")
	}
	return id, issued, medusa.WithCookieHeader(ctx, c.GetHeader("Cookie"))
}

// container returns the cart container of the caller's session.
func (h *cartHandlers) container(c *gin.Context) (*cartsvc.Service, context.Context) {
	id, _, ctx := h.session(c)
	return h.carts.Get(id), ctx
}

func (h *cartHandlers) get(c *gin.Context) {
	id, issued, ctx := h.session(c)
	if issued {
		// nothing can be stored under a session minted just now
		c.JSON(http.StatusOK, gin.H{"cart": toCartResponse(cartsvc.EmptySnapshot())})
		return
	}
	svc := h.carts.Get(id)
	if _, err := svc.Load(ctx); err != nil {
		h.fail(c, svc, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCartResponse(svc.Snapshot())})
}

func (h *cartHandlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	svc, ctx := h.container(c)

	product := domain.Product{}
	if req.VariantID != "" {
		product.Plans = []domain.ProductPlan{{ID: req.VariantID}}
	} else {
		found, err := h.products.Get(ctx, req.Handle)
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": msgProductNotFound, "cart": toCartResponse(svc.Snapshot())})
			return
		}
		if err != nil {
			h.fail(c, svc, err)
			return
		}
		product = *found
	}

	if err := svc.AddToCart(ctx, product, req.Quantity); err != nil {
		h.fail(c, svc, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCartResponse(svc.Snapshot())})
}

func (h *cartHandlers) updateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	svc, ctx := h.container(c)
	if err := svc.UpdateQuantity(ctx, c.Param("lineID"), *req.Quantity); err != nil {
		h.fail(c, svc, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCartResponse(svc.Snapshot())})
}

func (h *cartHandlers) removeItem(c *gin.Context) {
	svc, ctx := h.container(c)
	if err := svc.RemoveFromCart(ctx, c.Param("lineID")); err != nil {
		h.fail(c, svc, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCartResponse(svc.Snapshot())})
}

func (h *cartHandlers) checkout(c *gin.Context) {
	svc, ctx := h.container(c)
	order, err := svc.Checkout(ctx)
	if err != nil {
		h.fail(c, svc, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order": toOrderResponse(*order),
		"cart":  toCartResponse(svc.Snapshot()),
	})
}

func (h *cartHandlers) clear(c *gin.Context) {
	svc, ctx := h.container(c)
	if err := svc.ClearCart(ctx); err != nil {
		h.fail(c, svc, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCartResponse(svc.Snapshot())})
}

// fail answers with the container's user-facing message and its current
// state, which still holds the last valid cart.
func (h *cartHandlers) fail(c *gin.Context, svc *cartsvc.Service, err error) {
	_ = c.Error(err)
	snap := svc.Snapshot()
	message := snap.Error
	if message == "" {
		message = msgCartUnavailable
	}
	c.JSON(cartErrorStatus(err), gin.H{"message": message, "cart": toCartResponse(snap)})
}

func cartErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyCart), errors.Is(err, domain.ErrNoVariant):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
