package httpserver

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medusa-storefront/internal/config"
	"medusa-storefront/internal/logger"
	"medusa-storefront/internal/metrics"
	"medusa-storefront/internal/service/anonymous"
)

const defaultCartCookie = "sf_cart_session"

// Deps groups the services the routes depend on.
type Deps struct {
	Auth     AuthForwarder
	Carts    CartSessions
	Products ProductCatalog
	Content  ContentFetcher
	// Sessions issues cart session ids; built from CartStore.SessionTTL when nil.
	Sessions *anonymous.Service
	// CartRepo backs /readyz.
	CartRepo Pinger
	Metrics  *metrics.Metrics
	// Gatherer enables /metrics when set.
	Gatherer  prometheus.Gatherer
	CORS      config.CORSConfig
	CartStore config.CartStoreConfig
	DraftMode bool
	// PreviewSecret guards /api/draft; draft cookies are rejected when empty.
	PreviewSecret string
	PreviewTTL    time.Duration
}

func (d Deps) validate() error {
	var errs []error
	if d.Auth == nil {
		errs = append(errs, errors.New("auth forwarder is required"))
	}
	if d.Carts == nil {
		errs = append(errs, errors.New("cart sessions are required"))
	}
	if d.Products == nil {
		errs = append(errs, errors.New("product catalog is required"))
	}
	if d.Content == nil {
		errs = append(errs, errors.New("content fetcher is required"))
	}
	return errors.Join(errs...)
}

// buildRouter wires routes for the API.
func buildRouter(logg *logger.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logg == nil {
		logg = logger.Discard()
	}
	if deps.CartStore.CookieName == "" {
		deps.CartStore.CookieName = defaultCartCookie
	}
	if deps.Sessions == nil {
		deps.Sessions = anonymous.New(deps.CartStore.SessionTTL)
	}
	useJSONFieldNames()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(logg), accessLog(logg), observe(deps.Metrics))
	if mw := corsMiddleware(deps.CORS); mw != nil {
		router.Use(mw)
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.CartRepo))
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{
			Timeout: 5 * time.Second,
		})))
	}

	api := router.Group("/api", limitBody(maxBodyBytes))

	auth := &authHandlers{backend: deps.Auth, logg: logg}
	authGroup := api.Group("/auth")
	authGroup.POST("/login", auth.login)
	authGroup.POST("/register", auth.register)
	authGroup.POST("/logout", auth.logout)
	authGroup.GET("/me", auth.me)

	carts := &cartHandlers{
		carts:    deps.Carts,
		sessions: deps.Sessions,
		products: deps.Products,
		cookie:   deps.CartStore,
		logg:     logg,
	}
	api.GET("/cart", carts.get)
	api.DELETE("/cart", carts.clear)
	api.POST("/cart/items", carts.addItem)
	api.PATCH("/cart/items/:lineID", carts.updateItem)
	api.DELETE("/cart/items/:lineID", carts.removeItem)
	api.POST("/cart/checkout", carts.checkout)

	drafts := newDraftGate(deps.PreviewSecret, deps.PreviewTTL, deps.CartStore.SecureOnly)
	api.GET("/draft", drafts.enable)
	api.DELETE("/draft", drafts.disable)

	catalog := &catalogHandlers{
		products:  deps.Products,
		content:   deps.Content,
		draftMode: deps.DraftMode,
		drafts:    drafts,
	}
	api.GET("/products", catalog.listProducts)
	api.GET("/products/:handle", catalog.getProduct)
	api.GET("/collections", catalog.listCollections)
	api.GET("/content/:contentType", catalog.getContent)

	return router, nil
}
