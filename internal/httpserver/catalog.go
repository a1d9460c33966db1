package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medusa-storefront/internal/cms"
	"medusa-storefront/internal/domain"
)

const msgCatalogUnavailable = "The product catalog is temporarily unavailable."

// ProductCatalog serves product projections.
type ProductCatalog interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, handle string) (*domain.Product, error)
	Collections(ctx context.Context) ([]domain.ProductCollection, error)
	Featured(ctx context.Context, n int) ([]domain.Product, error)
}

// ContentFetcher reads CMS documents.
type ContentFetcher interface {
	Fetch(ctx context.Context, req cms.Request) (json.RawMessage, error)
}

type catalogHandlers struct {
	products  ProductCatalog
	content   ContentFetcher
	draftMode bool
	drafts    *draftGate
}

func (h *catalogHandlers) listProducts(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		products []domain.Product
		err      error
	)
	if raw, ok := c.GetQuery("featured"); ok {
		n, convErr := strconv.Atoi(raw)
		if raw != "" && convErr != nil {
			writeMessage(c, http.StatusBadRequest, "featured must be a number")
			return
		}
		products, err = h.products.Featured(ctx, n)
	} else {
		products, err = h.products.List(ctx)
	}
	if err != nil {
		_ = c.Error(err)
		writeMessage(c, http.StatusBadGateway, msgCatalogUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": toProductResponses(products)})
}

func (h *catalogHandlers) getProduct(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("handle"))
	if errors.Is(err, domain.ErrNotFound) {
		writeMessage(c, http.StatusNotFound, msgProductNotFound)
		return
	}
	if err != nil {
		_ = c.Error(err)
		writeMessage(c, http.StatusBadGateway, msgCatalogUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": toProductResponse(*product)})
}

func (h *catalogHandlers) listCollections(c *gin.Context) {
	collections, err := h.products.Collections(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		writeMessage(c, http.StatusBadGateway, msgCatalogUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": toCollections(collections)})
}

// getContent relays a CMS document. Failures still answer 200 with the empty
// fallback document so pages render without content. Draft content needs
// the configured toggle or a signed draft cookie.
func (h *catalogHandlers) getContent(c *gin.Context) {
	draft := h.draftMode || h.drafts.active(c)
	doc, err := h.content.Fetch(c.Request.Context(), cms.Request{
		ContentType: c.Param("contentType"),
		Params:      cms.ParamsFromValues(c.Request.URL.Query(), "spread", "status"),
		Draft:       draft,
		Spread:      c.Query("spread") == "true",
	})
	if err != nil {
		_ = c.Error(err)
	}
	c.Data(http.StatusOK, gin.MIMEJSON, doc)
}
