package httpserver

import (
	"net/http"

	"glowloops/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type productListResponse struct {
	Count    int              `json:"count"`
	Products []domain.Product `json:"products"`
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.ProductSvc.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list products", err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, productListResponse{Count: len(products), Products: products})
}

func (h *handlers) getProduct(c *gin.Context) {
	id := c.Param("id")
	p, err := h.deps.ProductSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get product", err, zap.String("product_id", id))
		return
	}
	c.JSON(http.StatusOK, p)
}
