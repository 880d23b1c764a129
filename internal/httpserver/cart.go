package httpserver

import (
	"net/http"

	"glowloops/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// cartResponse is the stored cart document plus its derived totals.
type cartResponse struct {
	domain.CartSnapshot
	Totals domain.Totals `json:"totals"`
}

func newCartResponse(doc domain.CartSnapshot) cartResponse {
	if doc.Items == nil {
		doc.Items = []domain.LineItem{}
	}
	return cartResponse{CartSnapshot: doc, Totals: doc.Totals()}
}

func (h *handlers) getCart(c *gin.Context) {
	cust := currentCustomer(c)
	doc, err := h.deps.CartSvc.GetCart(c.Request.Context(), cust.ID)
	if err != nil {
		h.fail(c, "get cart", err, zap.String("shopper_id", cust.ID))
		return
	}
	c.JSON(http.StatusOK, newCartResponse(*doc))
}

func (h *handlers) putCart(c *gin.Context) {
	cust := currentCustomer(c)
	var doc domain.CartSnapshot
	if err := c.ShouldBindJSON(&doc); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid cart document")
		return
	}
	stored, err := h.deps.CartSvc.PutCart(c.Request.Context(), cust.ID, doc)
	if err != nil {
		h.fail(c, "put cart", err, zap.String("shopper_id", cust.ID))
		return
	}
	c.JSON(http.StatusOK, newCartResponse(*stored))
}

func (h *handlers) fail(c *gin.Context, op string, err error, fields ...zap.Field) {
	status, body, known := domainErrorStatus(err)
	if !known {
		h.logger.Error(op+" failed", append(fields, zap.Error(err))...)
	}
	c.JSON(status, body)
}
