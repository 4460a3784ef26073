package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeaderBillingSecret carries the shared secret agreed with the
// billing provider.
const HeaderBillingSecret = "X-Billing-Secret"

func (s *Server) AssignPlan(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.billingSvc.AssignPlan(c.Request.Context(), c.GetHeader(HeaderBillingSecret), payload); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "ok"}})
}
