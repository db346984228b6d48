package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/whisperd/errors"
)

// RespondWithError writes err as {"detail": ...}. AppErrors carry their own
// status; anything else is a 500 with err.Error() as the detail.
func RespondWithError(c *gin.Context, err error) {
	status, body := apperrors.Resolve(err)
	c.AbortWithStatusJSON(status, body)
}

// RespondOK sends a 200 response with body as-is.
func RespondOK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}
