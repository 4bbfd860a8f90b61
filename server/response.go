package server

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/pageiter/errors"
)

// RespondWithError writes err as a JSON problem body. AppErrors keep their
// status; anything else becomes a 500.
func RespondWithError(c *gin.Context, err error) {
	appErr := errors.FromError(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
