package handlers

import (
	"errors"
	"strings"

	"directed/internal/middleware"
	contextutils "directed/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// HandleAppError writes err as a structured JSON error
func HandleAppError(c *gin.Context, err error) {
	_ = c.Error(err)
	middleware.HandleAppError(c, err)
}

// HandleBindError reports a request body or query that failed binding as INVALID_INPUT
func HandleBindError(c *gin.Context, err error) {
	var msgs []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			msgs = append(msgs, strings.ToLower(fe.Field())+": "+fe.Tag())
		}
	} else {
		msgs = []string{err.Error()}
	}

	appErr := contextutils.NewAppError(
		contextutils.ErrorCodeInvalidInput,
		contextutils.SeverityWarn,
		"Invalid request",
		strings.Join(msgs, "; "),
	).WithData(map[string]interface{}{"errors": msgs})
	HandleAppError(c, appErr)
}
