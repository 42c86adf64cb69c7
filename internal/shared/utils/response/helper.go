package response

import (
	"net/http"

	"busline/internal/shared/apperrors"
	"busline/pkg/logger"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError renders a domain or infrastructure error with the status its class maps to.
// Internal errors are not echoed to the client and server errors are logged.
func RespondError(c *gin.Context, err error) {
	code := apperrors.HTTPStatus(err)
	message := err.Error()
	if apperrors.ClassOf(err) == apperrors.ClassInternal {
		message = "Internal server error"
	}
	if code >= http.StatusInternalServerError {
		logger.GetDefault().LogHTTPError(c, err, code)
	}
	_ = c.Error(err)
	RespondJSON(c, "error", code, message, nil, ErrorDetail{
		Code:  apperrors.Code(err),
		Class: string(apperrors.ClassOf(err)),
	})
}
