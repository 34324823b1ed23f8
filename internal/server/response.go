package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error shape every endpoint answers with.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RespondError writes an ErrorBody. err, when non-nil, becomes Details.
func RespondError(c *gin.Context, status int, msg string, err error) {
	body := ErrorBody{Error: msg}
	if err != nil {
		body.Details = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

// RespondOK writes payload as JSON with status 200.
func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
