package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
)

// UsernameKey is the gin context key holding the authenticated username
const UsernameKey = "username"

// GetUsername extracts the authenticated username from the Gin context
func GetUsername(c *gin.Context) string {
	v, exists := c.Get(UsernameKey)
	if !exists {
		return ""
	}
	username, _ := v.(string)
	return username
}

var errBodyTooLarge = apperror.NewBadRequestError("Request body too large")

// readBody returns the raw request body once it is known to be well-formed JSON
func readBody(c *gin.Context) ([]byte, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, apperror.ErrMalformedBody
	}
	if !json.Valid(raw) {
		return nil, apperror.ErrMalformedBody
	}
	return raw, nil
}

// bindJSON decodes a well-formed JSON body into dst
func bindJSON(c *gin.Context, dst any) error {
	raw, err := readBody(c)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperror.ErrMalformedBody
	}
	return nil
}
