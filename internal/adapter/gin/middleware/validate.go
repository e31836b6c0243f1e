package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"user-management-service/pkg/validation"
)

const payloadKey = "validated_payload"

// Validate binds path params, query string and JSON body into a T and validates it.
// On success the payload is available to the next handler through Payload.
// On failure the request is aborted with 400 and the first violated rule.
func Validate[T any](v *validator.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload T
		if err := bind(c, &payload); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := v.Struct(payload); err != nil {
			message := err.Error()
			if _, first, ok := validation.First(err); ok {
				message = first
			}
			badRequest(c, message)
			return
		}

		c.Set(payloadKey, payload)
		c.Next()
	}
}

// Payload returns the value stored by Validate[T].
func Payload[T any](c *gin.Context) (T, bool) {
	var zero T
	v, ok := c.Get(payloadKey)
	if !ok {
		return zero, false
	}
	p, ok := v.(T)
	if !ok {
		return zero, false
	}
	return p, true
}

func bind(c *gin.Context, dst any) error {
	if len(c.Params) > 0 {
		if err := c.ShouldBindUri(dst); err != nil {
			return err
		}
	}
	if c.Request.URL.RawQuery != "" {
		if err := c.ShouldBindQuery(dst); err != nil {
			return err
		}
	}
	// an empty body validates as a payload with every field missing
	if err := c.ShouldBindBodyWith(dst, binding.JSON); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"status":  "bad request",
		"message": message,
	})
}
