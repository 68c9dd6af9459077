package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/consult-booking-api/internal/models"
	appErrors "github.com/noah-isme/consult-booking-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data      interface{}            `json:"data,omitempty"`
	Error     *appErrors.Error       `json:"error,omitempty"`
	Conflicts []models.Conflict      `json:"conflicts,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Conflicts responds with HTTP 409 carrying the conflict list; no write
// has happened when this is sent.
func Conflicts(c *gin.Context, conflicts []models.Conflict) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(http.StatusConflict, Envelope{
		Error:     appErrors.Clone(appErrors.ErrConflict, "booking request conflicts with existing state"),
		Conflicts: conflicts,
	})
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
