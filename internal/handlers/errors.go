package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/restaurant-orderflow/internal/menu"
	"github.com/imrishuroy/restaurant-orderflow/internal/orders"
)

// errorResponse maps a service error to a status code and JSON body.
func errorResponse(err error) (int, gin.H) {
	var (
		ve *orders.ValidationError
		nf *orders.NotFoundError
		ue *orders.UnavailableError
		fe *orders.ForbiddenError
		ie *orders.InvalidStateError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, gin.H{"error": "validation_failed", "msg": ve.Error()}
	case errors.As(err, &nf):
		return http.StatusNotFound, gin.H{"error": "not_found", "msg": nf.Error()}
	case errors.Is(err, menu.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": "not_found", "msg": err.Error()}
	case errors.As(err, &ue):
		return http.StatusConflict, gin.H{"error": "item_unavailable", "msg": ue.Error(), "menu_item_id": ue.ItemID}
	case errors.As(err, &fe):
		return http.StatusForbidden, gin.H{"error": "forbidden", "msg": fe.Error()}
	case errors.As(err, &ie):
		return http.StatusConflict, gin.H{"error": "invalid_state", "msg": ie.Error(), "status": ie.Status}
	default:
		return http.StatusInternalServerError, gin.H{"error": "internal_error"}
	}
}

func writeError(c *gin.Context, log *slog.Logger, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
	}
	c.JSON(status, body)
}
