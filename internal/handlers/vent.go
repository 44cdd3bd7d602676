package handlers

import (
	"net/http"

	"vent_controller/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary      Current vent position
// @Tags         vent
// @Produce      application/cbor
// @Success      200  {object}  models.VentPosition
// @Router       /vent/position [get]
func (h *Handler) getPosition(c *gin.Context) {
	h.respondCBOR(c, http.StatusOK, h.services.Vent.Position())
}

// @Summary      Command a new target angle
// @Description  The angle is clamped into the mechanical range; the move
// @Description  intent is durably recorded before the actuator is touched.
// @Tags         vent
// @Accept       application/cbor
// @Produce      application/cbor
// @Success      200  {object}  models.TargetResponse
// @Failure      400  "undecodable payload"
// @Failure      500  "persistence failure, move aborted"
// @Router       /vent/target [put]
func (h *Handler) putTarget(c *gin.Context) {
	var req models.TargetRequest
	if !h.decodeCBOR(c, &req) {
		return
	}

	resp, err := h.services.Vent.SetTarget(c.Request.Context(), req.Angle)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("set_target_failed", "err", err, "angle", req.Angle)
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	h.respondCBOR(c, http.StatusOK, resp)
}
