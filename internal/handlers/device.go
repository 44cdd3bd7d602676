package handlers

import (
	"net/http"

	"vent_controller/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary      Device identity
// @Tags         device
// @Produce      application/cbor
// @Success      200  {object}  models.DeviceIdentity
// @Failure      500  "identity resolution failed"
// @Router       /device/identity [get]
func (h *Handler) getIdentity(c *gin.Context) {
	identity, err := h.services.Telemetry.Identity(c.Request.Context())
	if err != nil {
		if h.log != nil {
			h.log.Errorw("identity_failed", "err", err)
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	h.respondCBOR(c, http.StatusOK, identity)
}

// @Summary      Read device config
// @Tags         device
// @Produce      application/cbor
// @Success      200  {object}  models.DeviceConfig
// @Failure      500  "store read failed"
// @Router       /device/config [get]
func (h *Handler) getConfig(c *gin.Context) {
	cfg, err := h.services.DeviceConfig.Get(c.Request.Context())
	if err != nil {
		if h.log != nil {
			h.log.Errorw("config_get_failed", "err", err)
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	h.respondCBOR(c, http.StatusOK, cfg)
}

// @Summary      Update device config
// @Description  Partial update: only fields present in the payload are
// @Description  applied. Returns the full stored config.
// @Tags         device
// @Accept       application/cbor
// @Produce      application/cbor
// @Success      200  {object}  models.DeviceConfig
// @Failure      400  "undecodable payload"
// @Failure      500  "store write failed; earlier fields stay applied"
// @Router       /device/config [put]
func (h *Handler) putConfig(c *gin.Context) {
	var req models.DeviceConfig
	if !h.decodeCBOR(c, &req) {
		return
	}

	full, err := h.services.DeviceConfig.Put(c.Request.Context(), req)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("config_put_failed", "err", err)
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	h.respondCBOR(c, http.StatusOK, full)
}

// @Summary      Device health
// @Tags         device
// @Produce      application/cbor
// @Success      200  {object}  models.DeviceHealth
// @Router       /device/health [get]
func (h *Handler) getHealth(c *gin.Context) {
	h.respondCBOR(c, http.StatusOK, h.services.Telemetry.Health())
}
