package handlers

import (
	"io"
	"net/http"

	"vent_controller/internal/codec"
	"vent_controller/internal/logger"
	"vent_controller/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	contentTypeCBOR = "application/cbor"
	maxPayloadBytes = 256 // device protocol payloads are tiny
)

// Handler wires the HTTP layer to services and logging. The device API
// speaks CBOR; the maintenance surface (logs, liveness) speaks JSON.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	hub      *bridgeHub
}

// NewHandler constructs the HTTP handler and hooks the bridge hub into
// move completions so connected bridge clients get position reports.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	h := &Handler{services: services, log: log, hub: newBridgeHub()}
	if services.Mover != nil {
		services.Mover.OnMoveCompleted(h.hub.broadcastPosition)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Liveness endpoint
	router.GET("/healthz", h.healthz)

	// Binary device protocol
	ventGroup := router.Group("/vent")
	{
		ventGroup.GET("/position", h.getPosition)
		ventGroup.PUT("/target", h.putTarget)
	}
	device := router.Group("/device")
	{
		device.GET("/identity", h.getIdentity)
		device.GET("/config", h.getConfig)
		device.PUT("/config", h.putConfig)
		device.GET("/health", h.getHealth)
	}

	// JSON maintenance surface
	router.GET("/logs", h.getLogs)

	// Secondary control surface (hub bridge) — same port
	router.GET("/bridge", h.bridgeConnect)

	return router
}

// @Summary      Liveness check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondCBOR encodes v and writes it with the given status. An encode
// failure degrades to a bodyless 500.
func (h *Handler) respondCBOR(c *gin.Context, status int, v any) {
	data, err := codec.Marshal(v)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("response_encode_failed", "err", err, "path", c.FullPath())
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, contentTypeCBOR, data)
}

// decodeCBOR reads and decodes the request body into v. On failure it
// writes a bodyless 400 and returns false; handlers must not mutate any
// state after that.
func (h *Handler) decodeCBOR(c *gin.Context, v any) bool {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err == nil {
		err = codec.Unmarshal(body, v)
	}
	if err != nil {
		if h.log != nil {
			h.log.Infow("request_decode_failed", "err", err, "path", c.FullPath())
		}
		c.Status(http.StatusBadRequest)
		return false
	}
	return true
}
