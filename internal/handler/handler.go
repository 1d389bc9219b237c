// Package handler exposes the prediction service over HTTP.
package handler

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"goldcast/internal/errs"
	"goldcast/internal/service"
	"goldcast/models"
)

type Handler struct {
	svc    *service.Service
	logger zerolog.Logger
}

func New(svc *service.Service) *Handler {
	return &Handler{
		svc:    svc,
		logger: log.With().Str("component", "handler").Logger(),
	}
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(svc *service.Service) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), allowAllCORS())

	h := New(svc)
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.POST("/api/predict", h.Predict)
	return r
}

// allowAllCORS mirrors the permissive CORS policy of the hosted deployment.
func allowAllCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "*")
		c.Header("Access-Control-Allow-Headers", "*")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Gold Price Prediction API is running",
		"status":  "healthy",
		"endpoints": gin.H{
			"predict": "/api/predict",
			"health":  "/health",
		},
	})
}

func (h *Handler) Health(c *gin.Context) {
	if !h.svc.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "starting",
			"ready":  false,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"ready":  true,
	})
}

func (h *Handler) Predict(c *gin.Context) {
	var req models.PredictionRequest
	// ContentLength is -1 for chunked bodies, which still carry overrides
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"kind":    string(errs.KindConfiguration),
				"message": "invalid request body: " + err.Error(),
			})
			return
		}
	}

	result, err := h.svc.Predict(c.Request.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("Prediction failed")
		c.JSON(statusFor(err), gin.H{
			"status":  "error",
			"kind":    string(errs.KindOf(err)),
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindConfiguration:
		if errors.Is(err, fs.ErrNotExist) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	case errs.KindInsufficientHistory:
		return http.StatusUnprocessableEntity
	case errs.KindInference:
		return http.StatusInternalServerError
	case errs.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
