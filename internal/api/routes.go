package api

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/", h.index)

	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.GET("/options", h.options)
		api.GET("/qr", qrHandler)

		api.POST("/sessions", h.createSession)
		s := api.Group("/sessions/:id", h.loadSession)
		{
			s.GET("", h.getSession)
			s.PATCH("", h.updateSession)
			s.DELETE("", h.deleteSession)
			s.POST("/days/:day", h.toggleDay)
			s.PUT("/days/:day", h.setTime)
			s.GET("/qr.png", h.sessionQR)
			s.POST("/generate", h.generate)
			s.GET("/preview.png", h.preview)
			s.POST("/export", h.export)
		}
	}
}
