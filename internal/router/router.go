package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"QuestsInvite/internal/handler"
	"QuestsInvite/internal/middleware"
)

func Register(h *server.Hertz) {
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.RequestIDMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	api := h.Group("/api")

	linkClaims := api.Group("/link-claims")
	{
		linkClaims.POST("/start", handler.StartClaim)
		// Registered so the middleware chain runs for preflights; the CORS
		// middleware answers before this handler does.
		linkClaims.OPTIONS("/start", handler.Preflight)
	}
}
