package discovery

import (
	"github.com/gin-gonic/gin"

	"github.com/sparkmatch/discovery/internal/app"
	"github.com/sparkmatch/discovery/internal/server"
)

// Registrar ties the discovery service into the HTTP server.
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the discovery service.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the discovery routes to the engine. Every route
// requires a caller identity resolved by the gateway.
func (r *Registrar) Register(engine *gin.Engine) {
	h := NewHandler(NewService(r.appCtx))

	api := engine.Group("/api", server.RequireIdentity())
	{
		api.GET("/discover", h.Discover)
		api.POST("/like", h.Like)
		api.POST("/pass", h.Pass)
		api.GET("/matches", h.Matches)
		api.POST("/favorites", h.AddFavorite)
		api.GET("/favorites", h.ListFavorites)
		api.DELETE("/favorites/:target_id", h.RemoveFavorite)
		api.GET("/liked-you", h.ListAdmirers)
		api.GET("/liked-you/count", h.CountAdmirers)
	}
}
