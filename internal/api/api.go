package api

import (
	"net/http"

	evaluationHandler "fulfillment-server/internal/evaluation/handler"

	"github.com/gin-gonic/gin"
)

type API struct {
	router            *gin.RouterGroup
	evaluationHandler evaluationHandler.Handler
}

func New(router *gin.RouterGroup, evaluationHandler evaluationHandler.Handler) API {
	return API{
		router:            router,
		evaluationHandler: evaluationHandler,
	}
}

func (a *API) RegisterRoutes() {
	a.Health()
	apiGroup := a.router.Group("/api")
	{
		apiGroup.POST("/events", a.evaluationHandler.HandleEvent)
	}
}

func (a *API) Health() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
}
