// Package api exposes the JSON API and the offline-cached static app.
package api

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mihrab-app/mihrab/internal/almanac"
	"github.com/mihrab-app/mihrab/internal/content"
	"github.com/mihrab-app/mihrab/internal/engine"
	"github.com/mihrab-app/mihrab/internal/resolve"
	"github.com/mihrab-app/mihrab/internal/tracker"
	"github.com/rs/zerolog"
)

// StatusSource is the engine surface the handlers need.
type StatusSource interface {
	Status() engine.Status
	Next() (resolve.Resolution, error)
	Refresh(ctx context.Context)
}

// Controller bundles the handler dependencies.
type Controller struct {
	logger  zerolog.Logger
	engine  StatusSource
	tracker *tracker.Tracker
	library *content.Library
	tasbih  *almanac.Tasbih
}

// NewController constructs the API controller.
func NewController(logger zerolog.Logger, eng StatusSource, tr *tracker.Tracker, lib *content.Library) *Controller {
	return &Controller{
		logger:  logger,
		engine:  eng,
		tracker: tr,
		library: lib,
		tasbih:  almanac.NewTasbih(0),
	}
}

// NewRouter builds the gin engine: CORS, the /api routes, and the static
// app behind the offline cache handler.
func NewRouter(ctl *Controller, static http.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: false,
	}))

	api := router.Group("/api")
	{
		api.GET("/status", ctl.getStatus)
		api.GET("/timings", ctl.getTimings)
		api.GET("/next", ctl.getNext)
		api.POST("/refresh", ctl.postRefresh)

		api.GET("/tracker", ctl.getTracker)
		api.POST("/tracker/:name/toggle", ctl.toggleTracker)

		api.GET("/hijri", ctl.getHijri)
		api.GET("/qibla", ctl.getQibla)
		api.POST("/zakat", ctl.postZakat)

		api.GET("/tasbih", ctl.getTasbih)
		api.POST("/tasbih/increment", ctl.incrementTasbih)
		api.POST("/tasbih/reset", ctl.resetTasbih)

		contentGroup := api.Group("/content")
		{
			contentGroup.GET("/hadith", ctl.getRandomHadith)
			contentGroup.GET("/hadiths", ctl.getHadiths)
			contentGroup.GET("/duas", ctl.getDuas)
			contentGroup.GET("/surahs", ctl.getSurahs)
			contentGroup.GET("/surahs/:number", ctl.getSurah)
			contentGroup.GET("/prophets", ctl.getProphets)
		}
	}

	if static != nil {
		router.NoRoute(gin.WrapH(static))
	}

	return router
}
