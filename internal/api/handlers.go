package api

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mihrab-app/mihrab/internal/almanac"
	"github.com/mihrab-app/mihrab/internal/provider"
	"github.com/mihrab-app/mihrab/internal/times"
)

// nextResponse flattens a resolution for display clients.
type nextResponse struct {
	CurrentWindow string `json:"current_window,omitempty"`
	Target        string `json:"target"`
	Boundary      string `json:"boundary"`
	BoundaryClock string `json:"boundary_clock"`
	Label         string `json:"label"`
	Remaining     string `json:"remaining"`
}

func (c *Controller) getStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.engine.Status())
}

func (c *Controller) getTimings(ctx *gin.Context) {
	status := c.engine.Status()
	if status.Degraded != "" || status.Timings == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cannot load prayer times."})
		return
	}

	display := make(map[string]string, len(times.CanonicalOrder))
	now := time.Now()
	for _, name := range times.CanonicalOrder {
		if t, err := status.Timings.At(name, now, now.Location()); err == nil {
			display[name] = times.Format12Hour(t)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"timings":     status.Timings,
		"display":     display,
		"from_cache":  status.FromCache,
		"captured_at": status.CapturedAt,
	})
}

func (c *Controller) getNext(ctx *gin.Context) {
	resolution, err := c.engine.Next()
	if err != nil {
		if errors.Is(err, provider.ErrNoData) {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cannot load prayer times."})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, nextResponse{
		CurrentWindow: resolution.CurrentWindow,
		Target:        resolution.Target,
		Boundary:      resolution.Boundary.Format(time.RFC3339),
		BoundaryClock: times.Format12Hour(resolution.Boundary),
		Label:         resolution.Label,
		Remaining:     times.FormatRemaining(time.Until(resolution.Boundary)),
	})
}

func (c *Controller) postRefresh(ctx *gin.Context) {
	// The cycle runs in the background; the request context ends the
	// moment this response is written, so the refresh must not inherit
	// its cancellation.
	go c.engine.Refresh(context.WithoutCancel(ctx.Request.Context()))
	ctx.JSON(http.StatusAccepted, gin.H{"status": "refreshing"})
}

func (c *Controller) getTracker(ctx *gin.Context) {
	state, err := c.tracker.Today(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, state)
}

func (c *Controller) toggleTracker(ctx *gin.Context) {
	state, err := c.tracker.Toggle(ctx.Request.Context(), ctx.Param("name"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, state)
}

func (c *Controller) getHijri(ctx *gin.Context) {
	date := almanac.Hijri(time.Now())
	ctx.JSON(http.StatusOK, gin.H{
		"year":       date.Year,
		"month":      date.Month,
		"day":        date.Day,
		"month_name": date.MonthName,
		"formatted":  date.String(),
	})
}

func (c *Controller) getQibla(ctx *gin.Context) {
	lat, latErr := strconv.ParseFloat(ctx.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(ctx.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		loc := c.engine.Status().Location
		if loc == nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required when no location is known"})
			return
		}
		lat, lon = loc.Latitude, loc.Longitude
	}
	ctx.JSON(http.StatusOK, almanac.Qibla(lat, lon))
}

func (c *Controller) postZakat(ctx *gin.Context) {
	var input almanac.ZakatInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := almanac.Zakat(input)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (c *Controller) getTasbih(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.tasbih.State())
}

func (c *Controller) incrementTasbih(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.tasbih.Increment())
}

func (c *Controller) resetTasbih(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.tasbih.Reset())
}

func (c *Controller) getRandomHadith(ctx *gin.Context) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx.JSON(http.StatusOK, c.library.RandomHadith(rng))
}

func (c *Controller) getHadiths(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.library.Hadiths)
}

func (c *Controller) getDuas(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.library.Duas)
}

func (c *Controller) getSurahs(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.library.Surahs)
}

func (c *Controller) getSurah(ctx *gin.Context) {
	number, err := strconv.Atoi(ctx.Param("number"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid surah number"})
		return
	}
	surah := c.library.SurahByNumber(number)
	if surah == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "surah not found"})
		return
	}
	ctx.JSON(http.StatusOK, surah)
}

func (c *Controller) getProphets(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.library.Prophets)
}
