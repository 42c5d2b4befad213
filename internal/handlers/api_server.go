// internal/handlers/api_server.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jason-s-yu/argumentor/internal/debate"
	"github.com/jason-s-yu/argumentor/internal/middleware"
	"github.com/jason-s-yu/argumentor/internal/room"
	"github.com/sirupsen/logrus"
)

// NewRouter mounts the debate WebSocket endpoint and the REST helpers.
func NewRouter(logger *logrus.Logger, coord *room.Coordinator) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LogMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":          true,
			"time":        time.Now().UTC(),
			"armedTimers": coord.Timers().Len(),
		})
	})
	r.GET("/debates/:code", DebateInfoHandler(coord))
	r.GET("/ws", gin.WrapF(DebateWSHandler(logger, coord)))
	return r
}

// DebateInfoHandler serves the same snapshot get_debate_info returns.
func DebateInfoHandler(coord *room.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := coord.Info(c.Request.Context(), c.Param("code"))
		if err != nil {
			code, msg := debate.CodeOf(err)
			c.JSON(statusFor(err), room.ErrorPayload{Code: code, Message: msg})
			if code == debate.CodeInternal {
				_ = c.Error(err)
			}
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, debate.ErrInvalidRoomCode):
		return http.StatusBadRequest
	case errors.Is(err, debate.ErrRoomNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
