package routes

import (
	"net/http"

	"quizclash/handlers"
	"quizclash/middleware"
	"quizclash/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func SetupRoutes(
	router *gin.Engine,
	matchHandler *handlers.MatchHandler,
	matchService *services.MatchService,
	hub *services.Hub,
	jwtSecret string,
	logger *zap.Logger,
) {
	api := router.Group("/api")

	match := api.Group("/match")
	match.Use(middleware.Auth(jwtSecret))
	{
		match.POST("/create", matchHandler.CreateMatch)
		match.GET("/:id", matchHandler.GetMatch)
		match.POST("/:id/join", matchHandler.JoinMatch)
		match.POST("/:id/start", matchHandler.StartMatch)
		match.POST("/:id/submit", matchHandler.SubmitAnswer)
		match.POST("/:id/cancel", matchHandler.CancelMatch)

		// Live match observer stream, participants only.
		match.GET("/:id/ws", func(c *gin.Context) {
			userID := c.GetString("user_id")
			matchID := c.Param("id")

			m, err := matchService.Get(c.Request.Context(), matchID)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"status": "FAILED", "error": "match not found"})
				return
			}
			if !m.IsParticipant(userID) {
				c.JSON(http.StatusForbidden, gin.H{"status": "FAILED", "error": "not a participant of this match"})
				return
			}

			conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
			if err != nil {
				logger.Warn("websocket upgrade failed", zap.String("match_id", matchID), zap.Error(err))
				return
			}
			hub.RegisterClient(c.Request.Context(), conn, matchID, userID)
		})
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
