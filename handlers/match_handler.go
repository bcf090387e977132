package handlers

import (
	"errors"
	"net/http"

	"quizclash/services"

	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	matchService *services.MatchService
}

func NewMatchHandler(matchService *services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) CreateMatch(c *gin.Context) {
	userID := c.GetString("user_id")

	var req services.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "FAILED",
			"code":   services.CodeValidation,
			"error":  err.Error(),
		})
		return
	}

	match, err := h.matchService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "SUCCESS",
		"data":   gin.H{"match": match},
	})
}

func (h *MatchHandler) JoinMatch(c *gin.Context) {
	userID := c.GetString("user_id")
	matchID := c.Param("id")

	match, err := h.matchService.Join(c.Request.Context(), userID, matchID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "SUCCESS",
		"data":   gin.H{"match": match, "message": "joined match"},
	})
}

func (h *MatchHandler) StartMatch(c *gin.Context) {
	userID := c.GetString("user_id")
	matchID := c.Param("id")

	questions, err := h.matchService.Start(c.Request.Context(), userID, matchID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "SUCCESS",
		"data":   gin.H{"questions": questions, "message": "match starting"},
	})
}

func (h *MatchHandler) SubmitAnswer(c *gin.Context) {
	userID := c.GetString("user_id")
	matchID := c.Param("id")

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "FAILED",
			"code":   services.CodeValidation,
			"error":  err.Error(),
		})
		return
	}

	if err := h.matchService.SubmitAnswer(c.Request.Context(), userID, matchID, &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "SUCCESS",
		"data":   gin.H{"message": "answer submitted"},
	})
}

func (h *MatchHandler) CancelMatch(c *gin.Context) {
	userID := c.GetString("user_id")
	matchID := c.Param("id")

	if err := h.matchService.Cancel(c.Request.Context(), userID, matchID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "SUCCESS",
		"data":   gin.H{"message": "match cancelled"},
	})
}

func (h *MatchHandler) GetMatch(c *gin.Context) {
	match, err := h.matchService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "SUCCESS",
		"data":   gin.H{"match": match},
	})
}

// respondError maps the service error taxonomy onto HTTP statuses while
// keeping the envelope shape stable for clients.
func respondError(c *gin.Context, err error) {
	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "FAILED",
			"error":  "internal server error",
		})
		return
	}

	status := http.StatusInternalServerError
	switch svcErr.Code {
	case services.CodeValidation:
		status = http.StatusBadRequest
	case services.CodeAuthorization:
		status = http.StatusForbidden
	case services.CodeNotFound:
		status = http.StatusNotFound
	case services.CodeStateConflict:
		status = http.StatusConflict
	case services.CodeDependency:
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{
		"status": "FAILED",
		"code":   svcErr.Code,
		"error":  svcErr.Message,
	})
}
