package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/inboxpurge/inboxpurge/internal/repository"
	"github.com/inboxpurge/inboxpurge/services/runner"
)

// StartRun kicks off a new cleanup run.
func StartRun(runnerService *runner.RunnerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := runnerService.StartRun(c.Request.Context())
		if err != nil {
			if errors.Is(err, runner.ErrRunInProgress) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, run)
	}
}

func GetRun(runnerService *runner.RunnerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := runnerService.GetRun(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, repository.ErrRunNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

func ListRuns(runnerService *runner.RunnerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c)
		runs, total, err := runnerService.ListRuns(c.Request.Context(), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs, "total": total})
	}
}

func PauseRun(runnerService *runner.RunnerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := runnerService.Pause(c.Request.Context(), c.Param("id")); err != nil {
			writeRunError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "paused"})
	}
}

func CancelRun(runnerService *runner.RunnerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := runnerService.Cancel(c.Request.Context(), c.Param("id")); err != nil {
			writeRunError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
	}
}

func ResumeRun(runnerService *runner.RunnerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := runnerService.Resume(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeRunError(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

func ListRunActions(runnerService *runner.RunnerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c)
		actions, total, err := runnerService.ListActions(c.Request.Context(), c.Param("id"), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"actions": actions, "total": total})
	}
}

func writeRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
	case errors.Is(err, runner.ErrRunNotResumable), errors.Is(err, runner.ErrRunTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
