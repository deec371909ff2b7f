package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/models"
	"github.com/inboxpurge/inboxpurge/internal/repository"
)

type whitelistRequest struct {
	Domain string `json:"domain" binding:"required"`
	Reason string `json:"reason"`
}

func ListWhitelist(whitelistRepo interfaces.WhitelistRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := whitelistRepo.GetAll(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"domains": entries})
	}
}

func AddWhitelistDomain(whitelistRepo interfaces.WhitelistRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req whitelistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		entry := &models.WhitelistDomain{Domain: req.Domain, Reason: req.Reason}
		if err := whitelistRepo.Add(c.Request.Context(), entry); err != nil {
			if errors.Is(err, repository.ErrInvalidInput) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

func RemoveWhitelistDomain(whitelistRepo interfaces.WhitelistRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := whitelistRepo.Remove(c.Request.Context(), c.Param("domain")); err != nil {
			if errors.Is(err, repository.ErrWhitelistNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "domain not whitelisted"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "removed"})
	}
}
