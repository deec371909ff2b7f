package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/services/discovery"
	"github.com/inboxpurge/inboxpurge/services/safety"
)

func ListSenders(senderRepo interfaces.SenderRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c)
		senders, total, err := senderRepo.List(c.Request.Context(), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"senders": senders, "total": total})
	}
}

func SenderStats(discoveryService *discovery.DiscoveryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := discoveryService.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// DiscoverSenders triggers an on-demand mailbox sweep. With daysBack set
// only recent mail is scanned.
func DiscoverSenders(discoveryService *discovery.DiscoveryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			found int
			err   error
		)
		if raw := c.Query("daysBack"); raw != "" {
			daysBack, convErr := strconv.Atoi(raw)
			if convErr != nil || daysBack <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "daysBack must be a positive integer"})
				return
			}
			found, err = discoveryService.DiscoverNewSenders(c.Request.Context(), daysBack)
		} else {
			found, err = discoveryService.DiscoverSenders(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sendersFound": found})
	}
}

func GuardrailStats(guardrail *safety.GuardrailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := guardrail.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
