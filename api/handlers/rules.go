package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/services/retention"
)

type addRuleRequest struct {
	Type        string `json:"type" binding:"required"`
	Pattern     string `json:"pattern"`
	Value       bool   `json:"value"`
	Days        int    `json:"days"`
	Action      string `json:"action" binding:"required"`
	Priority    int    `json:"priority"`
	Description string `json:"description"`
}

func ListRules(engine *retention.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rules": engine.Rules()})
	}
}

func AddRule(engine *retention.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addRuleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		action := enum.Disposition(req.Action)
		if action != enum.DispositionKeep && action != enum.DispositionDelete && action != enum.DispositionReview {
			c.JSON(http.StatusBadRequest, gin.H{"error": "action must be KEEP, DELETE or REVIEW"})
			return
		}

		var rule retention.Rule
		switch ruleType := enum.RuleType(req.Type); ruleType {
		case enum.RuleOlderThanDays:
			if req.Days <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "days must be positive"})
				return
			}
			rule = retention.NewAgeRule(req.Days, action, req.Priority, req.Description)
		case enum.RuleHasAttachment, enum.RuleIsConversation:
			rule = retention.NewBoolRule(ruleType, req.Value, action, req.Priority, req.Description)
		case enum.RuleSenderEmail, enum.RuleSenderDomain, enum.RuleSubjectContains, enum.RuleLabel, enum.RuleCategory:
			if req.Pattern == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "pattern is required"})
				return
			}
			rule = retention.NewPatternRule(ruleType, req.Pattern, action, req.Priority, req.Description)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown rule type"})
			return
		}

		engine.Add(rule)
		c.JSON(http.StatusCreated, rule)
	}
}

func EnableRule(engine *retention.Engine) gin.HandlerFunc {
	return ruleToggle(engine.Enable)
}

func DisableRule(engine *retention.Engine) gin.HandlerFunc {
	return ruleToggle(engine.Disable)
}

func RemoveRule(engine *retention.Engine) gin.HandlerFunc {
	return ruleToggle(engine.Remove)
}

func ruleToggle(op func(index int) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
			return
		}
		if !op(index) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no rule at index"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func ExportRules(engine *retention.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := engine.ExportJSON()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	}
}

func ImportRules(engine *retention.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := engine.ImportJSON(data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rules": engine.Rules()})
	}
}
