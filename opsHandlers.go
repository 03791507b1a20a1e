package main

import (
	"net/http"

	"bitbucket.org/mmdatafocus/erp_backend/models"
	"github.com/gin-gonic/gin"
)

func requireAdmin(c *gin.Context) (*models.User, bool) {
	user, err := getSessionUser(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	if user.Role != models.UserRoleAdmin {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return user, true
}

func outboxStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireAdmin(c)
		if !ok {
			return
		}
		businessId := c.Query("business_id")
		if businessId == "" {
			businessId = user.BusinessId
		}

		summary, err := models.GetOutboxStatusSummary(c.Request.Context(), businessId)
		if err != nil {
			respondError(c, err)
			return
		}

		dead, err := models.GetDeadOutboxRecords(c.Request.Context(), businessId, 20)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"summary":      summary,
			"dead_records": dead,
		}})
	}
}

type outboxReplayRequest struct {
	BusinessId string `json:"business_id"`
	RecordId   int    `json:"record_id" binding:"required"`
}

// outboxReplayHandler moves a DEAD outbox record back to PENDING so the
// dispatcher retries it. Admin only.
func outboxReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireAdmin(c)
		if !ok {
			return
		}

		var req outboxReplayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "record_id is required"})
			return
		}
		businessId := req.BusinessId
		if businessId == "" {
			businessId = user.BusinessId
		}

		if err := models.ReviveDeadOutboxRecord(c.Request.Context(), businessId, req.RecordId); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"business_id":    businessId,
			"record_id":      req.RecordId,
			"publish_status": models.OutboxPublishStatusPending,
		}})
	}
}
