// README: Returning-user recommendation endpoint.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"concierge/internal/http/middleware"
	"concierge/internal/types"
)

type RecommendHandler struct {
	recommend Recommender
}

func NewRecommendHandler(rec Recommender) *RecommendHandler {
	return &RecommendHandler{recommend: rec}
}

type recommendRequest struct {
	UserID string `json:"userId"`
	Body   string `json:"body"`
}

func (h *RecommendHandler) Post(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	userID := extractUserID(req, c)
	c.JSON(http.StatusOK, h.recommend.Recommend(c.Request.Context(), types.ID(userID)))
}

// extractUserID accepts the direct field, a nested JSON body string (proxy
// integrations wrap the payload that way), or the verified auth identity.
func extractUserID(req recommendRequest, c *gin.Context) string {
	if v, ok := c.Get(middleware.UserIDKey); ok {
		if uid, ok := v.(string); ok && uid != "" {
			return uid
		}
	}
	if uid := strings.TrimSpace(req.UserID); uid != "" {
		return uid
	}
	if req.Body != "" {
		var inner struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal([]byte(req.Body), &inner); err == nil {
			return strings.TrimSpace(inner.UserID)
		}
	}
	return ""
}
