// README: Chat front door; forwards utterances to the NLU engine, with the returning-user shortcut.
package handlers

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"concierge/internal/http/middleware"
	"concierge/internal/modules/recommend"
	"concierge/internal/nlu"
	"concierge/internal/types"
)

// Recommender is the synchronous shortcut consulted on greetings and probes.
type Recommender interface {
	Recommend(ctx context.Context, userID types.ID) recommend.Result
}

type ChatHandler struct {
	engine    nlu.Engine
	recommend Recommender
}

func NewChatHandler(engine nlu.Engine, rec Recommender) *ChatHandler {
	return &ChatHandler{engine: engine, recommend: rec}
}

type chatMessage struct {
	Unstructured struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"unstructured"`
}

type chatRequest struct {
	Messages  []chatMessage `json:"messages"`
	SessionID string        `json:"sessionId"`
	UserID    string        `json:"userId"`
}

type chatReply struct {
	Type         string `json:"type"`
	Unstructured struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		Timestamp string `json:"timestamp"`
	} `json:"unstructured"`
}

type chatResponse struct {
	Messages []chatReply `json:"messages"`
}

// greetingOrProbe matches utterances worth short-circuiting through the
// returning-user recommender before the full dialog engages.
var greetingOrProbe = regexp.MustCompile(`^(hi|hello|hey|good (morning|afternoon|evening))\b|recommend`)

func (h *ChatHandler) Post(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Messages) == 0 {
		writeError(c, http.StatusBadRequest, "missing messages[]")
		return
	}
	text := strings.TrimSpace(req.Messages[0].Unstructured.Text)
	if text == "" {
		writeError(c, http.StatusBadRequest, "missing unstructured.text")
		return
	}

	userID := req.UserID
	if v, ok := c.Get(middleware.UserIDKey); ok {
		if uid, ok := v.(string); ok && uid != "" {
			userID = uid
		}
	}

	// Session continuity: explicit sessionId, else the client message id,
	// else a fresh one.
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = strings.TrimSpace(req.Messages[0].Unstructured.ID)
	}
	if sessionID == "" {
		sessionID = newID()
	}

	if userID != "" && greetingOrProbe.MatchString(strings.ToLower(text)) {
		if res := h.recommend.Recommend(c.Request.Context(), types.ID(userID)); res.HasRecommendation {
			c.JSON(http.StatusOK, buildChatResponse(res.Message))
			return
		}
	}

	if h.engine == nil {
		writeError(c, http.StatusServiceUnavailable, "chat is not configured")
		return
	}

	reply, err := h.engine.RecognizeText(c.Request.Context(), sessionID, userID, text)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if reply == "" {
		reply = "Sorry, I didn't get that."
	}
	c.JSON(http.StatusOK, buildChatResponse(reply))
}

func buildChatResponse(text string) chatResponse {
	var reply chatReply
	reply.Type = "unstructured"
	reply.Unstructured.ID = newID()
	reply.Unstructured.Text = text
	reply.Unstructured.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return chatResponse{Messages: []chatReply{reply}}
}
