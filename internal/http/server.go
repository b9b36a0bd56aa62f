// README: HTTP server; registers routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"concierge/internal/http/handlers"
	"concierge/internal/http/middleware"
	"concierge/internal/infra"
	"concierge/internal/nlu"
)

type ServerDeps struct {
	Dialog    handlers.Validator
	Recommend handlers.Recommender
	Engine    nlu.Engine          // nil disables the chat route's NLU path
	Verifier  infra.TokenVerifier // nil disables token verification
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	return &Server{deps: deps}
}

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery(), middleware.CORS(), middleware.Auth(s.deps.Verifier))

	chat := handlers.NewChatHandler(s.deps.Engine, s.deps.Recommend)
	r.POST("/v1/chat", chat.Post)

	dialogHandler := handlers.NewDialogHandler(s.deps.Dialog)
	r.POST("/v1/dialog", dialogHandler.Post)

	rec := handlers.NewRecommendHandler(s.deps.Recommend)
	r.POST("/v1/recommendations", rec.Post)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
