// README: Recommendations endpoint tests (userId extraction paths).
package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"concierge/internal/http/handlers"
	"concierge/internal/http/middleware"
	"concierge/internal/modules/recommend"
)

func recommendRouter(rec *stubRecommender, authUID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if authUID != "" {
		r.Use(func(c *gin.Context) { c.Set(middleware.UserIDKey, authUID) })
	}
	r.POST("/v1/recommendations", handlers.NewRecommendHandler(rec).Post)
	return r
}

func postRecommend(r *gin.Engine, payload any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(payload)
	req := httptest.NewRequest(http.MethodPost, "/v1/recommendations", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecommendDirectUserID(t *testing.T) {
	rec := &stubRecommender{result: recommend.Result{HasRecommendation: true, Message: "Welcome back!"}}
	r := recommendRouter(rec, "")

	w := postRecommend(r, map[string]any{"userId": "u-9"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if rec.gotID != "u-9" {
		t.Fatalf("user id = %q", rec.gotID)
	}

	var res recommend.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.HasRecommendation || res.Message != "Welcome back!" {
		t.Fatalf("result = %+v", res)
	}
}

func TestRecommendNestedBodyUserID(t *testing.T) {
	rec := &stubRecommender{}
	r := recommendRouter(rec, "")

	w := postRecommend(r, map[string]any{"body": `{"userId":"u-nested"}`})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if rec.gotID != "u-nested" {
		t.Fatalf("user id = %q", rec.gotID)
	}
}

func TestRecommendAuthContextOverridesBody(t *testing.T) {
	rec := &stubRecommender{}
	r := recommendRouter(rec, "u-verified")

	postRecommend(r, map[string]any{"userId": "u-spoofed"})
	if rec.gotID != "u-verified" {
		t.Fatalf("user id = %q, want verified identity", rec.gotID)
	}
}

func TestRecommendMissingUserIDStillResponds(t *testing.T) {
	rec := &stubRecommender{result: recommend.Result{Reason: recommend.ReasonMissingUserID}}
	r := recommendRouter(rec, "")

	w := postRecommend(r, map[string]any{})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if rec.gotID != "" {
		t.Fatalf("user id = %q", rec.gotID)
	}
	var res recommend.Result
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Reason != recommend.ReasonMissingUserID {
		t.Fatalf("result = %+v", res)
	}
}
