package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizclash/middleware"
	"quizclash/services"
	"quizclash/storage"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type stubGenerator struct{}

func (g *stubGenerator) Generate(ctx context.Context, topic string, count int, difficulty string) ([]services.GeneratedQuestion, error) {
	questions := make([]services.GeneratedQuestion, count)
	for i := range questions {
		options := make([]services.GeneratedOption, 4)
		for j := range options {
			options[j] = services.GeneratedOption{Index: j, Option: fmt.Sprintf("option %d", j)}
		}
		questions[i] = services.GeneratedQuestion{
			Question: fmt.Sprintf("question %d", i),
			Options:  options,
			Answer:   0,
		}
	}
	return questions, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *storage.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStore()
	svc := services.NewMatchService(store, &stubGenerator{}, nil, zap.NewNop(), 4)
	handler := NewMatchHandler(svc)

	router := gin.New()
	match := router.Group("/api/match")
	match.Use(middleware.Auth(testSecret))
	{
		match.POST("/create", handler.CreateMatch)
		match.GET("/:id", handler.GetMatch)
		match.POST("/:id/join", handler.JoinMatch)
		match.POST("/:id/start", handler.StartMatch)
		match.POST("/:id/submit", handler.SubmitAnswer)
		match.POST("/:id/cancel", handler.CancelMatch)
	}
	return router, store
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, router *gin.Engine, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func createMatchID(t *testing.T, router *gin.Engine, userID string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/match/create", userID, map[string]interface{}{
		"time_per_que":    5,
		"category":        "history",
		"total_questions": 3,
		"stake_amount":    10,
		"difficulty":      "easy",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]interface{})
	match := data["match"].(map[string]interface{})
	return match["id"].(string)
}

func TestCreateJoinStartFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	matchID := createMatchID(t, router, "user-1")

	w := doJSON(t, router, http.MethodPost, "/api/match/"+matchID+"/join", "user-2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("join status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/match/"+matchID+"/start", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start status=%d body=%s", w.Code, w.Body.String())
	}
	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]interface{})
	questions := data["questions"].([]interface{})
	if len(questions) != 3 {
		t.Fatalf("questions=%d want 3", len(questions))
	}
	// Sanitized views never leak the correct option.
	for _, q := range questions {
		if _, leaked := q.(map[string]interface{})["correct_option"]; leaked {
			t.Fatalf("correct option exposed to clients: %v", q)
		}
	}
}

func TestJoinOwnMatchForbidden(t *testing.T) {
	router, _ := newTestRouter(t)
	matchID := createMatchID(t, router, "user-1")

	w := doJSON(t, router, http.MethodPost, "/api/match/"+matchID+"/join", "user-1", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status=%d want 403, body=%s", w.Code, w.Body.String())
	}
	body := decodeEnvelope(t, w)
	if body["status"] != "FAILED" || body["code"] != string(services.CodeAuthorization) {
		t.Fatalf("envelope=%v", body)
	}
}

func TestSubmitBeforeActiveConflicts(t *testing.T) {
	router, store := newTestRouter(t)
	matchID := createMatchID(t, router, "user-1")

	w := doJSON(t, router, http.MethodPost, "/api/match/"+matchID+"/submit", "user-1", map[string]interface{}{
		"question_id": "whatever",
		"answer":      1,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d want 409, body=%s", w.Code, w.Body.String())
	}
	body := decodeEnvelope(t, w)
	if body["code"] != string(services.CodeStateConflict) {
		t.Fatalf("envelope=%v", body)
	}

	answers, _ := store.ListAnswers(context.Background(), matchID)
	if len(answers) != 0 {
		t.Fatalf("answer persisted for inactive match")
	}
}

func TestGetMatchNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/match/does-not-exist", "user-1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d want 404", w.Code)
	}
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/match/create", "", map[string]interface{}{})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", w.Code)
	}
}

func TestCreateMatchValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	// Missing required fields is rejected at binding time.
	w := doJSON(t, router, http.MethodPost, "/api/match/create", "user-1", map[string]interface{}{
		"category": "history",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400, body=%s", w.Code, w.Body.String())
	}
}
