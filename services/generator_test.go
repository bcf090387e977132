package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleBatch = `{"questions":[{"question":"Capital of France?","options":[{"index":0,"option":"Paris"},{"index":1,"option":"Lyon"},{"index":2,"option":"Nice"},{"index":3,"option":"Lille"}],"answer":0}]}`

func TestParseQuestionBatchPlain(t *testing.T) {
	batch, err := parseQuestionBatch(sampleBatch)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(batch.Questions) != 1 {
		t.Fatalf("questions=%d want 1", len(batch.Questions))
	}
	if batch.Questions[0].Answer != 0 {
		t.Fatalf("answer=%d want 0", batch.Questions[0].Answer)
	}
}

func TestParseQuestionBatchMarkdownFence(t *testing.T) {
	text := "```json\n" + sampleBatch + "\n```"
	batch, err := parseQuestionBatch(text)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if batch.Questions[0].Question != "Capital of France?" {
		t.Fatalf("question=%q", batch.Questions[0].Question)
	}
}

func TestParseQuestionBatchSurroundingProse(t *testing.T) {
	text := "Sure! Here are your questions:\n" + sampleBatch + "\nEnjoy."
	batch, err := parseQuestionBatch(text)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(batch.Questions) != 1 {
		t.Fatalf("questions=%d want 1", len(batch.Questions))
	}
}

func TestParseQuestionBatchGarbage(t *testing.T) {
	if _, err := parseQuestionBatch("I cannot help with that."); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateQuestionBatch(t *testing.T) {
	good := generatedQuestions(3)
	if err := validateQuestionBatch(good, 3, 4); err != nil {
		t.Fatalf("err=%v", err)
	}

	if err := validateQuestionBatch(good, 5, 4); err == nil {
		t.Fatalf("short batch accepted")
	}

	bad := generatedQuestions(3)
	bad[1].Answer = 7
	if err := validateQuestionBatch(bad, 3, 4); err == nil {
		t.Fatalf("out-of-range answer accepted")
	}

	empty := generatedQuestions(3)
	empty[0].Question = "  "
	if err := validateQuestionBatch(empty, 3, 4); err == nil {
		t.Fatalf("empty question text accepted")
	}
}

func TestGeminiGeneratorRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s", r.Method)
		}
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":"%s"}]}}]}`,
			"```json\\n"+escapeJSON(sampleBatch)+"\\n```")
	}))
	t.Cleanup(srv.Close)

	gen := NewGeminiGenerator(srv.URL, "test-key", "test-model", 4)
	questions, err := gen.Generate(context.Background(), "geography", 1, "easy")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(questions) != 1 || questions[0].Question != "Capital of France?" {
		t.Fatalf("questions=%+v", questions)
	}
}

func TestGeminiGeneratorShortBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":"%s"}]}}]}`, escapeJSON(sampleBatch))
	}))
	t.Cleanup(srv.Close)

	gen := NewGeminiGenerator(srv.URL, "test-key", "test-model", 4)
	if _, err := gen.Generate(context.Background(), "geography", 5, "easy"); err == nil {
		t.Fatalf("short batch accepted")
	}
}

func TestGeminiGeneratorUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	gen := NewGeminiGenerator(srv.URL, "test-key", "test-model", 4)
	if _, err := gen.Generate(context.Background(), "geography", 1, "easy"); err == nil {
		t.Fatalf("upstream failure accepted")
	}
}

// escapeJSON embeds a JSON document as a JSON string value.
func escapeJSON(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
