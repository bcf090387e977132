package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// GeneratedOption mirrors the fixed option shape the content generator is
// asked to produce.
type GeneratedOption struct {
	Index  int    `json:"index"`
	Option string `json:"option"`
}

type GeneratedQuestion struct {
	Question string            `json:"question"`
	Options  []GeneratedOption `json:"options"`
	Answer   int               `json:"answer"`
}

// QuestionGenerator produces exactly count questions for a topic. A short or
// malformed batch must be reported as an error, never padded or truncated.
type QuestionGenerator interface {
	Generate(ctx context.Context, topic string, count int, difficulty string) ([]GeneratedQuestion, error)
}

// GeminiGenerator calls the Gemini generateContent REST API and parses the
// strict-JSON question batch out of the model's text reply.
type GeminiGenerator struct {
	BaseURL     string
	APIKey      string
	Model       string
	OptionCount int
	Client      *http.Client
}

func NewGeminiGenerator(baseURL, apiKey, model string, optionCount int) *GeminiGenerator {
	return &GeminiGenerator{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		Model:       model,
		OptionCount: optionCount,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type generatorPart struct {
	Text string `json:"text"`
}

type generatorContent struct {
	Parts []generatorPart `json:"parts"`
}

type generateContentRequest struct {
	Contents []generatorContent `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content generatorContent `json:"content"`
	} `json:"candidates"`
}

type questionBatch struct {
	Questions []GeneratedQuestion `json:"questions"`
}

func (g *GeminiGenerator) Generate(ctx context.Context, topic string, count int, difficulty string) ([]GeneratedQuestion, error) {
	prompt := fmt.Sprintf(`Generate %d quiz questions along with the options and correct answer about "%s" with difficulty level "%s".
Each question has exactly %d options.
IMPORTANT: the answer should be in STRICT given JSON format and DIRECTLY return the json without any other text.
example:
{"questions":[{"question":"Question Number 1","options":[{"index":0,"option":"Option Number 1"},{"index":1,"option":"Option Number 2"},{"index":2,"option":"Option Number 3"},{"index":3,"option":"Option Number 4"}],"answer":0}]}`,
		count, topic, difficulty, g.OptionCount)

	reqBody := generateContentRequest{
		Contents: []generatorContent{{Parts: []generatorPart{{Text: prompt}}}},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.BaseURL, g.Model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("question generator request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("question generator returned %d: %s", resp.StatusCode, string(body))
	}

	var out generateContentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("question generator response not JSON: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("question generator returned no candidates")
	}

	batch, err := parseQuestionBatch(out.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}
	if err := validateQuestionBatch(batch.Questions, count, g.OptionCount); err != nil {
		return nil, err
	}
	return batch.Questions, nil
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// parseQuestionBatch tolerates models wrapping the JSON in markdown fences or
// surrounding prose: try the fenced block first, then the substring between
// the first '{' and the last '}'.
func parseQuestionBatch(text string) (*questionBatch, error) {
	cleaned := strings.TrimSpace(text)
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		cleaned = strings.TrimSpace(m[1])
	}

	var batch questionBatch
	if err := json.Unmarshal([]byte(cleaned), &batch); err == nil {
		return &batch, nil
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first != -1 && last > first {
		if err := json.Unmarshal([]byte(text[first:last+1]), &batch); err == nil {
			return &batch, nil
		}
	}
	return nil, fmt.Errorf("failed to parse generated questions")
}

func validateQuestionBatch(questions []GeneratedQuestion, count, optionCount int) error {
	if len(questions) != count {
		return fmt.Errorf("generator returned %d questions, want %d", len(questions), count)
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("generated question %d has empty text", i)
		}
		if len(q.Options) != optionCount {
			return fmt.Errorf("generated question %d has %d options, want %d", i, len(q.Options), optionCount)
		}
		if q.Answer < 0 || q.Answer >= optionCount {
			return fmt.Errorf("generated question %d has answer index %d out of range", i, q.Answer)
		}
	}
	return nil
}
