package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/metrics"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

// Oracle scores a submission. Implementations never fail: whatever happens
// on the wire collapses into a usable Payload.
type Oracle interface {
	Grade(ctx context.Context, hw *models.Homework, files []models.SubmissionFile) Payload
}

const (
	outcomeOK         = "ok"
	outcomeTransport  = "transport_error"
	outcomeBadPayload = "bad_payload"
)

type OracleConfig struct {
	URL            string  `toml:"url"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
}

// Grader talks to the external scoring backend over a chat-completions
// API. One attempt per submission, bounded by the configured timeout; a
// slow oracle degrades the grade, it never blocks the intake.
type Grader struct {
	cfg    OracleConfig
	client *http.Client
}

func NewGrader(cfg OracleConfig) *Grader {
	return &Grader{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Grade never fails. Transport trouble yields the all-50 payload,
// an unusable reply yields the all-70 one; both carry feedback telling
// the teacher to review manually.
func (g *Grader) Grade(ctx context.Context, hw *models.Homework, files []models.SubmissionFile) Payload {
	payload, outcome := g.evaluate(ctx, hw, files)
	metrics.OracleRequestsTotal.WithLabelValues(outcome).Inc()
	if outcome != outcomeOK {
		logger.Info.Printf("Oracle degraded for homework %d: %s, total=%d", hw.ID, outcome, payload.Total)
	}
	return payload
}

func (g *Grader) evaluate(ctx context.Context, hw *models.Homework, files []models.SubmissionFile) (Payload, string) {
	prompt := BuildPrompt(hw, files)

	body, err := json.Marshal(chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return fallbackUnavailable(err), outcomeTransport
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fallbackUnavailable(err), outcomeTransport
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fallbackUnavailable(err), outcomeTransport
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, string(msg))
		return fallbackUnavailable(err), outcomeTransport
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return fallbackUnavailable(fmt.Errorf("failed to decode oracle response: %w", err)), outcomeTransport
	}
	if len(chat.Choices) == 0 {
		return fallbackUnavailable(fmt.Errorf("oracle response has no choices")), outcomeTransport
	}

	payload, err := parsePayload(chat.Choices[0].Message.Content)
	if err != nil {
		logger.Debug.Printf("Unusable oracle reply: %v", err)
		return fallbackUnparseable(), outcomeBadPayload
	}

	return payload, outcomeOK
}

// BuildPrompt embeds the homework metadata, the grading rubric and every
// submitted file into the fixed instruction template the oracle is scored
// against.
func BuildPrompt(hw *models.Homework, files []models.SubmissionFile) string {
	var contents strings.Builder
	for _, f := range files {
		fmt.Fprintf(&contents, "=== %s ===\n%s\n\n", f.FileName, f.Content)
	}

	return fmt.Sprintf(`
You are an expert programming instructor. Grade this %s code submission.

HOMEWORK: %s
DESCRIPTION: %s
POINTS: %d
GRADING CRITERIA: %s

SUBMITTED FILES:
%s
Please grade this submission on 3 criteria (0-100 each):
1. Task Completeness - How well does the code fulfill the requirements?
2. Code Quality - Code structure, readability, best practices
3. Correctness - Does the code work correctly and handle edge cases?

Return your response as JSON in this exact format:
{
    "task_completeness": <score 0-100>,
    "code_quality": <score 0-100>,
    "correctness": <score 0-100>,
    "total": <average of the three scores>,
    "overall_feedback": "<brief 2-3 sentence summary>",
    "task_completeness_feedback": "<specific feedback on task completion>",
    "code_quality_feedback": "<specific feedback on code quality>",
    "correctness_feedback": "<specific feedback on correctness>"
}

Be constructive and specific in your feedback. Focus on what the student did well and areas for improvement.
`,
		hw.FileExtension,
		hw.Title,
		hw.Description,
		hw.Points,
		hw.GradingPrompt,
		contents.String(),
	)
}
