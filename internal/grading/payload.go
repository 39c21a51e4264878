package grading

import (
	"encoding/json"
	"fmt"
)

// Payload is the canonical grade the rest of the pipeline consumes.
// Scores are always inside [0,100] by the time a Payload exists; Total is
// whatever the oracle reported (clamped), never recomputed from the
// sub-scores.
type Payload struct {
	TaskCompleteness         int    `json:"task_completeness"`
	CodeQuality              int    `json:"code_quality"`
	Correctness              int    `json:"correctness"`
	Total                    int    `json:"total"`
	OverallFeedback          string `json:"overall_feedback"`
	TaskCompletenessFeedback string `json:"task_completeness_feedback"`
	CodeQualityFeedback      string `json:"code_quality_feedback"`
	CorrectnessFeedback      string `json:"correctness_feedback"`
}

// rawPayload accepts the oracle's reply before any trust is extended:
// every field is optional so a missing one is detectable, and scores may
// arrive as floats.
type rawPayload struct {
	TaskCompleteness         *float64 `json:"task_completeness"`
	CodeQuality              *float64 `json:"code_quality"`
	Correctness              *float64 `json:"correctness"`
	Total                    *float64 `json:"total"`
	OverallFeedback          *string  `json:"overall_feedback"`
	TaskCompletenessFeedback *string  `json:"task_completeness_feedback"`
	CodeQualityFeedback      *string  `json:"code_quality_feedback"`
	CorrectnessFeedback      *string  `json:"correctness_feedback"`
}

func clamp(v float64) int {
	n := int(v)
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// parsePayload decodes the oracle's message content and requires all eight
// fields. Each score is clamped into [0,100] independently.
func parsePayload(content string) (Payload, error) {
	var raw rawPayload
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Payload{}, fmt.Errorf("oracle reply is not valid JSON: %w", err)
	}

	missing := func(name string, ok bool) error {
		if !ok {
			return fmt.Errorf("oracle reply missing field: %s", name)
		}
		return nil
	}
	for _, check := range []struct {
		name string
		ok   bool
	}{
		{"task_completeness", raw.TaskCompleteness != nil},
		{"code_quality", raw.CodeQuality != nil},
		{"correctness", raw.Correctness != nil},
		{"total", raw.Total != nil},
		{"overall_feedback", raw.OverallFeedback != nil},
		{"task_completeness_feedback", raw.TaskCompletenessFeedback != nil},
		{"code_quality_feedback", raw.CodeQualityFeedback != nil},
		{"correctness_feedback", raw.CorrectnessFeedback != nil},
	} {
		if err := missing(check.name, check.ok); err != nil {
			return Payload{}, err
		}
	}

	return Payload{
		TaskCompleteness:         clamp(*raw.TaskCompleteness),
		CodeQuality:              clamp(*raw.CodeQuality),
		Correctness:              clamp(*raw.Correctness),
		Total:                    clamp(*raw.Total),
		OverallFeedback:          *raw.OverallFeedback,
		TaskCompletenessFeedback: *raw.TaskCompletenessFeedback,
		CodeQualityFeedback:      *raw.CodeQualityFeedback,
		CorrectnessFeedback:      *raw.CorrectnessFeedback,
	}, nil
}

// fallbackUnavailable is the low-confidence payload used when the oracle
// cannot be reached at all. Everything lands at 50 and the feedback asks
// for manual review.
func fallbackUnavailable(err error) Payload {
	return Payload{
		TaskCompleteness:         50,
		CodeQuality:              50,
		Correctness:              50,
		Total:                    50,
		OverallFeedback:          fmt.Sprintf("AI grading service unavailable. Error: %v", err),
		TaskCompletenessFeedback: "Manual review required.",
		CodeQualityFeedback:      "Manual review required.",
		CorrectnessFeedback:      "Manual review required.",
	}
}

// fallbackUnparseable is the medium-confidence payload used when the
// oracle answered but the reply was not usable.
func fallbackUnparseable() Payload {
	return Payload{
		TaskCompleteness:         70,
		CodeQuality:              70,
		Correctness:              70,
		Total:                    70,
		OverallFeedback:          "Automatic grading encountered an issue. Please review manually.",
		TaskCompletenessFeedback: "Unable to assess automatically.",
		CodeQualityFeedback:      "Unable to assess automatically.",
		CorrectnessFeedback:      "Unable to assess automatically.",
	}
}
