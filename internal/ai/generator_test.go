package ai

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"reflect"
	"testing"
)

type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.response, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestFallbackFeedback_ScoreBands(t *testing.T) {
	tests := []struct {
		name  string
		score float64
	}{
		{name: "top band lower edge", score: 90},
		{name: "just under top band", score: 89.99},
		{name: "middle band lower edge", score: 70},
		{name: "passing band lower edge", score: 50},
		{name: "just under passing", score: 49.99},
		{name: "zero", score: 0},
		{name: "perfect", score: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := FallbackFeedback(tt.score)

			if content.FeedbackText == "" {
				t.Error("feedback text should not be empty")
			}
			if len(content.ImprovementAreas) < 2 || len(content.ImprovementAreas) > 3 {
				t.Errorf("expected 2-3 improvement areas, got %d", len(content.ImprovementAreas))
			}
			if len(content.Strengths) != 2 {
				t.Errorf("expected 2 strengths, got %d", len(content.Strengths))
			}
			if len(content.RecommendedResources) != 4 {
				t.Errorf("expected 4 recommended resources, got %d", len(content.RecommendedResources))
			}
		})
	}

	// Band edges are inclusive going down
	if reflect.DeepEqual(FallbackFeedback(90), FallbackFeedback(89.99)) {
		t.Error("90.00 and 89.99 should land in different bands")
	}
	if !reflect.DeepEqual(FallbackFeedback(90), FallbackFeedback(100)) {
		t.Error("90.00 and 100 should land in the same band")
	}
	if !reflect.DeepEqual(FallbackFeedback(50), FallbackFeedback(69.99)) {
		t.Error("50.00 and 69.99 should land in the same band")
	}
}

func TestGenerateFeedback_FallsBackOnProviderError(t *testing.T) {
	g := NewGenerator(&stubProvider{err: errors.New("api down")}, testLogger())

	got := g.GenerateFeedback(context.Background(), "Algebra", 75, nil)
	want := FallbackFeedback(75)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected exact fallback content on provider error\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestGenerateFeedback_FallsBackOnGarbageResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "not json", response: "sorry, I can't do that"},
		{name: "empty object", response: "{}"},
		{name: "missing strengths", response: `{"feedbackText":"ok","improvementAreas":["a"],"recommendedResources":["r"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(&stubProvider{response: tt.response}, testLogger())

			got := g.GenerateFeedback(context.Background(), "Algebra", 42, nil)
			if !reflect.DeepEqual(got, FallbackFeedback(42)) {
				t.Error("expected fallback content for unusable response")
			}
		})
	}
}

func TestGenerateFeedback_NilProvider(t *testing.T) {
	g := NewGenerator(nil, testLogger())

	got := g.GenerateFeedback(context.Background(), "Algebra", 100, nil)
	if !reflect.DeepEqual(got, FallbackFeedback(100)) {
		t.Error("nil provider should serve fallback content")
	}
}

func TestGenerateFeedback_UsesValidResponse(t *testing.T) {
	response := "```json\n" + `{
		"feedbackText": "Nice work on Algebra.",
		"improvementAreas": ["Fractions"],
		"strengths": ["Equations", "Graphing"],
		"recommendedResources": ["Chapter 3"]
	}` + "\n```"

	g := NewGenerator(&stubProvider{response: response}, testLogger())

	got := g.GenerateFeedback(context.Background(), "Algebra", 80, []AnswerSummary{
		{QuestionID: 1, QuestionText: "Solve x+1=2", IsCorrect: true},
	})

	if got.FeedbackText != "Nice work on Algebra." {
		t.Errorf("expected AI feedback text, got %q", got.FeedbackText)
	}
	if len(got.Strengths) != 2 {
		t.Errorf("expected 2 strengths from AI response, got %d", len(got.Strengths))
	}
}

func TestFallbackQuestions(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		wantCount int
	}{
		{name: "within cap", count: 3, wantCount: 3},
		{name: "capped at five", count: 20, wantCount: 5},
		{name: "zero floors to one", count: 0, wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions := FallbackQuestions("Go basics", tt.count, "medium")

			if len(questions) != tt.wantCount {
				t.Fatalf("expected %d questions, got %d", tt.wantCount, len(questions))
			}
			for _, q := range questions {
				if len(q.Options) != 4 {
					t.Errorf("expected 4 options, got %d", len(q.Options))
				}
				if q.CorrectAnswer != 1 {
					t.Errorf("expected correct answer index 1, got %d", q.CorrectAnswer)
				}
			}
		})
	}
}

func TestGenerateQuestions_FallsBackOnMalformedQuestion(t *testing.T) {
	// Three options instead of four
	response := `{"questions":[{"questionText":"q","options":["a","b","c"],"correctAnswer":0}]}`

	g := NewGenerator(&stubProvider{response: response}, testLogger())

	got := g.GenerateQuestions(context.Background(), "Go basics", 3, "easy")
	want := FallbackQuestions("Go basics", 3, "easy")

	if !reflect.DeepEqual(got, want) {
		t.Error("expected fallback questions for malformed response")
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain json", input: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding whitespace", input: "  {\"a\":1}\n", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONResponse(tt.input); got != tt.want {
				t.Errorf("cleanJSONResponse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
