package validator

import (
	"testing"

	"github.com/QuizHub-2025/quiz-service/internal/models"
)

type examDurationPayload struct {
	DurationMinutes int `validate:"exam_duration"`
}

func TestCustomRules(t *testing.T) {
	v := New()

	t.Run("exam_duration", func(t *testing.T) {
		tests := []struct {
			duration int
			valid    bool
		}{
			{duration: 5, valid: true},
			{duration: 300, valid: true},
			{duration: 4, valid: false},
			{duration: 301, valid: false},
			{duration: 0, valid: false},
		}
		for _, tt := range tests {
			err := v.Validate(&examDurationPayload{DurationMinutes: tt.duration})
			if (err == nil) != tt.valid {
				t.Errorf("duration %d: valid=%v, got err=%v", tt.duration, tt.valid, err)
			}
		}
	})

	t.Run("difficulty_level", func(t *testing.T) {
		type payload struct {
			Level string `validate:"difficulty_level"`
		}
		for _, level := range []string{"easy", "medium", "hard", "mixed"} {
			if err := v.Validate(&payload{Level: level}); err != nil {
				t.Errorf("level %q should be valid: %v", level, err)
			}
		}
		if err := v.Validate(&payload{Level: "impossible"}); err == nil {
			t.Error("unknown difficulty should fail validation")
		}
	})

	t.Run("question_count", func(t *testing.T) {
		type payload struct {
			Count int `validate:"question_count"`
		}
		if err := v.Validate(&payload{Count: 20}); err != nil {
			t.Errorf("count 20 should be valid: %v", err)
		}
		if err := v.Validate(&payload{Count: 21}); err == nil {
			t.Error("count 21 should fail validation")
		}
	})
}

func TestValidateExamPublish(t *testing.T) {
	v := New()

	tests := []struct {
		name          string
		exam          *models.Exam
		questionCount int
		wantErrs      int
	}{
		{
			name:          "publishable",
			exam:          &models.Exam{IsActive: true},
			questionCount: 3,
			wantErrs:      0,
		},
		{
			name:          "no questions",
			exam:          &models.Exam{IsActive: true},
			questionCount: 0,
			wantErrs:      1,
		},
		{
			name:          "inactive and empty",
			exam:          &models.Exam{IsActive: false},
			questionCount: 0,
			wantErrs:      2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateExamPublish(tt.exam, tt.questionCount)
			if len(errs) != tt.wantErrs {
				t.Errorf("got %d errors, want %d: %v", len(errs), tt.wantErrs, errs)
			}
		})
	}
}

func TestValidateAnswerPayload(t *testing.T) {
	v := New()

	optionID := uint(3)
	text := "free text answer"
	empty := "   "

	tests := []struct {
		name             string
		selectedOptionID *uint
		answerText       *string
		valid            bool
	}{
		{name: "option only", selectedOptionID: &optionID, valid: true},
		{name: "text only", answerText: &text, valid: true},
		{name: "both", selectedOptionID: &optionID, answerText: &text, valid: true},
		{name: "neither", valid: false},
		{name: "whitespace text only", answerText: &empty, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateAnswerPayload(tt.selectedOptionID, tt.answerText)
			if (len(errs) == 0) != tt.valid {
				t.Errorf("valid=%v, got errs=%v", tt.valid, errs)
			}
		})
	}
}
