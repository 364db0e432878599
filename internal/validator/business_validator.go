package validator

import (
	"strings"

	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// registerExamRules registers the custom rules referenced by request structs.
func (v *Validator) registerExamRules() {
	// Exam duration validation (5-300 minutes)
	v.validate.RegisterValidation("exam_duration", func(fl validator.FieldLevel) bool {
		duration := fl.Field().Int()
		return duration >= 5 && duration <= 300
	})

	// Title validation (1-200 characters)
	v.validate.RegisterValidation("exam_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Description validation (max 1000 characters)
	v.validate.RegisterValidation("exam_description", func(fl validator.FieldLevel) bool {
		desc := fl.Field().String()
		return len(desc) <= 1000
	})

	// question type validation
	v.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		qType := fl.Field().String()
		validTypes := []models.QuestionType{models.MultipleChoice, models.TrueFalse, models.ShortAnswer}
		for _, vt := range validTypes {
			if models.QuestionType(qType) == vt {
				return true
			}
		}
		return false
	})

	// difficulty level validation
	v.validate.RegisterValidation("difficulty_level", func(fl validator.FieldLevel) bool {
		level := fl.Field().String()
		validLevels := []models.DifficultyLevel{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard, models.DifficultyMixed}
		for _, vl := range validLevels {
			if models.DifficultyLevel(level) == vl {
				return true
			}
		}
		return false
	})

	// generated question count (1-20)
	v.validate.RegisterValidation("question_count", func(fl validator.FieldLevel) bool {
		count := fl.Field().Int()
		return count >= 1 && count <= 20
	})
}

// ValidateExamPublish checks that an exam can move to the published state.
func (v *Validator) ValidateExamPublish(exam *models.Exam, questionCount int) ValidationErrors {
	var errs ValidationErrors

	if !exam.IsActive {
		errs = append(errs, ValidationError{
			Field:   "is_active",
			Message: "inactive exam cannot be published",
			Value:   exam.IsActive,
			Rule:    "business_logic",
		})
	}

	if questionCount == 0 {
		errs = append(errs, ValidationError{
			Field:   "questions",
			Message: "exam must have at least one question before publishing",
			Value:   questionCount,
			Rule:    "business_logic",
		})
	}

	return errs
}

// ValidateAnswerPayload checks that an answer submission carries content.
func (v *Validator) ValidateAnswerPayload(selectedOptionID *uint, answerText *string) ValidationErrors {
	if selectedOptionID == nil && (answerText == nil || strings.TrimSpace(*answerText) == "") {
		return ValidationErrors{{
			Field:   "answer",
			Message: "either selected_option_id or answer_text is required",
			Rule:    "business_logic",
		}}
	}
	return nil
}
