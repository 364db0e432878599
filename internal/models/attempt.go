package models

import (
	"time"
)

type ExamAttempt struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	ExamID        uint   `json:"exam_id" gorm:"not null;index"`
	StudentID     string `json:"student_id" gorm:"not null;index;size:255"`
	AttemptNumber int    `json:"attempt_number" gorm:"not null;default:1"`

	// Timing
	StartTime        time.Time  `json:"start_time" gorm:"not null"`
	EndTime          *time.Time `json:"end_time"`
	TimeSpentMinutes int        `json:"time_spent_minutes" gorm:"default:0"`

	// Scoring. Score and CorrectAnswers are zero until the attempt is
	// completed; TotalQuestions is snapshotted at start time.
	IsCompleted    bool    `json:"is_completed" gorm:"default:false;index"`
	TotalQuestions int     `json:"total_questions" gorm:"not null;default:0"`
	CorrectAnswers int     `json:"correct_answers" gorm:"default:0"`
	Score          float64 `json:"score" gorm:"type:decimal(5,2);default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam     Exam            `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
	Student  User            `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Answers  []StudentAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
	Feedback *AIFeedback     `json:"feedback,omitempty" gorm:"foreignKey:AttemptID"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

type StudentAnswer struct {
	ID               uint    `json:"id" gorm:"primaryKey"`
	AttemptID        uint    `json:"attempt_id" gorm:"not null;index;uniqueIndex:idx_attempt_question"`
	QuestionID       uint    `json:"question_id" gorm:"not null;index;uniqueIndex:idx_attempt_question"`
	SelectedOptionID *uint   `json:"selected_option_id"`
	AnswerText       *string `json:"answer_text" gorm:"type:text"`

	// Null until evaluated at submission time
	IsCorrect        *bool `json:"is_correct"`
	TimeSpentSeconds int   `json:"time_spent_seconds" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Attempt        ExamAttempt     `json:"-" gorm:"foreignKey:AttemptID"`
	Question       Question        `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	SelectedOption *QuestionOption `json:"selected_option,omitempty" gorm:"foreignKey:SelectedOptionID"`
}

func (StudentAnswer) TableName() string {
	return "student_answers"
}
