package models

import (
	"time"

	"gorm.io/gorm"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
	DifficultyMixed  DifficultyLevel = "mixed"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

type Exam struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Title           string          `json:"title" gorm:"not null;size:200"`
	Description     *string         `json:"description" gorm:"type:text"`
	SubjectName     string          `json:"subject_name" gorm:"not null;size:100;index"`
	DurationMinutes int             `json:"duration_minutes" gorm:"not null;default:30"`
	TotalQuestions  int             `json:"total_questions" gorm:"not null;default:0"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level" gorm:"size:20;default:medium"`
	IsPublished     bool            `json:"is_published" gorm:"default:false;index"`
	IsActive        bool            `json:"is_active" gorm:"default:true"`
	TeacherID       string          `json:"teacher_id" gorm:"not null;index;size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Teacher   User          `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Questions []Question    `json:"questions,omitempty" gorm:"foreignKey:ExamID"`
	Attempts  []ExamAttempt `json:"attempts,omitempty" gorm:"foreignKey:ExamID"`
}

func (Exam) TableName() string {
	return "exams"
}

type Question struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	ExamID       uint            `json:"exam_id" gorm:"not null;index"`
	QuestionText string          `json:"question_text" gorm:"not null;type:text"`
	QuestionType QuestionType    `json:"question_type" gorm:"size:30;default:multiple_choice"`
	Difficulty   DifficultyLevel `json:"difficulty" gorm:"size:20;default:medium"`
	Topic        *string         `json:"topic" gorm:"size:100"`
	AIGenerated  bool            `json:"ai_generated" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam    Exam             `json:"-" gorm:"foreignKey:ExamID"`
	Options []QuestionOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

func (Question) TableName() string {
	return "questions"
}

type QuestionOption struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	QuestionID  uint   `json:"question_id" gorm:"not null;index"`
	OptionText  string `json:"option_text" gorm:"not null;type:text"`
	IsCorrect   bool   `json:"is_correct" gorm:"default:false"`
	OptionOrder int    `json:"option_order" gorm:"not null;default:1"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Question Question `json:"-" gorm:"foreignKey:QuestionID"`
}

func (QuestionOption) TableName() string {
	return "question_options"
}
