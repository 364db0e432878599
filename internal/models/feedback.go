package models

import (
	"time"

	"gorm.io/datatypes"
)

// AIFeedback is written exactly once per completed attempt by the feedback
// pipeline. Absence of a row is a normal state (generation failed or has not
// happened yet).
type AIFeedback struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	AttemptID uint   `json:"attempt_id" gorm:"not null;uniqueIndex"`
	StudentID string `json:"student_id" gorm:"not null;index;size:255"`

	FeedbackText         string         `json:"feedback_text" gorm:"not null;type:text"`
	ImprovementAreas     datatypes.JSON `json:"improvement_areas" gorm:"type:jsonb"`
	Strengths            datatypes.JSON `json:"strengths" gorm:"type:jsonb"`
	RecommendedResources datatypes.JSON `json:"recommended_resources" gorm:"type:jsonb"`

	GeneratedAt time.Time `json:"generated_at"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	Attempt ExamAttempt `json:"-" gorm:"foreignKey:AttemptID"`
	Student User        `json:"-" gorm:"foreignKey:StudentID"`
}

func (AIFeedback) TableName() string {
	return "ai_feedbacks"
}
