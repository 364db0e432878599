package ai

import (
	"errors"
	"fmt"
)

var errMalformedQuestion = errors.New("malformed question in response")

func errMissingField(field string) error {
	return fmt.Errorf("response missing required field %s", field)
}

// recommendedResources is the same for every score band.
var recommendedResources = []string{
	"Review the study material for this subject",
	"Complete additional practice exercises",
	"Schedule a consultation with your teacher",
	"Join a study group for collaborative learning",
}

// FallbackFeedback is a pure function of the score. Bands are checked
// high-to-low with inclusive lower edges: 90.00 lands in the top band,
// 89.99 does not.
func FallbackFeedback(score float64) *FeedbackContent {
	switch {
	case score >= 90:
		return &FeedbackContent{
			FeedbackText: "Excellent work! You have demonstrated an outstanding command of this material. Keep challenging yourself with more advanced topics.",
			ImprovementAreas: []string{
				"Explore advanced topics beyond the exam scope",
				"Help classmates to reinforce your own understanding",
			},
			Strengths: []string{
				"Outstanding mastery of the subject matter",
				"Consistent accuracy across all question types",
			},
			RecommendedResources: recommendedResources,
		}
	case score >= 70:
		return &FeedbackContent{
			FeedbackText: "Good job! You have a solid grasp of most of the material. Reviewing the questions you missed will push your score even higher.",
			ImprovementAreas: []string{
				"Review the topics behind the questions you missed",
				"Practice similar exercises to close small gaps",
			},
			Strengths: []string{
				"Solid understanding of the core concepts",
				"Good overall performance on the exam",
			},
			RecommendedResources: recommendedResources,
		}
	case score >= 50:
		return &FeedbackContent{
			FeedbackText: "You passed, but there is clear room for improvement. Focus on the fundamentals and revisit the topics where you lost points.",
			ImprovementAreas: []string{
				"Strengthen your grasp of the fundamental concepts",
				"Spend more time on the topics you found difficult",
				"Work through practice questions before the next exam",
			},
			Strengths: []string{
				"Understanding of several key concepts",
				"Willingness to complete the full exam",
			},
			RecommendedResources: recommendedResources,
		}
	default:
		return &FeedbackContent{
			FeedbackText: "This exam was challenging for you, and that is okay. Go back to the basics, take your time with the material, and try again when you feel ready.",
			ImprovementAreas: []string{
				"Revisit the foundational material from the beginning",
				"Ask your teacher for guidance on where to start",
				"Build confidence with easier practice exercises first",
			},
			Strengths: []string{
				"Courage to attempt the exam",
				"A clear starting point for focused improvement",
			},
			RecommendedResources: recommendedResources,
		}
	}
}

// fallbackQuestionLimit caps the placeholder set.
const fallbackQuestionLimit = 5

// FallbackQuestions returns placeholder questions when no provider is
// available. The correct option is always index 1.
func FallbackQuestions(topic string, count int, difficulty string) []GeneratedQuestion {
	if count > fallbackQuestionLimit {
		count = fallbackQuestionLimit
	}
	if count < 1 {
		count = 1
	}

	questions := make([]GeneratedQuestion, 0, count)
	for i := 1; i <= count; i++ {
		questions = append(questions, GeneratedQuestion{
			QuestionText: fmt.Sprintf("Sample question %d about %s (placeholder, replace before publishing)", i, topic),
			Options: []string{
				fmt.Sprintf("Option A for question %d", i),
				fmt.Sprintf("Option B for question %d", i),
				fmt.Sprintf("Option C for question %d", i),
				fmt.Sprintf("Option D for question %d", i),
			},
			CorrectAnswer: 1,
			Difficulty:    difficulty,
			Topic:         topic,
		})
	}

	return questions
}
