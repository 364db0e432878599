package ai

import (
	"fmt"
	"strings"
)

const feedbackSystemPrompt = "You are an encouraging tutor. Respond with valid JSON only, no markdown."

const questionsSystemPrompt = "You are an exam author. Respond with valid JSON only, no markdown."

func buildFeedbackPrompt(examTitle string, score float64, summaries []AnswerSummary) string {
	correct := 0
	var incorrect []AnswerSummary
	for _, s := range summaries {
		if s.IsCorrect {
			correct++
		} else {
			incorrect = append(incorrect, s)
		}
	}

	var b strings.Builder
	b.WriteString("Generate personalized feedback for a student who finished an exam.\n\n")
	fmt.Fprintf(&b, "Exam: %s\n", examTitle)
	fmt.Fprintf(&b, "Score: %.1f%%\n", score)
	fmt.Fprintf(&b, "Correct answers: %d\n", correct)
	fmt.Fprintf(&b, "Incorrect answers: %d\n", len(incorrect))

	if len(incorrect) > 0 {
		b.WriteString("\nQuestions answered incorrectly:\n")
		for i, s := range incorrect {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s.QuestionText)
		}
	}

	b.WriteString(`
Respond with a JSON object with exactly these fields:
{
  "feedbackText": "2-3 sentences of constructive feedback",
  "improvementAreas": ["area 1", "area 2"],
  "strengths": ["strength 1", "strength 2"],
  "recommendedResources": ["resource 1", "resource 2", "resource 3"]
}`)

	return b.String()
}

func buildQuestionsPrompt(topic string, count int, difficulty string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d multiple choice questions about %s at %s difficulty.\n\n", count, topic, difficulty)
	b.WriteString(`Respond with a JSON object with exactly this shape:
{
  "questions": [
    {
      "questionText": "the question",
      "options": ["option A", "option B", "option C", "option D"],
      "correctAnswer": 0,
      "difficulty": "easy|medium|hard",
      "topic": "specific sub-topic"
    }
  ]
}

correctAnswer is the zero-based index into options. Each question must have exactly 4 options.`)

	return b.String()
}

// cleanJSONResponse strips markdown code fences some models insist on adding.
func cleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
