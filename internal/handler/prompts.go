package handler

import (
	"fmt"
	"strings"

	"github.com/lingualoop/learning-api/internal/resolver"
)

func lessonPrompt(rc resolver.Context, topic, level string) string {
	return fmt.Sprintf(`Create a %s level %s lesson about %s for a native %s speaker.
Write explanations in %s and examples in %s.

Return ONLY a JSON object with this exact format:
{
  "title": "Lesson title",
  "content": "Lesson text",
  "vocabulary": [{"word": "%s word", "translation": "%s translation"}],
  "cultural_note": "A short cultural note",
  "exercises": ["Exercise 1", "Exercise 2"]
}`, level, rc.TargetName, topic, rc.NativeName,
		rc.NativeName, rc.TargetName,
		rc.TargetName, rc.NativeName)
}

func quizPrompt(rc resolver.Context, level string, count int) string {
	return fmt.Sprintf(`Generate exactly %d multiple choice questions to assess %s level %s proficiency for a %s speaker.

Requirements:
- Each question must have exactly 4 options
- Include "%s" as the 4th option for every question
- Questions should test vocabulary, grammar, and practical usage
- Write the questions in %s
- Difficulty appropriate for %s level

Return ONLY a JSON array with this exact format:
[
  {
    "question": "Question text here",
    "options": ["Correct answer", "Wrong answer 1", "Wrong answer 2", "%s"],
    "correct": 0
  }
]`, count, level, rc.TargetName, rc.NativeName, dontKnow, rc.NativeName, level, dontKnow)
}

func translatePrompt(text, fromName, toName string) string {
	return fmt.Sprintf("Translate the following text from %s to %s. Return only the translation.\n\n%s", fromName, toName, text)
}

func labelPrompt(label, targetName string) string {
	return fmt.Sprintf("Translate '%s' from English to %s. Return only the translation, no explanation.", label, targetName)
}

func descriptionPrompt(rc resolver.Context, description string, expected []string, imageContext string) string {
	return fmt.Sprintf(`You are a language learning assistant. A student learning %s, whose native language is %s, has described an image.

Image context: %s
Expected elements: %s
Student's description in %s: "%s"

Evaluate the description and provide:
1. Accuracy score (0-100) based on how well they described the image
2. Constructive feedback written in %s
3. %s vocabulary suggestions for improvement

Respond ONLY in JSON format:
{
  "accuracy": 85,
  "feedback": "Feedback text",
  "suggestions": ["word1", "word2", "word3"]
}`, rc.TargetName, rc.NativeName,
		imageContext, strings.Join(expected, ", "),
		rc.TargetName, description,
		rc.NativeName, rc.TargetName)
}

// cleanTranslation strips fences and wrapping quotes from a short reply.
func cleanTranslation(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
