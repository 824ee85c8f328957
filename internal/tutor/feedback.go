package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/llm"
)

// FallbackFeedback is the fixed text used when the feedback provider is
// unavailable outside an exercise, such as the lesson review.
const FallbackFeedback = "Linguistic analysis failed. Check the guide for rules on Amere and Frutes."

const feedbackSystem = `You are an expert conlang professor teaching 'Nalibo'.

CORE LINGUISTICS (STRICT NALIBO GUIDE):
` + curriculum.GrammarSummary + `
SPECIFIC VOCABULARY RULES:
- Eat: Amere (Root)
- Drink: Drinķa (Root)
- Fruit: Frutes
- Coffee: Kafi
- Book: Libre or Boke
- Particles: Must be post-positional (Subject + Particle).`

const feedbackTask = `EXERCISE CONTEXT:
Prompt: %q
Target Answer: %q
User's Attempt: %q

TASK:
If the answer is correct, give a very brief confirmation (e.g. "Sol! Corecta.").
If it is incorrect, name the error (wrong vocabulary, particle order,
adjective placement), cite the rule from the guide and use Markdown to
highlight key terms.`

// FeedbackService asks an LLM to explain a graded answer. It satisfies
// exercise.FeedbackGenerator.
type FeedbackService struct {
	provider  llm.Provider
	maxTokens int
}

// NewFeedbackService creates a FeedbackService.
func NewFeedbackService(p llm.Provider, maxTokens int) *FeedbackService {
	return &FeedbackService{provider: p, maxTokens: maxTokens}
}

// Feedback returns tutor commentary. Errors are returned to the caller,
// which owns the fallback text.
func (f *FeedbackService) Feedback(ctx context.Context, userAnswer, correctAnswer, prompt string) (string, error) {
	ctx = llm.WithPurpose(ctx, PurposeFeedback)

	resp, err := f.provider.Generate(ctx, llm.Request{
		System: feedbackSystem,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf(feedbackTask, prompt, correctAnswer, userAnswer),
		}},
		MaxTokens: f.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("feedback: %w", err)
	}

	text := textContent(resp.Content)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("feedback: empty response")
	}
	return text, nil
}
