package forecast

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/foresight/internal/model"
)

const (
	questionEvidenceLimit = 10
	minQuestionLength     = 10
)

// GenerateQuestions asks the model for up to maxQuestions decisive questions
// about event. maxQuestions is only an instruction to the model; the parsed
// reply is returned in full. The only error is a failed LLM call.
func GenerateQuestions(ctx context.Context, llm LLMClient, event string, evidence []model.Evidence, maxQuestions int) ([]string, error) {
	raw, err := llm.Call(ctx, questionPrompt(event, evidence, maxQuestions), "")
	if err != nil {
		return nil, fmt.Errorf("generating questions: %w", err)
	}
	return ParseQuestions(raw), nil
}

func questionPrompt(event string, evidence []model.Evidence, maxQuestions int) string {
	var ev strings.Builder
	for i, e := range evidence {
		if i == questionEvidenceLimit {
			break
		}
		if i > 0 {
			ev.WriteString("\n")
		}
		fmt.Fprintf(&ev, "- %s (source: %s)", e.Snippet, e.Source)
	}
	evidenceText := ev.String()
	if evidenceText == "" {
		evidenceText = "No evidence available."
	}

	return fmt.Sprintf("You are analyzing whether: %s\n\n"+
		"Evidence:\n%s\n\n"+
		"Generate %d decisive strategic questions that must be answered to forecast this event. "+
		"Focus on: base rates, key actors' incentives, capability vs intent, historical analogues, "+
		"and disconfirming evidence.\n"+
		"Return one question per line, numbered.", event, evidenceText, maxQuestions)
}

// ParseQuestions extracts questions from a numbered or bulleted model reply.
// Leading numbering and bullet characters are stripped and lines of ten
// characters or fewer are dropped.
func ParseQuestions(raw string) []string {
	var questions []string
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		cleaned := strings.TrimLeft(strings.TrimSpace(line), "0123456789.)- ")
		cleaned = strings.TrimSpace(cleaned)
		if runeLen(cleaned) > minQuestionLength {
			questions = append(questions, cleaned)
		}
	}
	return questions
}
