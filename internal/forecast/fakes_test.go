package forecast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ziadkadry99/foresight/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLLM answers question-generation prompts with questions and every other
// prompt with probability.
type fakeLLM struct {
	mu           sync.Mutex
	questions    string
	questionsErr error
	probability  string
	probErr      error
	prompts      []string
}

func (f *fakeLLM) Call(_ context.Context, prompt, _ string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if strings.Contains(prompt, "decisive strategic questions") {
		return f.questions, f.questionsErr
	}
	return f.probability, f.probErr
}

func (f *fakeLLM) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[len(f.prompts)-1]
}

type fakeAgent struct {
	id       string
	response string
	err      error
	panics   bool
	delay    time.Duration
	gotQ     string
}

func (a *fakeAgent) ID() string { return a.id }

func (a *fakeAgent) Analyze(ctx context.Context, question string, _ []model.Evidence) (string, error) {
	a.gotQ = question
	if a.panics {
		panic("doctrine exploded")
	}
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return a.response, a.err
}

type fakeRetriever struct {
	evidence []model.Evidence
	err      error
	gotTopK  int
}

func (r *fakeRetriever) Retrieve(_ context.Context, _ string, topK int) ([]model.Evidence, error) {
	r.gotTopK = topK
	return r.evidence, r.err
}

var errAgent = errors.New("agent unavailable")
