package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/foresight/internal/metrics"
	"github.com/ziadkadry99/foresight/internal/model"
)

const (
	synthesisSnippetLength = 200
	noCouncilResponses     = "No doctrine agent responses available."
)

// Analysis is one doctrine agent's successful response.
type Analysis struct {
	AgentID  string `json:"agent_id"`
	Response string `json:"response"`
}

// CouncilResult holds the successful analyses in input agent order and the
// synthesis text built from them.
type CouncilResult struct {
	Analyses  []Analysis `json:"analyses"`
	Synthesis string     `json:"synthesis"`
}

// CouncilOptions bounds how the council runs its agents.
type CouncilOptions struct {
	// Concurrency caps simultaneous agent calls. Values below 1 run agents
	// one at a time.
	Concurrency int
	// AgentTimeout bounds each agent call. Zero means no per-agent deadline.
	AgentTimeout time.Duration
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// RunCouncil sends the combined question block to every agent. An agent that
// returns an error, panics or misses its deadline is logged and left out;
// it never fails the council. Results are assembled in input order
// regardless of completion order.
func RunCouncil(ctx context.Context, questions []string, evidence []model.Evidence, agents []DoctrineAgent, opts CouncilOptions) CouncilResult {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	combined := combineQuestions(questions)

	responses := make([]*string, len(agents))
	var g errgroup.Group
	g.SetLimit(max(opts.Concurrency, 1))
	for i, agent := range agents {
		g.Go(func() error {
			start := time.Now()
			resp, err := analyzeIsolated(ctx, agent, combined, evidence, opts.AgentTimeout)
			if err != nil {
				logger.Warn("doctrine agent failed during council",
					"agent", agent.ID(), "stage", "council", "error", err)
				opts.Metrics.IncAgentFailure(agent.ID())
				return nil
			}
			logger.Debug("doctrine agent answered",
				"agent", agent.ID(), "chars", runeLen(resp), "duration", time.Since(start))
			responses[i] = &resp
			return nil
		})
	}
	_ = g.Wait()

	var result CouncilResult
	for i, resp := range responses {
		if resp == nil {
			continue
		}
		result.Analyses = append(result.Analyses, Analysis{AgentID: agents[i].ID(), Response: *resp})
	}
	result.Synthesis = synthesize(result.Analyses)
	return result
}

func combineQuestions(questions []string) string {
	lines := make([]string, len(questions))
	for i, q := range questions {
		lines[i] = "- " + q
	}
	return strings.Join(lines, "\n")
}

func synthesize(analyses []Analysis) string {
	if len(analyses) == 0 {
		return noCouncilResponses
	}
	parts := make([]string, len(analyses))
	for i, a := range analyses {
		parts[i] = fmt.Sprintf("[%s]: %s", a.AgentID, truncate(a.Response, synthesisSnippetLength))
	}
	return strings.Join(parts, "\n\n")
}

// analyzeIsolated runs one agent call, converting a panic into an error and
// abandoning the call once its deadline passes even if the agent ignores
// ctx.
func analyzeIsolated(ctx context.Context, agent DoctrineAgent, question string, evidence []model.Evidence, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("agent panicked: %v", r)}
			}
		}()
		text, err := agent.Analyze(ctx, question, evidence)
		ch <- result{text: text, err: err}
	}()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("agent %s: %w", agent.ID(), ctx.Err())
	}
}
