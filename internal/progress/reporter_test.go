package progress

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReporterSelectsCI(t *testing.T) {
	t.Setenv("CI", "true")
	_, ok := NewReporter("Forecasting").(*CIReporter)
	assert.True(t, ok)

	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	_, ok = NewReporter("Forecasting").(*TerminalReporter)
	assert.True(t, ok)
}

func TestCIReporterLines(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Label: "Forecasting", Out: &buf}
	r.Start(2)
	r.Update(1, "event one")
	r.Fail("event two", errors.New("llm down"))
	r.Update(2, "event two")
	r.Finish()

	assert.Equal(t, "Forecasting: starting 2 items\n"+
		"[1/2] event one\n"+
		"FAILED event two: llm down\n"+
		"[2/2] event two\n"+
		"Forecasting: complete (1 failed)\n", buf.String())
}

func TestTerminalReporterListsFailures(t *testing.T) {
	var buf bytes.Buffer
	r := &TerminalReporter{Label: "Forecasting", Out: &buf}
	r.Start(1)
	r.Fail("event one", errors.New("boom"))
	r.Update(1, "event one")
	r.Finish()

	assert.Contains(t, buf.String(), "failed: event one: boom\n")
}
