package forecast

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/foresight/internal/model"
)

type scriptedRunner struct {
	fail map[string]error
}

func (r scriptedRunner) Forecast(_ context.Context, req Request) (*model.Forecast, error) {
	if err := r.fail[req.Event]; err != nil {
		return nil, err
	}
	return &model.Forecast{
		ID:                 "fc_" + strings.ReplaceAll(strings.ToLower(req.Event), " ", "_"),
		Event:              req.Event,
		Horizon:            req.Horizon,
		Probability:        0.5,
		ConfidenceInterval: model.DefaultConfidenceInterval,
		Domain:             req.Domain,
		Status:             model.ForecastOpen,
	}, nil
}

type recordingProgress struct {
	total   int
	updates []int
	failed  []string
	done    bool
}

func (p *recordingProgress) Start(total int)              { p.total = total }
func (p *recordingProgress) Update(current int, _ string) { p.updates = append(p.updates, current) }
func (p *recordingProgress) Fail(item string, _ error)    { p.failed = append(p.failed, item) }
func (p *recordingProgress) Finish()                      { p.done = true }

const batchYAML = `
- event: Ceasefire collapses
  horizon: 2026-12-31
  domain: military
  event_category: "19"
  base_rate: 0.3
- event: Sanctions lifted
  horizon: "2027-06-30"
  domain: economic
`

func TestLoadBatch(t *testing.T) {
	reqs, err := LoadBatch(strings.NewReader(batchYAML))
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, "Ceasefire collapses", reqs[0].Event)
	assert.Equal(t, "2026-12-31", reqs[0].Horizon.String())
	require.NotNil(t, reqs[0].EventCategory)
	assert.Equal(t, model.EventFight, *reqs[0].EventCategory)
	assert.InDelta(t, 0.3, *reqs[0].BaseRate, 1e-9)
	assert.Nil(t, reqs[1].EventCategory)
	assert.Equal(t, model.DomainEconomic, reqs[1].Domain)

	empty, err := LoadBatch(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLoadBatchRejectsBadEntries(t *testing.T) {
	cases := []string{
		"- event: x\n  horizon: 2026-12-31\n  domain: weather\n",
		"- event: x\n  horizon: tomorrow\n  domain: cyber\n",
		"- event: x\n  horizon: 2026-12-31\n  domain: cyber\n  event_category: \"99\"\n",
		"- event: x\n  horizon: 2026-12-31\n  domain: cyber\n  probability: 0.4\n",
	}
	for _, c := range cases {
		_, err := LoadBatch(strings.NewReader(c))
		assert.Error(t, err, c)
	}

	_, err := LoadBatch(strings.NewReader("- event: \"\"\n  horizon: 2026-12-31\n  domain: cyber\n"))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRunBatchContinuesPastFailures(t *testing.T) {
	store := setupStore(t)
	reqs, err := LoadBatch(strings.NewReader(batchYAML))
	require.NoError(t, err)

	boom := errors.New("llm down")
	prog := &recordingProgress{}
	res, err := RunBatch(context.Background(), scriptedRunner{fail: map[string]error{"Ceasefire collapses": boom}},
		store, reqs, prog, discardLogger())
	require.NoError(t, err)

	require.Len(t, res.Forecasts, 1)
	assert.Equal(t, "Sanctions lifted", res.Forecasts[0].Event)
	assert.ErrorIs(t, res.Failed["Ceasefire collapses"], boom)

	assert.Equal(t, 2, prog.total)
	assert.Equal(t, []int{1, 2}, prog.updates)
	assert.Equal(t, []string{"Ceasefire collapses"}, prog.failed)
	assert.True(t, prog.done)

	saved, err := store.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func TestRunBatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reqs, err := LoadBatch(strings.NewReader(batchYAML))
	require.NoError(t, err)

	prog := &recordingProgress{}
	_, err = RunBatch(ctx, scriptedRunner{}, nil, reqs, prog, discardLogger())
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, prog.done)
	assert.Empty(t, prog.updates)
}
