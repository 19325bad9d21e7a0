package forecast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/foresight/internal/model"
)

// batchEntry is one event in a batch file.
type batchEntry struct {
	Event         string   `yaml:"event"`
	Horizon       string   `yaml:"horizon"`
	Domain        string   `yaml:"domain"`
	EventCategory string   `yaml:"event_category"`
	BaseRate      *float64 `yaml:"base_rate"`
}

// LoadBatch decodes a YAML list of events into validated requests.
// event_category takes a CAMEO code such as "13" or "043".
func LoadBatch(r io.Reader) ([]Request, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var entries []batchEntry
	if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding batch file: %w", err)
	}

	reqs := make([]Request, 0, len(entries))
	for i, e := range entries {
		req, err := e.request()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func (e batchEntry) request() (Request, error) {
	horizon, err := model.ParseDate(e.Horizon)
	if err != nil {
		return Request{}, fmt.Errorf("%w: horizon: %v", ErrInvalidRequest, err)
	}
	req := Request{Event: e.Event, Horizon: horizon, Domain: model.Domain(e.Domain), BaseRate: e.BaseRate}
	if e.EventCategory != "" {
		cat, ok := model.ClassifyCAMEO(e.EventCategory)
		if !ok {
			return Request{}, fmt.Errorf("%w: unknown CAMEO code %q", ErrInvalidRequest, e.EventCategory)
		}
		req.EventCategory = &cat
	}
	return req, req.Validate()
}

// Progress receives batch progress; progress.Reporter satisfies it.
type Progress interface {
	Start(total int)
	Update(current int, message string)
	Fail(item string, err error)
	Finish()
}

// Saver persists produced forecasts.
type Saver interface {
	Save(ctx context.Context, fc *model.Forecast) error
}

// BatchResult lists the forecasts produced and the events that failed.
type BatchResult struct {
	Forecasts []model.Forecast
	Failed    map[string]error
}

// RunBatch forecasts each request in order. A failed entry is reported and
// skipped; only context cancellation stops the batch early.
func RunBatch(ctx context.Context, runner Runner, saver Saver, reqs []Request, prog Progress, logger *slog.Logger) (BatchResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	res := BatchResult{Failed: map[string]error{}}

	prog.Start(len(reqs))
	defer prog.Finish()

	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		fc, err := runner.Forecast(ctx, req)
		if err == nil && saver != nil {
			err = saver.Save(ctx, fc)
		}
		if err != nil {
			logger.Warn("batch forecast failed", "event", req.Event, "error", err)
			res.Failed[req.Event] = err
			prog.Fail(req.Event, err)
		} else {
			res.Forecasts = append(res.Forecasts, *fc)
		}
		prog.Update(i+1, truncate(req.Event, 60))
	}
	return res, nil
}
