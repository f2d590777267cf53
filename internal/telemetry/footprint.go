package telemetry

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
)

// TokenCounter counts tokens of text for a model.
type TokenCounter func(model, text string) int

// Footprint is the prompt cost of the tool catalog a client will see.
type Footprint struct {
	Model         string  `json:"model"`
	Tools         int     `json:"tools"`
	Tokens        int     `json:"tokens"`
	ContextWindow int     `json:"context_window"`
	Share         float64 `json:"share"`
}

// TiktokenCounter counts with the model's tiktoken encoding. Loading an
// encoding may fetch BPE ranks over the network; when that fails the count is
// estimated at four bytes per token and a warning is logged.
func TiktokenCounter(logger zerolog.Logger) TokenCounter {
	return func(model, text string) int {
		enc, err := tiktoken.EncodingForModel(model)
		if err != nil {
			logger.Warn().Err(err).Str("model", model).Msg("token encoding unavailable, estimating footprint")
			return len(text) / 4
		}
		return len(enc.EncodeOrdinary(text))
	}
}

// MeasureFootprint serializes tools as they are listed to clients and counts
// their tokens. A nil counter uses TiktokenCounter without logging.
func MeasureFootprint(model string, tools []mcp.Tool, count TokenCounter) (Footprint, error) {
	if count == nil {
		count = TiktokenCounter(zerolog.Nop())
	}
	fp := Footprint{
		Model:         model,
		Tools:         len(tools),
		ContextWindow: llms.GetModelContextSize(model),
	}
	if len(tools) == 0 {
		return fp, nil
	}
	b, err := json.Marshal(tools)
	if err != nil {
		return fp, err
	}
	fp.Tokens = count(model, string(b))
	if fp.ContextWindow > 0 {
		fp.Share = float64(fp.Tokens) / float64(fp.ContextWindow)
	}
	return fp, nil
}

// MeasureFootprintContext is MeasureFootprint bounded by ctx. When ctx ends
// first the count is abandoned and ctx.Err() is returned; the counter keeps
// running in its own goroutine until it returns.
func MeasureFootprintContext(ctx context.Context, model string, tools []mcp.Tool, count TokenCounter) (Footprint, error) {
	type result struct {
		fp  Footprint
		err error
	}
	done := make(chan result, 1)
	go func() {
		fp, err := MeasureFootprint(model, tools, count)
		done <- result{fp: fp, err: err}
	}()

	select {
	case r := <-done:
		return r.fp, r.err
	case <-ctx.Done():
		return Footprint{}, ctx.Err()
	}
}
