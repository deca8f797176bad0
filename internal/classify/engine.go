// Package classify runs the batch classification pipeline: partition the
// keywords, prompt the model once per batch, parse each response, and degrade
// any failed batch to blank rows so every keyword survives to the output.
package classify

import (
	"context"
	"log"
	"time"

	"tagsheet/internal/domain"
	"tagsheet/internal/llm"
	"tagsheet/internal/mdtable"
	"tagsheet/internal/prompt"
)

const (
	DefaultBatchSize  = 200
	defaultLLMTimeout = 120 * time.Second
)

// KeywordHeader is the fixed first output column.
const KeywordHeader = "Original keyword"

// ProgressFunc observes batch dispatch. Purely informational; it must not
// affect control flow.
type ProgressFunc func(batchNum, totalBatches, batchSize int)

type Engine struct {
	gen       llm.Generator
	batchSize int
	timeout   time.Duration
}

func NewEngine(gen llm.Generator, batchSize int, timeout time.Duration) *Engine {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}
	return &Engine{gen: gen, batchSize: batchSize, timeout: timeout}
}

// Result is the aggregated outcome of one classification job. FailedBatches
// counts batches that degraded to blank fallback rows.
type Result struct {
	Headers       []string
	Rows          [][]string
	TotalBatches  int
	FailedBatches int
}

// Headers returns the output header row for a request: the keyword column
// followed by the request's columns in their fixed order.
func Headers(req *domain.ClassificationRequest) []string {
	headers := make([]string, 0, len(req.Columns)+1)
	headers = append(headers, KeywordHeader)
	for _, c := range req.Columns {
		headers = append(headers, c.Name)
	}
	return headers
}

// Classify processes every keyword of the request in contiguous batches,
// strictly sequentially to bound load on the upstream API. A batch that fails
// for any reason (call error, timeout, unparseable response) contributes one
// blank row per keyword instead of stopping the job. batchSize <= 0 uses the
// engine default.
func (e *Engine) Classify(ctx context.Context, req *domain.ClassificationRequest, rules string, batchSize int, progress ProgressFunc) Result {
	if batchSize < 1 {
		batchSize = e.batchSize
	}

	headers := Headers(req)

	var batches [][]string
	for start := 0; start < len(req.Keywords); start += batchSize {
		end := start + batchSize
		if end > len(req.Keywords) {
			end = len(req.Keywords)
		}
		batches = append(batches, req.Keywords[start:end])
	}

	res := Result{Headers: headers, TotalBatches: len(batches)}

	for i, batch := range batches {
		if progress != nil {
			progress(i+1, len(batches), len(batch))
		}

		rows, err := e.classifyBatch(ctx, req, rules, batch, len(headers))
		if err != nil {
			log.Printf("classify batch=%d/%d failed, emitting blank rows for %d keywords: %v", i+1, len(batches), len(batch), err)
			res.FailedBatches++
			for _, kw := range batch {
				row := make([]string, len(headers))
				row[0] = kw
				res.Rows = append(res.Rows, row)
			}
			continue
		}
		res.Rows = append(res.Rows, rows...)
	}

	return res
}

func (e *Engine) classifyBatch(ctx context.Context, req *domain.ClassificationRequest, rules string, batch []string, expectedColumns int) ([][]string, error) {
	p, err := prompt.Build(rules, *req, batch)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	text, err := e.gen.Generate(cctx, p)
	if err != nil {
		return nil, err
	}

	// Zero accepted rows is a valid outcome; only call/parse errors fall back.
	return mdtable.Parse(text, batch, expectedColumns), nil
}
