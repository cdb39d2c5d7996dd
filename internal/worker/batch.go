package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

// Assessor runs one vendor assessment
type Assessor interface {
	Assess(ctx context.Context, input model.AssessmentInput) (*model.Assessment, error)
}

// InputLoader turns a source (usually a file path) into an assessment input
type InputLoader func(source string) (model.AssessmentInput, error)

// AssessJob assesses the input found at Source
type AssessJob struct {
	Index    int
	Source   string
	Load     InputLoader
	Assessor Assessor
}

// Execute loads and assesses the job's input
func (j *AssessJob) Execute(ctx context.Context) Result {
	start := time.Now()
	res := &AssessResult{Index: j.Index, Source: j.Source}

	input, err := j.Load(j.Source)
	if err != nil {
		res.Error = fmt.Errorf("load %s: %w", j.Source, err)
		res.Duration = time.Since(start)
		return res
	}

	assessment, err := j.Assessor.Assess(ctx, input)
	res.Assessment = assessment
	res.Error = err
	res.Duration = time.Since(start)
	return res
}

// AssessResult is the outcome of one AssessJob
type AssessResult struct {
	Index      int
	Source     string
	Assessment *model.Assessment
	Duration   time.Duration
	Error      error
}

// GetError returns the error from the assessment
func (r *AssessResult) GetError() error {
	return r.Error
}

// BatchProcessor assesses many inputs concurrently
type BatchProcessor struct {
	assessor    Assessor
	load        InputLoader
	concurrency int
	progress    func(done, total int, r *AssessResult)
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(assessor Assessor, load InputLoader, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		assessor:    assessor,
		load:        load,
		concurrency: concurrency,
	}
}

// OnProgress registers a callback invoked after each completed assessment
func (b *BatchProcessor) OnProgress(fn func(done, total int, r *AssessResult)) {
	b.progress = fn
}

// Process assesses every source and returns results in source order.
// Sources never reached because ctx was cancelled carry ctx's error.
func (b *BatchProcessor) Process(ctx context.Context, sources []string) []*AssessResult {
	out := make([]*AssessResult, len(sources))
	if len(sources) == 0 {
		return out
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		defer pool.Close()
		for i, src := range sources {
			job := &AssessJob{Index: i, Source: src, Load: b.load, Assessor: b.assessor}
			if !pool.Submit(job) {
				return
			}
		}
	}()

	done := 0
	for r := range pool.Results() {
		res := r.(*AssessResult)
		out[res.Index] = res
		done++
		if b.progress != nil {
			b.progress(done, len(sources), res)
		}
	}

	for i, res := range out {
		if res == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &AssessResult{Index: i, Source: sources[i], Error: err}
		}
	}
	return out
}
