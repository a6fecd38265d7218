package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"yuu/models"
)

// Orchestrator drives a dream through created -> processing -> {analyzed, error}.
// Every transition is a persisted write; every failure ends in a persisted error state.
type Orchestrator struct {
	store    Store
	resolver *Resolver
	analyzer Analyzer
	now      func() time.Time
}

func NewOrchestrator(store Store, resolver *Resolver, analyzer Analyzer) *Orchestrator {
	return &Orchestrator{
		store:    store,
		resolver: resolver,
		analyzer: analyzer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run executes one analysis of dreamID. It never panics and never retries;
// the returned error only reports what was logged.
func (o *Orchestrator) Run(ctx context.Context, dreamID string) error {
	return o.run(ctx, dreamID, false)
}

// Rerun is Run that may also claim a dream left in processing (operator re-trigger).
func (o *Orchestrator) Rerun(ctx context.Context, dreamID string) error {
	return o.run(ctx, dreamID, true)
}

func (o *Orchestrator) run(ctx context.Context, dreamID string, force bool) (err error) {
	log.Printf("analysis: starting dream_id=%s", dreamID)

	// writes must land even when the run's context was cancelled
	writeCtx := context.WithoutCancel(ctx)

	var dream *models.Dream
	claimed := false
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if !claimed {
			log.Printf("analysis: dream_id=%s panic before claim: %v", dreamID, r)
			err = fmt.Errorf("internal error: %v", r)
			return
		}
		err = o.markFailed(writeCtx, dream, fmt.Sprintf("internal error: %v", r))
	}()

	dream, err = o.store.Load(ctx, dreamID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Printf("analysis: dream_id=%s not found, nothing to do", dreamID)
		} else {
			log.Printf("analysis: load dream_id=%s: %v", dreamID, err)
		}
		return err
	}

	if dream.IsTerminal() {
		log.Printf("analysis: dream_id=%s was %s, analyzing again", dreamID, dream.Status)
	}
	dream.Touch(o.now())
	if err := o.store.Claim(writeCtx, dream, force); err != nil {
		log.Printf("analysis: claim dream_id=%s (status=%s): %v", dreamID, dream.Status, err)
		return err
	}
	claimed = true
	log.Printf("analysis: dream_id=%s user_id=%d moved to %s", dream.ID, dream.OwnerID, models.DREAM_STATUS_PROCESSING)

	text, err := o.resolver.Resolve(ctx, dream)
	if err != nil {
		return o.markFailed(writeCtx, dream, err.Error())
	}
	if dream.AudioTranscript != "" && dream.AudioTranscript == text {
		log.Printf("analysis: dream_id=%s transcript ready, length=%d chars", dream.ID, len(dream.AudioTranscript))
	}

	analysis, err := o.analyzer.Analyze(ctx, text)
	if err != nil {
		if !errors.Is(err, ErrAnalysisService) {
			err = fmt.Errorf("%w: %v", ErrAnalysisService, err)
		}
		return o.markFailed(writeCtx, dream, err.Error())
	}
	if analysis == nil {
		return o.markFailed(writeCtx, dream, fmt.Sprintf("%v: empty result", ErrAnalysisService))
	}
	if verr := analysis.Validate(); verr != nil {
		return o.markFailed(writeCtx, dream, fmt.Sprintf("%v: %v", ErrAnalysisService, verr))
	}

	dream.Analysis = analysis
	dream.Status = models.DREAM_STATUS_ANALYZED
	dream.Touch(o.now())
	if err := o.store.Replace(writeCtx, dream); err != nil {
		log.Printf("analysis: dream_id=%s result lost: %v", dream.ID, err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	log.Printf("analysis: dream_id=%s analyzed", dream.ID)
	return nil
}

// markFailed records the error state: analysis is replaced by {status: error, error: message}.
// It returns the failure, or the persistence error if the write itself failed.
func (o *Orchestrator) markFailed(ctx context.Context, dream *models.Dream, message string) error {
	dream.Analysis = models.NewFailedAnalysis(message)
	dream.Status = models.DREAM_STATUS_ERROR
	dream.Touch(o.now())

	if err := o.store.Replace(ctx, dream); err != nil {
		log.Printf("analysis: dream_id=%s failed (%s) and the error state was not saved: %v", dream.ID, message, err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	log.Printf("analysis: dream_id=%s marked as failed: %s", dream.ID, message)
	return errors.New(message)
}
