// internal/application/usecase/contact_usecase.go
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"optivista/internal/application/docstore"
	"optivista/internal/application/write"
	contactdom "optivista/internal/domain/contact"
)

const triageTimeout = 45 * time.Second

// Creator is the awaited create used where the caller must know the outcome.
type Creator interface {
	NewRef(collection string) docstore.DocumentRef
	Create(ctx context.Context, ref docstore.DocumentRef, data any) error
}

// ContactUsecase accepts contact-form messages. Storing the message is
// awaited; triage and owner notification run afterwards in the background
// and never fail the submission.
type ContactUsecase struct {
	store    Creator
	writer   *write.Writer
	analyzer contactdom.Analyzer
	notifier contactdom.OwnerNotifier
	clock    Clock
	log      *zap.Logger

	wg sync.WaitGroup
}

func NewContactUsecase(
	store Creator,
	writer *write.Writer,
	analyzer contactdom.Analyzer,
	notifier contactdom.OwnerNotifier,
	clock Clock,
	logger *zap.Logger,
) *ContactUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactUsecase{
		store:    store,
		writer:   writer,
		analyzer: analyzer,
		notifier: notifier,
		clock:    orSystemClock(clock),
		log:      logger.Named("contact"),
	}
}

// Submit validates and stores s. Invalid input is reported in the returned
// FormState (Issues non-empty) with a nil error.
func (uc *ContactUsecase) Submit(ctx context.Context, s contactdom.Submission) (contactdom.FormState, error) {
	s.Normalize()
	if issues := s.Validate(); len(issues) > 0 {
		return contactdom.FormState{
			Message: "Invalid form data",
			Fields:  s.Fields(),
			Issues:  issues,
		}, nil
	}

	rec := contactdom.Record{Submission: s, SubmissionDate: uc.clock.Now().UTC()}
	ref := uc.store.NewRef(contactdom.Collection)
	if err := uc.store.Create(ctx, ref, rec); err != nil {
		uc.log.Error("store submission failed", zap.Error(err))
		return contactdom.FormState{Message: fmt.Sprintf("An error occurred: %v", err)}, err
	}

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		uc.triage(ref, rec)
	}()

	return contactdom.FormState{Message: "Message sent successfully and saved!"}, nil
}

// Wait blocks until background triage of earlier submissions is done.
func (uc *ContactUsecase) Wait() {
	uc.wg.Wait()
}

func (uc *ContactUsecase) triage(ref docstore.DocumentRef, rec contactdom.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), triageTimeout)
	defer cancel()

	rec.Analysis = uc.analyze(ctx, rec.Submission)
	if rec.Analysis != nil {
		uc.writer.Update(ref, map[string]any{"analysis": rec.Analysis})
	}

	if rec.Analysis.Flagged() {
		uc.log.Info("submission flagged, owner not notified", zap.String("id", ref.ID))
		return
	}
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.NotifyOwner(ctx, rec); err != nil {
		uc.log.Warn("notify owner failed", zap.String("id", ref.ID), zap.Error(err))
	}
}

// analyze runs both classifications concurrently. A failed call leaves its
// part nil; nil is returned when nothing could be classified.
func (uc *ContactUsecase) analyze(ctx context.Context, s contactdom.Submission) *contactdom.Analysis {
	if uc.analyzer == nil {
		return nil
	}

	var (
		a  contactdom.Analysis
		mu sync.Mutex
		g  errgroup.Group
	)
	g.Go(func() error {
		c, err := uc.analyzer.CheckContent(ctx, s)
		if err != nil {
			uc.log.Warn("content check failed", zap.Error(err))
			return nil
		}
		mu.Lock()
		a.Content = &c
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		st, err := uc.analyzer.AnalyzeSentiment(ctx, s)
		if err != nil {
			uc.log.Warn("sentiment analysis failed", zap.Error(err))
			return nil
		}
		mu.Lock()
		a.Sentiment = &st
		mu.Unlock()
		return nil
	})
	_ = g.Wait()

	if a.Content == nil && a.Sentiment == nil {
		return nil
	}
	return &a
}
