package achievements

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/LieutenantJoseph/flashfungi/internal/events"
	"github.com/LieutenantJoseph/flashfungi/internal/logger"
	"github.com/LieutenantJoseph/flashfungi/internal/store"
	"github.com/LieutenantJoseph/flashfungi/internal/userlock"
)

const tracerName = "github.com/LieutenantJoseph/flashfungi/internal/achievements"

const defaultConcurrency = 8

// Service applies study events to users' achievement progress.
type Service struct {
	catalog     *Catalog
	progress    store.ProgressRepo
	eventRepo   store.EventRepo
	locker      userlock.Locker
	log         *logger.Logger
	tracer      trace.Tracer
	now         func() time.Time
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithEventRepo records every award in the event log.
func WithEventRepo(r store.EventRepo) Option {
	return func(s *Service) { s.eventRepo = r }
}

// WithLocker replaces the default in-process user lock.
func WithLocker(l userlock.Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithClock sets the time used for envelopes without OccurredAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithConcurrency caps how many users ProcessBatch handles at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a Service over the given catalog and progress store.
func NewService(catalog *Catalog, progress store.ProgressRepo, opts ...Option) *Service {
	s := &Service{
		catalog:     catalog,
		progress:    progress,
		locker:      userlock.NewLocal(),
		log:         logger.Nop(),
		tracer:      otel.Tracer(tracerName),
		now:         time.Now,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the catalog the service evaluates against.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Process evaluates one event for its user and applies every resulting
// decision. It returns the achievements this call newly earned.
//
// Redelivering an envelope with the same ID is a no-op. A storage error
// is returned as is; replaying the envelope afterwards is safe.
func (s *Service) Process(ctx context.Context, env events.Envelope) (awards []Award, err error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	kind, _ := events.KindOf(env.Event)

	ctx, span := s.tracer.Start(ctx, "achievements.Process", trace.WithAttributes(
		attribute.String("user.id", env.UserID),
		attribute.String("event.id", env.ID),
		attribute.String("event.kind", string(kind)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("awards", len(awards)))
		span.End()
	}()

	unlock, err := s.locker.Lock(ctx, env.UserID)
	if err != nil {
		return nil, fmt.Errorf("lock user %s: %w", env.UserID, err)
	}
	defer unlock()

	records, err := s.progress.ListProgress(ctx, env.UserID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	set := make(ProgressSet, len(records))
	for _, r := range records {
		set[r.AchievementID] = Progress{Progress: r.Progress, Earned: r.Earned()}
	}

	decisions, err := Evaluate(env.Event, s.catalog.List(""), set)
	if err != nil {
		return nil, err
	}

	at := env.OccurredAt
	if at.IsZero() {
		at = s.now()
	}
	log := s.log.With("user_id", env.UserID, "event_id", env.ID, "kind", kind)

	for _, d := range decisions {
		res, err := s.progress.ApplyProgress(ctx, store.ProgressUpdate{
			UserID:        env.UserID,
			AchievementID: d.Definition.ID,
			EventID:       env.ID,
			Delta:         d.Delta,
			Target:        d.Target,
			At:            at,
		})
		if err != nil {
			log.Error("apply progress failed", "achievement_id", d.Definition.ID, "error", err)
			return awards, fmt.Errorf("apply %s: %w", d.Definition.ID, err)
		}

		switch res.Outcome {
		case store.OutcomeDuplicate:
			log.Debug("duplicate delivery", "achievement_id", d.Definition.ID)
			continue
		case store.OutcomeAlreadyEarned:
			log.Debug("already earned", "achievement_id", d.Definition.ID)
			continue
		}
		if !res.NewlyEarned {
			continue
		}

		award := Award{
			UserID:     env.UserID,
			Definition: d.Definition,
			EventID:    env.ID,
			Reason:     d.Reason,
			Progress:   res.Progress.Progress,
		}
		awards = append(awards, award)
		log.Info("achievement earned",
			"achievement_id", d.Definition.ID,
			"rarity", d.Definition.Rarity,
			"points", d.Definition.Points,
		)
		s.persist(ctx, log, award)
	}
	return awards, nil
}

// ProcessBatch processes envelopes grouped by user. Users run in parallel;
// each user's envelopes run in the order given. Awards are returned grouped
// by user in first-seen order.
func (s *Service) ProcessBatch(ctx context.Context, envs []events.Envelope) ([]Award, error) {
	var (
		order  []string
		byUser = make(map[string][]events.Envelope)
	)
	for _, env := range envs {
		if _, ok := byUser[env.UserID]; !ok {
			order = append(order, env.UserID)
		}
		byUser[env.UserID] = append(byUser[env.UserID], env)
	}

	results := make([][]Award, len(order))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, user := range order {
		g.Go(func() error {
			for _, env := range byUser[user] {
				awards, err := s.Process(ctx, env)
				results[i] = append(results[i], awards...)
				if err != nil {
					return fmt.Errorf("event %s: %w", env.ID, err)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	var all []Award
	for _, r := range results {
		all = append(all, r...)
	}
	return all, err
}

// Status is a user's standing on one catalog entry.
type Status struct {
	Definition Definition
	Progress   int
	Target     int
	EarnedAt   *time.Time
}

// Status returns the user's standing on every catalog entry.
func (s *Service) Status(ctx context.Context, userID string) ([]Status, error) {
	records, err := s.progress.ListProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	byID := make(map[string]store.ProgressRecord, len(records))
	for _, r := range records {
		byID[r.AchievementID] = r
	}

	defs := s.catalog.List("")
	out := make([]Status, len(defs))
	for i, d := range defs {
		target := 1
		if d.Type.Accumulates() {
			target, _ = d.Threshold()
		}
		rec := byID[d.ID]
		out[i] = Status{Definition: d, Progress: rec.Progress, Target: target, EarnedAt: rec.EarnedAt}
	}
	return out, nil
}

// persist records the award in the event log. Failures are logged, not
// returned: the award itself is already stored.
func (s *Service) persist(ctx context.Context, log *logger.Logger, award Award) {
	if s.eventRepo == nil {
		return
	}
	err := s.eventRepo.AppendAwardEvent(ctx, store.AwardEventData{
		UserID:        award.UserID,
		AchievementID: award.Definition.ID,
		Category:      award.Definition.Category,
		Rarity:        string(award.Definition.Rarity),
		Points:        award.Definition.Points,
		EventID:       award.EventID,
		Reason:        award.Reason,
	})
	if err != nil {
		log.Error("record award event failed", "achievement_id", award.Definition.ID, "error", err)
	}
}
