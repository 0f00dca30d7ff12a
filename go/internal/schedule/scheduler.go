package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchday/go/internal/conflict"
	"github.com/mcdev12/matchday/go/internal/events"
	"github.com/mcdev12/matchday/go/internal/games"
	"github.com/mcdev12/matchday/go/internal/models"
	"github.com/mcdev12/matchday/go/internal/recurrence"
	"github.com/rs/zerolog/log"
)

// Outcome classifies one scheduling attempt
type Outcome string

const (
	// OutcomeScheduled means the next occurrence was created.
	OutcomeScheduled Outcome = "SCHEDULED"
	// OutcomeConflict means the field is booked at the next occurrence.
	OutcomeConflict Outcome = "CONFLICT"
	// OutcomeSkipped means there was nothing to do: no recurrence, the
	// series ended, or the occurrence already exists.
	OutcomeSkipped Outcome = "SKIPPED"
)

// Result is the outcome of a scheduling attempt plus the created game
type Result struct {
	Outcome  Outcome      `json:"outcome"`
	NextGame *models.Game `json:"next_game,omitempty"`
	Invited  int          `json:"invited"`
}

// TemplateRepository defines what the scheduler needs for templates
type TemplateRepository interface {
	CreateTemplate(ctx context.Context, tpl *models.ScheduleTemplate) (*models.ScheduleTemplate, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*models.ScheduleTemplate, error)
	BackfillScheduleID(ctx context.Context, gameID, scheduleID uuid.UUID) error
	InsertEvent(ctx context.Context, gameID uuid.UUID, eventType string, payload []byte) error
}

// GamesApp is the slice of the games lifecycle the scheduler needs
type GamesApp interface {
	GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error)
	CreateGame(ctx context.Context, req games.CreateGameRequest) (*models.Game, error)
	ListByFieldAndDate(ctx context.Context, fieldID uuid.UUID, date time.Time) ([]models.Game, error)
}

// gameLister adapts GamesApp to the conflict detector
type gameLister struct {
	app GamesApp
}

func (g gameLister) ListByFieldAndDate(ctx context.Context, fieldID uuid.UUID, date time.Time) ([]models.Game, error) {
	return g.app.ListByFieldAndDate(ctx, fieldID, date)
}

// GroupLister loads the member fan-out target for summoning
type GroupLister interface {
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)
}

// Summoner fans invitations out to a member list
type Summoner interface {
	SummonPlayers(ctx context.Context, gameID uuid.UUID, members []models.GroupMember) (int, error)
}

// ScheduleLister finds already materialized occurrences
type ScheduleLister interface {
	ListByScheduleAndDate(ctx context.Context, scheduleID uuid.UUID, date time.Time) ([]models.Game, error)
}

// Scheduler materializes the next occurrence of a recurring series when
// the current one reaches a terminal state. The template, created lazily
// from the first recurring game, is authoritative over venue, time and
// capacity; per-game edits never leak into the series.
type Scheduler struct {
	templates TemplateRepository
	games     GamesApp
	lister    ScheduleLister
	groups    GroupLister
	summoner  Summoner
	detector  *conflict.Detector
	clock     clockwork.Clock
}

// NewScheduler creates a new recurrence scheduler
func NewScheduler(templates TemplateRepository, gamesApp GamesApp, lister ScheduleLister, groups GroupLister, summoner Summoner, clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		templates: templates,
		games:     gamesApp,
		lister:    lister,
		groups:    groups,
		summoner:  summoner,
		detector:  conflict.NewDetector(gameLister{app: gamesApp}),
		clock:     clock,
	}
}

// ScheduleNext materializes the occurrence that follows the given game.
// It is idempotent: if the occurrence already exists the call reports
// OutcomeSkipped without touching anything.
func (s *Scheduler) ScheduleNext(ctx context.Context, sourceGameID uuid.UUID) (*Result, error) {
	source, err := s.games.GetGame(ctx, sourceGameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source game: %w", err)
	}

	if source.Recurrence == models.RecurrenceNone {
		return &Result{Outcome: OutcomeSkipped}, nil
	}
	if source.Recurrence == models.RecurrenceUnknown {
		// Bad persisted value. Scheduling abandons the series rather
		// than erroring, the event is permanently unprocessable.
		log.Warn().
			Str("game_id", sourceGameID.String()).
			Msg("source game carries an unknown recurrence value, not scheduling")
		return &Result{Outcome: OutcomeSkipped}, nil
	}

	tpl, err := s.resolveTemplate(ctx, source)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		// Template deleted: the series is over. Deliberately quiet, the
		// owner ended it on purpose.
		log.Debug().
			Str("game_id", sourceGameID.String()).
			Msg("schedule template gone, series ended")
		return &Result{Outcome: OutcomeSkipped}, nil
	}

	nextDate, err := recurrence.NextDate(source.Date, tpl.Recurrence)
	if err != nil {
		log.Warn().
			Str("schedule_id", tpl.ID.String()).
			Str("recurrence", string(tpl.Recurrence)).
			Msg("template recurrence not computable, not scheduling")
		return &Result{Outcome: OutcomeSkipped}, nil
	}

	existing, err := s.lister.ListByScheduleAndDate(ctx, tpl.ID, nextDate)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing occurrence: %w", err)
	}
	if len(existing) > 0 {
		log.Debug().
			Str("schedule_id", tpl.ID.String()).
			Str("date", nextDate.Format("2006-01-02")).
			Msg("occurrence already materialized")
		return &Result{Outcome: OutcomeSkipped}, nil
	}

	endTime := tpl.EndTime()
	conflicts, err := s.detector.FindConflicts(ctx, conflict.Query{
		FieldID:   tpl.FieldID,
		Date:      nextDate,
		StartTime: tpl.StartTime,
		EndTime:   endTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check field conflicts: %w", err)
	}
	if len(conflicts) > 0 {
		payload, err := json.Marshal(events.ScheduleConflictPayload{
			SourceGameID: sourceGameID.String(),
			Date:         nextDate.Format("2006-01-02"),
			StartTime:    tpl.StartTime,
			EndTime:      endTime,
			Conflicts:    len(conflicts),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ScheduleConflict payload: %w", err)
		}
		if err := s.templates.InsertEvent(ctx, sourceGameID, events.TypeScheduleConflict, payload); err != nil {
			return nil, err
		}
		log.Warn().
			Str("schedule_id", tpl.ID.String()).
			Str("date", nextDate.Format("2006-01-02")).
			Int("conflicts", len(conflicts)).
			Msg("next occurrence conflicts with existing booking")
		return &Result{Outcome: OutcomeConflict}, nil
	}

	// The template is authoritative: venue, time and capacity come from
	// it, not from the (possibly edited) source game. Counters, scores
	// and flags start fresh.
	scheduleID := tpl.ID
	next, err := s.games.CreateGame(ctx, games.CreateGameRequest{
		ScheduleID:                 &scheduleID,
		GroupID:                    tpl.GroupID,
		GroupName:                  tpl.GroupName,
		OwnerID:                    tpl.OwnerID,
		OwnerName:                  tpl.OwnerName,
		LocationID:                 tpl.LocationID,
		LocationName:               tpl.LocationName,
		FieldID:                    tpl.FieldID,
		FieldName:                  tpl.FieldName,
		GameType:                   tpl.FieldType,
		Date:                       nextDate.Format("2006-01-02"),
		StartTime:                  tpl.StartTime,
		EndTime:                    endTime,
		Recurrence:                 tpl.Recurrence,
		MaxPlayers:                 tpl.Capacity.MaxPlayers,
		MaxGoalkeepers:             tpl.Capacity.MaxGoalkeepers,
		ConfirmationDeadlineHours:  source.ConfirmationDeadlineHours,
		WaitlistAutoPromoteMinutes: source.WaitlistAutoPromoteMinutes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create next occurrence: %w", err)
	}

	payload, err := json.Marshal(events.GameScheduledPayload{
		SourceGameID: sourceGameID.String(),
		NextGameID:   next.ID.String(),
		ScheduleID:   tpl.ID.String(),
		Date:         nextDate.Format("2006-01-02"),
		StartTime:    tpl.StartTime,
		ScheduledAt:  s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GameScheduled payload: %w", err)
	}
	if err := s.templates.InsertEvent(ctx, next.ID, events.TypeGameScheduled, payload); err != nil {
		return nil, err
	}

	invited, err := s.summonGroup(ctx, tpl, next)
	if err != nil {
		// The game exists; a failed fan-out should not unwind it.
		log.Error().Err(err).
			Str("game_id", next.ID.String()).
			Msg("failed to summon group members")
	}

	log.Info().
		Str("schedule_id", tpl.ID.String()).
		Str("game_id", next.ID.String()).
		Str("date", nextDate.Format("2006-01-02")).
		Int("invited", invited).
		Msg("materialized next occurrence")
	return &Result{Outcome: OutcomeScheduled, NextGame: next, Invited: invited}, nil
}

// resolveTemplate finds the series template for a recurring game,
// synthesizing one lazily from the first occurrence. A nil template with
// nil error means the series was deliberately ended.
func (s *Scheduler) resolveTemplate(ctx context.Context, source *models.Game) (*models.ScheduleTemplate, error) {
	if source.ScheduleID != nil {
		tpl, err := s.templates.GetTemplate(ctx, *source.ScheduleID)
		if err != nil {
			if errors.Is(err, ErrTemplateNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return tpl, nil
	}

	duration := durationMinutes(source.StartTime, source.EndTime)
	tpl, err := s.templates.CreateTemplate(ctx, &models.ScheduleTemplate{
		ID:              uuid.New(),
		OwnerID:         source.OwnerID,
		OwnerName:       source.OwnerName,
		Name:            fmt.Sprintf("%s %s %s", source.LocationName, source.Date.Weekday(), source.StartTime),
		GroupID:         source.GroupID,
		GroupName:       source.GroupName,
		LocationID:      source.LocationID,
		LocationName:    source.LocationName,
		FieldID:         source.FieldID,
		FieldName:       source.FieldName,
		FieldType:       source.GameType,
		Recurrence:      source.Recurrence,
		DayOfWeek:       source.Date.Weekday(),
		StartTime:       source.StartTime,
		DurationMinutes: duration,
		Capacity: models.CapacityDefaults{
			MaxPlayers:     source.MaxPlayers,
			MaxGoalkeepers: source.MaxGoalkeepers,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize schedule template: %w", err)
	}
	if err := s.templates.BackfillScheduleID(ctx, source.ID, tpl.ID); err != nil {
		return nil, err
	}

	log.Info().
		Str("schedule_id", tpl.ID.String()).
		Str("game_id", source.ID.String()).
		Msg("synthesized schedule template from first occurrence")
	return tpl, nil
}

func (s *Scheduler) summonGroup(ctx context.Context, tpl *models.ScheduleTemplate, game *models.Game) (int, error) {
	if tpl.GroupID == nil {
		return 0, nil
	}
	members, err := s.groups.ListMembers(ctx, *tpl.GroupID)
	if err != nil {
		return 0, fmt.Errorf("failed to list group members: %w", err)
	}
	invited, err := s.summoner.SummonPlayers(ctx, game.ID, members)
	if err != nil {
		return invited, err
	}

	payload, err := json.Marshal(events.PlayersSummonedPayload{
		GameID:     game.ID.String(),
		GroupID:    tpl.GroupID.String(),
		Invited:    invited,
		SummonedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		return invited, fmt.Errorf("failed to marshal PlayersSummoned payload: %w", err)
	}
	if err := s.templates.InsertEvent(ctx, game.ID, events.TypePlayersSummoned, payload); err != nil {
		return invited, err
	}
	return invited, nil
}

func durationMinutes(start, end string) int {
	s, err := time.Parse("15:04", start)
	if err != nil {
		return 0
	}
	e, err := time.Parse("15:04", end)
	if err != nil {
		return 0
	}
	return int(e.Sub(s).Minutes())
}
