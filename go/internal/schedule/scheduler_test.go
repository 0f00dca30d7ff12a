package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchday/go/internal/games"
	"github.com/mcdev12/matchday/go/internal/models"
)

type fakeTemplates struct {
	templates map[uuid.UUID]*models.ScheduleTemplate
	backfills map[uuid.UUID]uuid.UUID
	events    []string
}

func newFakeTemplates() *fakeTemplates {
	return &fakeTemplates{
		templates: make(map[uuid.UUID]*models.ScheduleTemplate),
		backfills: make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeTemplates) CreateTemplate(ctx context.Context, tpl *models.ScheduleTemplate) (*models.ScheduleTemplate, error) {
	cp := *tpl
	f.templates[tpl.ID] = &cp
	return &cp, nil
}

func (f *fakeTemplates) GetTemplate(ctx context.Context, id uuid.UUID) (*models.ScheduleTemplate, error) {
	tpl, ok := f.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	cp := *tpl
	return &cp, nil
}

func (f *fakeTemplates) BackfillScheduleID(ctx context.Context, gameID, scheduleID uuid.UUID) error {
	f.backfills[gameID] = scheduleID
	return nil
}

func (f *fakeTemplates) InsertEvent(ctx context.Context, gameID uuid.UUID, eventType string, payload []byte) error {
	f.events = append(f.events, eventType)
	return nil
}

type fakeGamesApp struct {
	games map[uuid.UUID]*models.Game
}

func newFakeGamesApp() *fakeGamesApp {
	return &fakeGamesApp{games: make(map[uuid.UUID]*models.Game)}
}

func (f *fakeGamesApp) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	g, ok := f.games[id]
	if !ok {
		return nil, games.ErrGameNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGamesApp) CreateGame(ctx context.Context, req games.CreateGameRequest) (*models.Game, error) {
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return nil, err
	}
	g := &models.Game{
		ID:             uuid.New(),
		ScheduleID:     req.ScheduleID,
		GroupID:        req.GroupID,
		GroupName:      req.GroupName,
		OwnerID:        req.OwnerID,
		OwnerName:      req.OwnerName,
		LocationID:     req.LocationID,
		LocationName:   req.LocationName,
		FieldID:        req.FieldID,
		FieldName:      req.FieldName,
		GameType:       req.GameType,
		Date:           date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Status:         models.GameStatusScheduled,
		Recurrence:     req.Recurrence,
		MaxPlayers:     req.MaxPlayers,
		MaxGoalkeepers: req.MaxGoalkeepers,
	}
	f.games[g.ID] = g
	cp := *g
	return &cp, nil
}

func (f *fakeGamesApp) ListByFieldAndDate(ctx context.Context, fieldID uuid.UUID, date time.Time) ([]models.Game, error) {
	var out []models.Game
	for _, g := range f.games {
		if g.FieldID == fieldID && g.Date.Equal(date) {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGamesApp) ListByScheduleAndDate(ctx context.Context, scheduleID uuid.UUID, date time.Time) ([]models.Game, error) {
	var out []models.Game
	for _, g := range f.games {
		if g.ScheduleID != nil && *g.ScheduleID == scheduleID && g.Date.Equal(date) {
			out = append(out, *g)
		}
	}
	return out, nil
}

type fakeGroups struct {
	members map[uuid.UUID][]models.GroupMember
}

func (f *fakeGroups) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	return f.members[groupID], nil
}

type fakeSummoner struct {
	summoned map[uuid.UUID]int
}

func (f *fakeSummoner) SummonPlayers(ctx context.Context, gameID uuid.UUID, members []models.GroupMember) (int, error) {
	if f.summoned == nil {
		f.summoned = make(map[uuid.UUID]int)
	}
	f.summoned[gameID] = len(members)
	return len(members), nil
}

type schedulerFixture struct {
	scheduler *Scheduler
	templates *fakeTemplates
	games     *fakeGamesApp
	groups    *fakeGroups
	summoner  *fakeSummoner
}

func newSchedulerFixture() *schedulerFixture {
	templates := newFakeTemplates()
	gamesApp := newFakeGamesApp()
	groups := &fakeGroups{members: make(map[uuid.UUID][]models.GroupMember)}
	summoner := &fakeSummoner{}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 4, 22, 0, 0, 0, time.UTC))
	return &schedulerFixture{
		scheduler: NewScheduler(templates, gamesApp, gamesApp, groups, summoner, clock),
		templates: templates,
		games:     gamesApp,
		groups:    groups,
		summoner:  summoner,
	}
}

func recurringGame(rec models.RecurrenceType) *models.Game {
	return &models.Game{
		ID:             uuid.New(),
		OwnerID:        uuid.New(),
		OwnerName:      "Marta",
		LocationID:     uuid.New(),
		LocationName:   "Riverside Park",
		FieldID:        uuid.New(),
		FieldName:      "Field 2",
		GameType:       "7v7",
		Date:           time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), // a Tuesday
		StartTime:      "19:00",
		EndTime:        "20:00",
		Status:         models.GameStatusFinished,
		Recurrence:     rec,
		MaxPlayers:     14,
		MaxGoalkeepers: 2,
	}
}

func TestScheduleNextSynthesizesTemplate(t *testing.T) {
	fx := newSchedulerFixture()
	ctx := context.Background()

	source := recurringGame(models.RecurrenceWeekly)
	fx.games.games[source.ID] = source

	res, err := fx.scheduler.ScheduleNext(ctx, source.ID)
	if err != nil {
		t.Fatalf("ScheduleNext: %v", err)
	}
	if res.Outcome != OutcomeScheduled {
		t.Fatalf("outcome = %s, want SCHEDULED", res.Outcome)
	}

	next := res.NextGame
	if got := next.Date.Format("2006-01-02"); got != "2024-06-11" {
		t.Errorf("next date = %s, want 2024-06-11", got)
	}
	if next.StartTime != "19:00" || next.EndTime != "20:00" {
		t.Errorf("next times = %s-%s", next.StartTime, next.EndTime)
	}
	if next.Status != models.GameStatusScheduled {
		t.Errorf("next status = %s, want SCHEDULED", next.Status)
	}
	if next.PlayersCount != 0 || next.GoalkeepersCount != 0 {
		t.Error("counters must reset on the new occurrence")
	}
	if next.ScheduleID == nil {
		t.Fatal("next game must carry the schedule id")
	}

	// Template was synthesized and backfilled onto the first occurrence.
	if len(fx.templates.templates) != 1 {
		t.Fatalf("templates = %d, want 1", len(fx.templates.templates))
	}
	if fx.templates.backfills[source.ID] != *next.ScheduleID {
		t.Error("source game should be backfilled with the template id")
	}
	tpl := fx.templates.templates[*next.ScheduleID]
	if tpl.DurationMinutes != 60 {
		t.Errorf("template duration = %d, want 60", tpl.DurationMinutes)
	}
	if tpl.Capacity.MaxPlayers != 14 || tpl.Capacity.MaxGoalkeepers != 2 {
		t.Errorf("template capacity = %+v", tpl.Capacity)
	}
}

func TestScheduleNextIdempotent(t *testing.T) {
	fx := newSchedulerFixture()
	ctx := context.Background()

	source := recurringGame(models.RecurrenceWeekly)
	fx.games.games[source.ID] = source

	first, err := fx.scheduler.ScheduleNext(ctx, source.ID)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	// The source now belongs to the series, as BackfillScheduleID would
	// have persisted.
	source.ScheduleID = first.NextGame.ScheduleID

	second, err := fx.scheduler.ScheduleNext(ctx, source.ID)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.Outcome != OutcomeSkipped {
		t.Errorf("second outcome = %s, want SKIPPED", second.Outcome)
	}
	if len(fx.games.games) != 2 {
		t.Errorf("games = %d, want 2 (source + one occurrence)", len(fx.games.games))
	}
}

func TestScheduleNextTemplateAuthoritative(t *testing.T) {
	fx := newSchedulerFixture()
	ctx := context.Background()

	tplID := uuid.New()
	fx.templates.templates[tplID] = &models.ScheduleTemplate{
		ID:              tplID,
		OwnerID:         uuid.New(),
		OwnerName:       "Marta",
		LocationID:      uuid.New(),
		LocationName:    "Riverside Park",
		FieldID:         uuid.New(),
		FieldName:       "Field 2",
		FieldType:       "7v7",
		Recurrence:      models.RecurrenceWeekly,
		DayOfWeek:       time.Tuesday,
		StartTime:       "19:00",
		DurationMinutes: 90,
		Capacity:        models.CapacityDefaults{MaxPlayers: 10, MaxGoalkeepers: 2},
	}

	// The source game was edited away from the template.
	source := recurringGame(models.RecurrenceWeekly)
	source.ScheduleID = &tplID
	source.StartTime = "21:00"
	source.EndTime = "22:00"
	source.MaxPlayers = 20
	fx.games.games[source.ID] = source

	res, err := fx.scheduler.ScheduleNext(ctx, source.ID)
	if err != nil {
		t.Fatalf("ScheduleNext: %v", err)
	}
	next := res.NextGame
	if next.StartTime != "19:00" || next.EndTime != "20:30" {
		t.Errorf("next times = %s-%s, want template's 19:00-20:30", next.StartTime, next.EndTime)
	}
	if next.MaxPlayers != 10 {
		t.Errorf("next capacity = %d, want template's 10", next.MaxPlayers)
	}
}

func TestScheduleNextConflict(t *testing.T) {
	fx := newSchedulerFixture()
	ctx := context.Background()

	source := recurringGame(models.RecurrenceWeekly)
	fx.games.games[source.ID] = source

	// Another game already books the field next Tuesday 19:30-20:30.
	blocker := recurringGame(models.RecurrenceNone)
	blocker.ID = uuid.New()
	blocker.FieldID = source.FieldID
	blocker.Date = time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	blocker.StartTime = "19:30"
	blocker.EndTime = "20:30"
	blocker.Status = models.GameStatusScheduled
	fx.games.games[blocker.ID] = blocker

	res, err := fx.scheduler.ScheduleNext(ctx, source.ID)
	if err != nil {
		t.Fatalf("ScheduleNext: %v", err)
	}
	if res.Outcome != OutcomeConflict {
		t.Fatalf("outcome = %s, want CONFLICT", res.Outcome)
	}
	if res.NextGame != nil {
		t.Error("no game should be created on conflict")
	}
	if len(fx.templates.events) != 1 || fx.templates.events[0] != "ScheduleConflict" {
		t.Errorf("events = %v, want one ScheduleConflict", fx.templates.events)
	}
}

func TestScheduleNextCancelledBlockerIgnored(t *testing.T) {
	fx := newSchedulerFixture()
	ctx := context.Background()

	source := recurringGame(models.RecurrenceWeekly)
	fx.games.games[source.ID] = source

	blocker := recurringGame(models.RecurrenceNone)
	blocker.ID = uuid.New()
	blocker.FieldID = source.FieldID
	blocker.Date = time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	blocker.Status = models.GameStatusCancelled
	fx.games.games[blocker.ID] = blocker

	res, err := fx.scheduler.ScheduleNext(ctx, source.ID)
	if err != nil {
		t.Fatalf("ScheduleNext: %v", err)
	}
	if res.Outcome != OutcomeScheduled {
		t.Errorf("outcome = %s, want SCHEDULED over a cancelled booking", res.Outcome)
	}
}

func TestScheduleNextSeriesEnded(t *testing.T) {
	fx := newSchedulerFixture()
	ctx := context.Background()

	deleted := uuid.New()
	source := recurringGame(models.RecurrenceWeekly)
	source.ScheduleID = &deleted
	fx.games.games[source.ID] = source

	res, err := fx.scheduler.ScheduleNext(ctx, source.ID)
	if err != nil {
		t.Fatalf("ScheduleNext: %v", err)
	}
	if res.Outcome != OutcomeSkipped {
		t.Errorf("outcome = %s, want SKIPPED for a deleted template", res.Outcome)
	}
	if len(fx.games.games) != 1 {
		t.Error("no occurrence should be created after the series ended")
	}
}

func TestScheduleNextNoRecurrence(t *testing.T) {
	fx := newSchedulerFixture()
	ctx := context.Background()

	source := recurringGame(models.RecurrenceNone)
	fx.games.games[source.ID] = source

	res, err := fx.scheduler.ScheduleNext(ctx, source.ID)
	if err != nil {
		t.Fatalf("ScheduleNext: %v", err)
	}
	if res.Outcome != OutcomeSkipped {
		t.Errorf("outcome = %s, want SKIPPED", res.Outcome)
	}
}

func TestScheduleNextUnknownRecurrence(t *testing.T) {
	fx := newSchedulerFixture()
	ctx := context.Background()

	source := recurringGame(models.RecurrenceUnknown)
	fx.games.games[source.ID] = source

	// A corrupt recurrence value abandons the series. Callers retrying
	// on error would redeliver a permanently bad event forever.
	res, err := fx.scheduler.ScheduleNext(ctx, source.ID)
	if err != nil {
		t.Fatalf("ScheduleNext: %v", err)
	}
	if res.Outcome != OutcomeSkipped {
		t.Errorf("outcome = %s, want SKIPPED", res.Outcome)
	}
	if len(fx.games.games) != 1 {
		t.Errorf("games in store = %d, want only the source", len(fx.games.games))
	}
}

func TestScheduleNextSummonsGroup(t *testing.T) {
	fx := newSchedulerFixture()
	ctx := context.Background()

	groupID := uuid.New()
	groupName := "Tuesday Crew"
	fx.groups.members[groupID] = []models.GroupMember{
		{GroupID: groupID, UserID: uuid.New(), UserName: "Ana"},
		{GroupID: groupID, UserID: uuid.New(), UserName: "Bruno"},
		{GroupID: groupID, UserID: uuid.New(), UserName: "Caio"},
	}

	source := recurringGame(models.RecurrenceWeekly)
	source.GroupID = &groupID
	source.GroupName = &groupName
	fx.games.games[source.ID] = source

	res, err := fx.scheduler.ScheduleNext(ctx, source.ID)
	if err != nil {
		t.Fatalf("ScheduleNext: %v", err)
	}
	if res.Invited != 3 {
		t.Errorf("invited = %d, want 3", res.Invited)
	}
	if fx.summoner.summoned[res.NextGame.ID] != 3 {
		t.Error("summoner should fan out to the new occurrence")
	}

	// GameScheduled then PlayersSummoned.
	if len(fx.templates.events) != 2 {
		t.Fatalf("events = %v", fx.templates.events)
	}
	if fx.templates.events[0] != "GameScheduled" || fx.templates.events[1] != "PlayersSummoned" {
		t.Errorf("events = %v", fx.templates.events)
	}
}

func TestScheduleNextMonthlyFallback(t *testing.T) {
	fx := newSchedulerFixture()
	ctx := context.Background()

	// 2024-03-29 is the fifth Friday of March; April has only four, so the
	// next occurrence falls back to April's last Friday.
	source := recurringGame(models.RecurrenceMonthly)
	source.Date = time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC)
	fx.games.games[source.ID] = source

	res, err := fx.scheduler.ScheduleNext(ctx, source.ID)
	if err != nil {
		t.Fatalf("ScheduleNext: %v", err)
	}
	if got := res.NextGame.Date.Format("2006-01-02"); got != "2024-04-26" {
		t.Errorf("next date = %s, want 2024-04-26", got)
	}
}
