package waitlist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchday/go/internal/confirmation"
	"github.com/mcdev12/matchday/go/internal/events"
	"github.com/mcdev12/matchday/go/internal/models"
)

type fakeWaitlistRepo struct {
	mu      sync.Mutex
	entries []*models.WaitlistEntry
	outbox  []string
}

func (f *fakeWaitlistRepo) Enqueue(ctx context.Context, gameID, userID uuid.UUID, userName string, position models.PlayerPosition) (*models.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := 1
	for _, e := range f.entries {
		if e.GameID == gameID && e.Position == position && e.Status.Queued() {
			next++
		}
	}
	e := &models.WaitlistEntry{
		ID: uuid.New(), GameID: gameID, UserID: userID, UserName: userName,
		Position: position, QueuePosition: next, Status: models.WaitlistWaiting,
		AddedAt: time.Now(),
	}
	f.entries = append(f.entries, e)
	cp := *e
	return &cp, nil
}

func (f *fakeWaitlistRepo) GetQueuedEntry(ctx context.Context, gameID, userID uuid.UUID) (*models.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.GameID == gameID && e.UserID == userID && e.Status.Queued() {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrEntryNotFound
}

func (f *fakeWaitlistRepo) ListQueued(ctx context.Context, gameID uuid.UUID, position models.PlayerPosition) ([]models.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.WaitlistEntry
	for pos := 1; ; pos++ {
		found := false
		for _, e := range f.entries {
			if e.GameID == gameID && e.Position == position && e.Status.Queued() && e.QueuePosition == pos {
				out = append(out, *e)
				found = true
			}
		}
		if !found {
			break
		}
	}
	return out, nil
}

func (f *fakeWaitlistRepo) ClaimNextForOffer(ctx context.Context, gameID uuid.UUID, position models.PlayerPosition, notifiedAt, deadline time.Time, payloadFn func(models.WaitlistEntry) ([]byte, error)) (*models.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var head *models.WaitlistEntry
	for _, e := range f.entries {
		if e.GameID != gameID || e.Position != position {
			continue
		}
		if e.Status == models.WaitlistNotified {
			return nil, ErrPromotionInFlight
		}
		if e.Status == models.WaitlistWaiting && (head == nil || e.QueuePosition < head.QueuePosition) {
			head = e
		}
	}
	if head == nil {
		return nil, ErrNothingQueued
	}
	head.Status = models.WaitlistNotified
	na, dl := notifiedAt, deadline
	head.NotifiedAt = &na
	head.ResponseDeadline = &dl
	if _, err := payloadFn(*head); err != nil {
		return nil, err
	}
	f.outbox = append(f.outbox, events.TypeWaitlistNotified)
	cp := *head
	return &cp, nil
}

func (f *fakeWaitlistRepo) Resolve(ctx context.Context, entryID uuid.UUID, status models.WaitlistStatus, eventType string, payload []byte) (*models.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID != entryID {
			continue
		}
		if !e.Status.Queued() {
			return nil, ErrEntryNotFound
		}
		released := e.QueuePosition
		e.Status = status
		e.QueuePosition = 0
		for _, other := range f.entries {
			if other.GameID == e.GameID && other.Position == e.Position && other.Status.Queued() && other.QueuePosition > released {
				other.QueuePosition--
			}
		}
		if eventType != "" {
			f.outbox = append(f.outbox, eventType)
		}
		cp := *e
		return &cp, nil
	}
	return nil, ErrEntryNotFound
}

func (f *fakeWaitlistRepo) ReleaseOffer(ctx context.Context, entryID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID == entryID && e.Status == models.WaitlistNotified {
			e.Status = models.WaitlistWaiting
			e.NotifiedAt = nil
			e.ResponseDeadline = nil
			return nil
		}
	}
	return ErrNotNotified
}

func (f *fakeWaitlistRepo) ListDueOffers(ctx context.Context, now time.Time) ([]models.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.WaitlistEntry
	for _, e := range f.entries {
		if e.Status == models.WaitlistNotified && e.ResponseDeadline != nil && now.After(*e.ResponseDeadline) {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeGameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*models.Game
}

func (f *fakeGameStore) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return nil, errors.New("game not found")
	}
	cp := *g
	return &cp, nil
}

// fakeConfirmer hands out a fixed number of slots, strict-confirm style.
type fakeConfirmer struct {
	mu        sync.Mutex
	slots     int
	confirmed []uuid.UUID
	declined  []uuid.UUID
}

func (f *fakeConfirmer) Confirm(ctx context.Context, req confirmation.JoinRequest) (*models.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.confirmed) >= f.slots {
		return nil, confirmation.ErrCapacityFull
	}
	f.confirmed = append(f.confirmed, req.UserID)
	return &models.Confirmation{GameID: req.GameID, UserID: req.UserID, Status: models.ConfirmationConfirmed}, nil
}

func (f *fakeConfirmer) Decline(ctx context.Context, gameID, userID uuid.UUID) (*models.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declined = append(f.declined, userID)
	return &models.Confirmation{GameID: gameID, UserID: userID, Status: models.ConfirmationCancelled}, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	offers []uuid.UUID
}

func (f *fakeNotifier) OfferSlot(ctx context.Context, entry models.WaitlistEntry, game *models.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offers = append(f.offers, entry.UserID)
	return nil
}

type waitlistFixture struct {
	app       *App
	repo      *fakeWaitlistRepo
	games     *fakeGameStore
	confirmer *fakeConfirmer
	notifier  *fakeNotifier
	clock     *clockwork.FakeClock
	game      *models.Game
}

func newWaitlistFixture(t *testing.T, slots int) *waitlistFixture {
	t.Helper()
	game := &models.Game{
		ID:                         uuid.New(),
		Date:                       time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		StartTime:                  "19:00",
		Status:                     models.GameStatusScheduled,
		MaxPlayers:                 slots,
		WaitlistAutoPromoteMinutes: 30,
	}
	repo := &fakeWaitlistRepo{}
	games := &fakeGameStore{games: map[uuid.UUID]*models.Game{game.ID: game}}
	confirmer := &fakeConfirmer{slots: slots}
	notifier := &fakeNotifier{}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))

	app := NewApp(repo, games, notifier, clock)
	app.SetConfirmer(confirmer)
	return &waitlistFixture{app: app, repo: repo, games: games, confirmer: confirmer, notifier: notifier, clock: clock, game: game}
}

func (fx *waitlistFixture) enqueue(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if _, err := fx.app.Enqueue(context.Background(), fx.game.ID, id, name, models.PositionField); err != nil {
		t.Fatalf("enqueue %s: %v", name, err)
	}
	return id
}

func TestEnqueueAssignsDensePositions(t *testing.T) {
	fx := newWaitlistFixture(t, 0)
	ctx := context.Background()

	fx.enqueue(t, "Ana")
	bruno := fx.enqueue(t, "Bruno")
	fx.enqueue(t, "Caio")

	queued, err := fx.app.ListQueued(ctx, fx.game.ID, models.PositionField)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, e := range queued {
		if e.QueuePosition != i+1 {
			t.Errorf("entry %d position = %d, want %d", i, e.QueuePosition, i+1)
		}
	}

	// Re-enqueueing a queued player returns the original entry.
	again, err := fx.app.Enqueue(ctx, fx.game.ID, bruno, "Bruno", models.PositionField)
	if err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}
	if again.QueuePosition != 2 {
		t.Errorf("re-enqueue position = %d, want 2", again.QueuePosition)
	}

	// Removing the middle entry compacts the tail.
	if err := fx.app.Remove(ctx, fx.game.ID, bruno); err != nil {
		t.Fatalf("remove: %v", err)
	}
	queued, _ = fx.app.ListQueued(ctx, fx.game.ID, models.PositionField)
	if len(queued) != 2 {
		t.Fatalf("queued = %d, want 2", len(queued))
	}
	if queued[0].UserName != "Ana" || queued[0].QueuePosition != 1 {
		t.Errorf("head = %s at %d", queued[0].UserName, queued[0].QueuePosition)
	}
	if queued[1].UserName != "Caio" || queued[1].QueuePosition != 2 {
		t.Errorf("tail = %s at %d, want Caio at 2", queued[1].UserName, queued[1].QueuePosition)
	}
}

func TestPromoteNextSingleOffer(t *testing.T) {
	fx := newWaitlistFixture(t, 1)
	ctx := context.Background()

	ana := fx.enqueue(t, "Ana")
	fx.enqueue(t, "Bruno")

	entry, err := fx.app.PromoteNext(ctx, fx.game.ID, models.PositionField)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if entry.UserID != ana {
		t.Error("promotion should go to the queue head")
	}
	if entry.Status != models.WaitlistNotified {
		t.Errorf("status = %s, want NOTIFIED", entry.Status)
	}
	want := fx.clock.Now().UTC().Add(30 * time.Minute)
	if !entry.ResponseDeadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", entry.ResponseDeadline, want)
	}
	if len(fx.notifier.offers) != 1 || fx.notifier.offers[0] != ana {
		t.Error("offer not delivered to promoted player")
	}

	// Second promotion while the offer is outstanding does nothing.
	if _, err := fx.app.PromoteNext(ctx, fx.game.ID, models.PositionField); !errors.Is(err, ErrPromotionInFlight) {
		t.Fatalf("want ErrPromotionInFlight, got %v", err)
	}
}

func TestPromoteNextSkipsClosedGame(t *testing.T) {
	fx := newWaitlistFixture(t, 1)
	ctx := context.Background()
	fx.enqueue(t, "Ana")

	fx.game.Status = models.GameStatusCancelled
	entry, err := fx.app.PromoteNext(ctx, fx.game.ID, models.PositionField)
	if err != nil {
		t.Fatalf("promote on cancelled game: %v", err)
	}
	if entry != nil {
		t.Error("cancelled game must not produce offers")
	}
	if len(fx.notifier.offers) != 0 {
		t.Error("no offer should be delivered for a cancelled game")
	}
}

func TestRespondAccept(t *testing.T) {
	fx := newWaitlistFixture(t, 1)
	ctx := context.Background()

	ana := fx.enqueue(t, "Ana")
	if _, err := fx.app.PromoteNext(ctx, fx.game.ID, models.PositionField); err != nil {
		t.Fatalf("promote: %v", err)
	}

	entry, err := fx.app.Respond(ctx, fx.game.ID, ana, true)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if entry.Status != models.WaitlistPromoted {
		t.Errorf("status = %s, want PROMOTED", entry.Status)
	}
	if len(fx.confirmer.confirmed) != 1 || fx.confirmer.confirmed[0] != ana {
		t.Error("accept must confirm the player")
	}
}

func TestRespondAcceptLosesCapacityRace(t *testing.T) {
	fx := newWaitlistFixture(t, 0) // no slots: the race is already lost
	ctx := context.Background()

	ana := fx.enqueue(t, "Ana")
	if _, err := fx.app.PromoteNext(ctx, fx.game.ID, models.PositionField); err != nil {
		t.Fatalf("promote: %v", err)
	}

	if _, err := fx.app.Respond(ctx, fx.game.ID, ana, true); !errors.Is(err, confirmation.ErrCapacityFull) {
		t.Fatalf("want ErrCapacityFull, got %v", err)
	}

	entry, err := fx.repo.GetQueuedEntry(ctx, fx.game.ID, ana)
	if err != nil {
		t.Fatalf("entry gone after lost race: %v", err)
	}
	if entry.Status != models.WaitlistWaiting {
		t.Errorf("status = %s, want WAITING after rollback", entry.Status)
	}
	if entry.QueuePosition != 1 {
		t.Errorf("queue position = %d, want 1 preserved", entry.QueuePosition)
	}
}

func TestRespondDeclinePassesOfferDown(t *testing.T) {
	fx := newWaitlistFixture(t, 1)
	ctx := context.Background()

	ana := fx.enqueue(t, "Ana")
	bruno := fx.enqueue(t, "Bruno")
	if _, err := fx.app.PromoteNext(ctx, fx.game.ID, models.PositionField); err != nil {
		t.Fatalf("promote: %v", err)
	}

	if _, err := fx.app.Respond(ctx, fx.game.ID, ana, false); err != nil {
		t.Fatalf("decline: %v", err)
	}

	next, err := fx.repo.GetQueuedEntry(ctx, fx.game.ID, bruno)
	if err != nil {
		t.Fatalf("next entry: %v", err)
	}
	if next.Status != models.WaitlistNotified {
		t.Errorf("next status = %s, want NOTIFIED", next.Status)
	}
	if next.QueuePosition != 1 {
		t.Errorf("next position = %d, want 1 after compaction", next.QueuePosition)
	}
	if len(fx.confirmer.declined) != 1 || fx.confirmer.declined[0] != ana {
		t.Error("decline must cancel the confirmation row")
	}
}

func TestRespondWithoutOffer(t *testing.T) {
	fx := newWaitlistFixture(t, 1)
	ctx := context.Background()

	ana := fx.enqueue(t, "Ana")
	if _, err := fx.app.Respond(ctx, fx.game.ID, ana, true); !errors.Is(err, ErrNotNotified) {
		t.Fatalf("want ErrNotNotified, got %v", err)
	}
}

func TestExpireDueMovesOfferAlong(t *testing.T) {
	fx := newWaitlistFixture(t, 1)
	ctx := context.Background()

	ana := fx.enqueue(t, "Ana")
	bruno := fx.enqueue(t, "Bruno")
	if _, err := fx.app.PromoteNext(ctx, fx.game.ID, models.PositionField); err != nil {
		t.Fatalf("promote: %v", err)
	}

	// Within the window nothing expires.
	fx.clock.Advance(10 * time.Minute)
	expired, err := fx.app.ExpireDue(ctx)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if expired != 0 {
		t.Fatalf("expired = %d, want 0", expired)
	}

	fx.clock.Advance(25 * time.Minute)
	expired, err = fx.app.ExpireDue(ctx)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired = %d, want 1", expired)
	}

	// Ana is out, Bruno holds the offer now.
	if _, err := fx.repo.GetQueuedEntry(ctx, fx.game.ID, ana); !errors.Is(err, ErrEntryNotFound) {
		t.Error("expired entry should leave the queue")
	}
	next, err := fx.repo.GetQueuedEntry(ctx, fx.game.ID, bruno)
	if err != nil {
		t.Fatalf("next entry: %v", err)
	}
	if next.Status != models.WaitlistNotified {
		t.Errorf("next status = %s, want NOTIFIED", next.Status)
	}

	// Running the sweep again is a no-op until Bruno's window closes.
	expired, err = fx.app.ExpireDue(ctx)
	if err != nil {
		t.Fatalf("expire again: %v", err)
	}
	if expired != 0 {
		t.Errorf("second sweep expired = %d, want 0", expired)
	}
}

func TestHandleSlotFreed(t *testing.T) {
	fx := newWaitlistFixture(t, 1)
	ctx := context.Background()

	ana := fx.enqueue(t, "Ana")
	payload := events.SlotFreedPayload{
		GameID:   fx.game.ID.String(),
		Position: string(models.PositionField),
	}
	if err := fx.app.HandleSlotFreed(ctx, payload); err != nil {
		t.Fatalf("handle slot freed: %v", err)
	}

	entry, err := fx.repo.GetQueuedEntry(ctx, fx.game.ID, ana)
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if entry.Status != models.WaitlistNotified {
		t.Errorf("status = %s, want NOTIFIED", entry.Status)
	}

	// A second SlotFreed while the offer is outstanding is absorbed.
	if err := fx.app.HandleSlotFreed(ctx, payload); err != nil {
		t.Fatalf("duplicate slot freed: %v", err)
	}

	// Empty queue is also a benign outcome.
	if _, err := fx.app.Respond(ctx, fx.game.ID, ana, true); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if err := fx.app.HandleSlotFreed(ctx, payload); err != nil {
		t.Fatalf("slot freed with empty queue: %v", err)
	}
}
