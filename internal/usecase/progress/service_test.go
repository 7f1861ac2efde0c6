package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/kvstore"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func newTestService(clock domain.Clock) *Service {
	return NewService(kvstore.NewMemory(), nil, clock, zerolog.Nop())
}

func mustXP(t *testing.T, svc *Service, installID string) int {
	t.Helper()
	xp, err := svc.XP(context.Background(), installID)
	if err != nil {
		t.Fatal(err)
	}
	return xp
}

func TestCompleteMissionIdempotentSameDay(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(clock)

	res, err := svc.CompleteMission(ctx, "inst", "m1", 15)
	if err != nil {
		t.Fatal(err)
	}
	if res != ResultApplied {
		t.Fatalf("ожидали applied, получили %s", res)
	}
	if xp := mustXP(t, svc, "inst"); xp != 15 {
		t.Fatalf("ожидали 15 XP, получили %d", xp)
	}

	res, err = svc.CompleteMission(ctx, "inst", "m1", 15)
	if err != nil {
		t.Fatal(err)
	}
	if res != ResultAlreadyDone {
		t.Fatalf("повтор в тот же день должен вернуть already-done-today, получили %s", res)
	}
	if xp := mustXP(t, svc, "inst"); xp != 15 {
		t.Fatalf("повтор не должен начислять XP: %d", xp)
	}
}

func TestCompleteMissionNextDayAwardsAgain(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(clock)

	if _, err := svc.CompleteMission(ctx, "inst", "m1", 15); err != nil {
		t.Fatal(err)
	}
	clock.now = clock.now.Add(24 * time.Hour)
	res, err := svc.CompleteMission(ctx, "inst", "m1", 15)
	if err != nil {
		t.Fatal(err)
	}
	if res != ResultApplied {
		t.Fatalf("на следующий день миссия должна приниматься снова: %s", res)
	}
	if xp := mustXP(t, svc, "inst"); xp != 30 {
		t.Fatalf("ожидали 30 XP, получили %d", xp)
	}
}

func TestCompleteMissionDefaultAward(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)
	if _, err := svc.CompleteMission(ctx, "inst", "m1", 0); err != nil {
		t.Fatal(err)
	}
	if xp := mustXP(t, svc, "inst"); xp != DefaultXPAward {
		t.Fatalf("без награды должна начисляться константа %d, получили %d", DefaultXPAward, xp)
	}
}

func TestStudyLessonSameDayIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(clock)

	if res, _ := svc.StudyLesson(ctx, "inst", "l1", 10); res != ResultApplied {
		t.Fatalf("первый вызов должен применяться: %s", res)
	}
	if res, _ := svc.StudyLesson(ctx, "inst", "l1", 10); res != ResultAlreadyDone {
		t.Fatalf("повтор в тот же день должен вернуть already-done-today: %s", res)
	}
	if xp := mustXP(t, svc, "inst"); xp != 10 {
		t.Fatalf("ожидали 10 XP, получили %d", xp)
	}

	// На следующий день сохранённый день обновляется и XP начисляется снова.
	clock.now = clock.now.Add(24 * time.Hour)
	if res, _ := svc.StudyLesson(ctx, "inst", "l1", 10); res != ResultApplied {
		t.Fatalf("на следующий день урок должен приниматься: %s", res)
	}
	if xp := mustXP(t, svc, "inst"); xp != 20 {
		t.Fatalf("ожидали 20 XP, получили %d", xp)
	}
}

func TestTrackProgress(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)
	track := domain.ContentItem{
		ID: "t1", Type: domain.TypeTrack, Title: "Trilha",
		Level: domain.LevelBeginner, LessonIDs: []string{"A", "B", "C"},
	}

	if _, err := svc.StudyLesson(ctx, "inst", "A", 10); err != nil {
		t.Fatal(err)
	}
	got, err := svc.TrackProgress(ctx, "inst", track)
	if err != nil {
		t.Fatal(err)
	}
	want := domain.TrackProgress{Total: 3, Done: 1, Percent: 33}
	if got != want {
		t.Fatalf("ожидали %+v, получили %+v", want, got)
	}
}

func TestTrackProgressEmptyTrack(t *testing.T) {
	svc := newTestService(nil)
	got, err := svc.TrackProgress(context.Background(), "inst", domain.ContentItem{ID: "t1", Type: domain.TypeTrack})
	if err != nil {
		t.Fatal(err)
	}
	if got.Total != 0 || got.Done != 0 || got.Percent != 0 {
		t.Fatalf("пустая дорожка должна давать нули: %+v", got)
	}
}

func TestProfileDefaultsAndSave(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)

	p, err := svc.Profile(ctx, "inst")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Aluno(a)" || p.Goal != domain.GoalMixed {
		t.Fatalf("ожидали профиль по умолчанию, получили %+v", p)
	}

	if err := svc.SaveProfile(ctx, "inst", domain.Profile{Name: "Maria", Goal: domain.GoalErudite}); err != nil {
		t.Fatal(err)
	}
	p, err = svc.Profile(ctx, "inst")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Maria" || p.Goal != domain.GoalErudite {
		t.Fatalf("профиль не сохранился: %+v", p)
	}
}

func TestResetClearsState(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)

	if _, err := svc.CompleteMission(ctx, "inst", "m1", 15); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reset(ctx, "inst"); err != nil {
		t.Fatal(err)
	}
	if xp := mustXP(t, svc, "inst"); xp != 0 {
		t.Fatalf("после сброса XP должен быть 0, получили %d", xp)
	}
	if res, _ := svc.CompleteMission(ctx, "inst", "m1", 15); res != ResultApplied {
		t.Fatalf("после сброса миссия должна приниматься заново: %s", res)
	}
}

// failingStore пропускает первые healthy обращений Get, затем отдаёт
// ошибку инфраструктуры. Запись всегда проходит.
type failingStore struct {
	domain.KVStore
	healthy int
	calls   int
}

var errStoreDown = errors.New("хранилище недоступно")

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.calls++
	if f.calls > f.healthy {
		return nil, errStoreDown
	}
	return f.KVStore.Get(ctx, key)
}

func TestCompleteMissionStoreFailureKeepsXP(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemory()
	store := &failingStore{KVStore: mem, healthy: 1 << 30}
	svc := NewService(store, nil, nil, zerolog.Nop())

	for _, id := range []string{"m1", "m2", "m3"} {
		if _, err := svc.CompleteMission(ctx, "inst", id, 35); err != nil {
			t.Fatal(err)
		}
	}
	if xp := mustXP(t, svc, "inst"); xp != 105 {
		t.Fatalf("ожидали 105 XP, получили %d", xp)
	}

	// Хранилище начинает отказывать: операция должна прерваться до
	// любой записи, а не стартовать журнал заново с нуля.
	store.healthy = store.calls
	if _, err := svc.CompleteMission(ctx, "inst", "m4", 35); !errors.Is(err, errStoreDown) {
		t.Fatalf("ожидали ошибку хранилища, получили %v", err)
	}
	if _, err := svc.XP(ctx, "inst"); !errors.Is(err, errStoreDown) {
		t.Fatalf("XP при отказе хранилища должен возвращать ошибку, получили nil")
	}

	// Хранилище восстановилось: накопленный опыт цел.
	store.healthy = 1 << 30
	if xp := mustXP(t, svc, "inst"); xp != 105 {
		t.Fatalf("после отказа хранилища XP должен сохраниться: ожидали 105, получили %d", xp)
	}
	res, err := svc.StudyLesson(ctx, "inst", "l1", 15)
	if err != nil || res != ResultApplied {
		t.Fatalf("после восстановления начисление должно работать: %v %s", err, res)
	}
	if xp := mustXP(t, svc, "inst"); xp != 120 {
		t.Fatalf("ожидали 120 XP, получили %d", xp)
	}
}

func TestCorruptValueFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemory()
	svc := NewService(mem, nil, nil, zerolog.Nop())

	// Повреждённое значение — не отказ хранилища: журнал продолжает
	// работать с умолчанием вместо возврата 500.
	if err := mem.Set(ctx, domain.StateKey("inst", domain.KeyXP), []byte("{oops")); err != nil {
		t.Fatal(err)
	}
	if xp := mustXP(t, svc, "inst"); xp != 0 {
		t.Fatalf("повреждённый XP должен читаться как 0, получили %d", xp)
	}
}
