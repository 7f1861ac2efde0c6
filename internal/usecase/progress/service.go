package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/metrics"
)

// DefaultXPAward начисляется, когда награда не указана явно.
const DefaultXPAward = 15

// Result — исход операции начисления.
type Result string

const (
	ResultApplied     Result = "applied"
	ResultAlreadyDone Result = "already-done-today"
)

// Service ведёт журнал прогресса установки: XP, выполненные миссии,
// изученные уроки, профиль. Каждая мутация — одно синхронное
// чтение-изменение-запись в хранилище; отказ хранилища прерывает
// операцию до записи, чтобы не затереть накопленное состояние.
type Service struct {
	store domain.KVStore
	queue domain.EventQueue
	clock domain.Clock
	log   zerolog.Logger
}

// NewService создаёт журнал прогресса. queue может быть nil — тогда
// события не публикуются.
func NewService(store domain.KVStore, queue domain.EventQueue, clock domain.Clock, log zerolog.Logger) *Service {
	if clock == nil {
		clock = domain.ClockFunc(time.Now)
	}
	return &Service{store: store, queue: queue, clock: clock, log: log}
}

// CompleteMission отмечает миссию выполненной сегодня и начисляет XP.
// Повторный вызов в тот же день — no-op с результатом "уже сделано":
// XP дважды не начисляется.
func (s *Service) CompleteMission(ctx context.Context, installID, missionID string, xpAward int) (Result, error) {
	if xpAward <= 0 {
		xpAward = DefaultXPAward
	}
	day := domain.DayKey(s.clock)

	missions := domain.MissionLog{}
	if err := s.readJSON(ctx, installID, domain.KeyMissions, &missions); err != nil {
		return "", err
	}
	if missions.DoneOn(day, missionID) {
		return ResultAlreadyDone, nil
	}
	xp, err := s.XP(ctx, installID)
	if err != nil {
		return "", err
	}
	missions[day] = append(missions[day], missionID)
	if err := s.writeJSON(ctx, installID, domain.KeyMissions, missions); err != nil {
		return "", err
	}
	if err := s.writeJSON(ctx, installID, domain.KeyXP, xp+xpAward); err != nil {
		return "", err
	}
	metrics.MissionsCompletedTotal.Inc()
	s.publish(ctx, domain.ProgressEvent{
		InstallID:  installID,
		Kind:       domain.EventMissionCompleted,
		ItemID:     missionID,
		Day:        day,
		XPAwarded:  xpAward,
		OccurredAt: s.clock.Now(),
	})
	return ResultApplied, nil
}

// StudyLesson отмечает урок изученным сегодня. Для урока хранится
// один день изучения, поэтому "уже сделано" — это равенство
// сохранённого дня сегодняшнему, а не членство в множестве.
func (s *Service) StudyLesson(ctx context.Context, installID, lessonID string, xpAward int) (Result, error) {
	if xpAward <= 0 {
		xpAward = DefaultXPAward
	}
	day := domain.DayKey(s.clock)

	lessons := domain.LessonLog{}
	if err := s.readJSON(ctx, installID, domain.KeyLessons, &lessons); err != nil {
		return "", err
	}
	if lessons[lessonID] == day {
		return ResultAlreadyDone, nil
	}
	xp, err := s.XP(ctx, installID)
	if err != nil {
		return "", err
	}
	lessons[lessonID] = day
	if err := s.writeJSON(ctx, installID, domain.KeyLessons, lessons); err != nil {
		return "", err
	}
	if err := s.writeJSON(ctx, installID, domain.KeyXP, xp+xpAward); err != nil {
		return "", err
	}
	metrics.LessonsStudiedTotal.Inc()
	s.publish(ctx, domain.ProgressEvent{
		InstallID:  installID,
		Kind:       domain.EventLessonStudied,
		ItemID:     lessonID,
		Day:        day,
		XPAwarded:  xpAward,
		OccurredAt: s.clock.Now(),
	})
	return ResultApplied, nil
}

// TrackProgress считает прогресс по дорожке: учтён любой день
// изучения, не только сегодняшний.
func (s *Service) TrackProgress(ctx context.Context, installID string, track domain.ContentItem) (domain.TrackProgress, error) {
	lessons := domain.LessonLog{}
	if err := s.readJSON(ctx, installID, domain.KeyLessons, &lessons); err != nil {
		return domain.TrackProgress{}, err
	}

	total := len(track.LessonIDs)
	done := 0
	for _, id := range track.LessonIDs {
		if _, ok := lessons[id]; ok {
			done++
		}
	}
	percent := 0
	if total > 0 {
		percent = done * 100 / total
	}
	return domain.TrackProgress{Total: total, Done: done, Percent: percent}, nil
}

// XP возвращает накопленный опыт установки.
func (s *Service) XP(ctx context.Context, installID string) (int, error) {
	var xp int
	if err := s.readJSON(ctx, installID, domain.KeyXP, &xp); err != nil {
		return 0, err
	}
	if xp < 0 {
		xp = 0
	}
	return xp, nil
}

// Level возвращает уровень установки по текущему XP.
func (s *Service) Level(ctx context.Context, installID string) (domain.LevelInfo, error) {
	xp, err := s.XP(ctx, installID)
	if err != nil {
		return domain.LevelInfo{}, err
	}
	return ExperienceToLevel(xp), nil
}

// Profile возвращает профиль установки или профиль по умолчанию.
func (s *Service) Profile(ctx context.Context, installID string) (domain.Profile, error) {
	profile := domain.DefaultProfile()
	if err := s.readJSON(ctx, installID, domain.KeyProfile, &profile); err != nil {
		return domain.Profile{}, err
	}
	if profile.Name == "" {
		profile.Name = domain.DefaultProfile().Name
	}
	switch profile.Goal {
	case domain.GoalPopular, domain.GoalErudite, domain.GoalMixed:
	default:
		profile.Goal = domain.GoalMixed
	}
	return profile, nil
}

// SaveProfile сохраняет профиль установки.
func (s *Service) SaveProfile(ctx context.Context, installID string, profile domain.Profile) error {
	return s.writeJSON(ctx, installID, domain.KeyProfile, profile)
}

// LibrarySearch возвращает сохранённый текст поиска по библиотеке.
func (s *Service) LibrarySearch(ctx context.Context, installID string) (string, error) {
	var text string
	if err := s.readJSON(ctx, installID, domain.KeyLibSearch, &text); err != nil {
		return "", err
	}
	return text, nil
}

// SaveLibrarySearch сохраняет текст поиска по библиотеке.
func (s *Service) SaveLibrarySearch(ctx context.Context, installID, text string) error {
	return s.writeJSON(ctx, installID, domain.KeyLibSearch, text)
}

// Reset стирает всё состояние установки: журнал, профиль, черновик и
// кэш контента.
func (s *Service) Reset(ctx context.Context, installID string) error {
	if err := s.store.DeleteByPrefix(ctx, domain.KeyPrefix(installID)); err != nil {
		return fmt.Errorf("сброс установки: %w", err)
	}
	return nil
}

// readJSON читает ключ установки. Отсутствие ключа и битый JSON
// равнозначны: получатель остаётся со своим значением по умолчанию.
// Любая другая ошибка хранилища отдаётся наверх — подменять живое
// состояние умолчанием из-за сбоя инфраструктуры нельзя.
func (s *Service) readJSON(ctx context.Context, installID, key string, dst any) error {
	raw, err := s.store.Get(ctx, domain.StateKey(installID, key))
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("чтение %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("progress: повреждённое значение, используем умолчание")
	}
	return nil
}

func (s *Service) writeJSON(ctx context.Context, installID, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("кодирование %s: %w", key, err)
	}
	if err := s.store.Set(ctx, domain.StateKey(installID, key), raw); err != nil {
		return fmt.Errorf("запись %s: %w", key, err)
	}
	return nil
}

// publish отправляет событие прогресса. Отказ очереди не ломает
// начисление, только пишется в лог.
func (s *Service) publish(ctx context.Context, event domain.ProgressEvent) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("kind", event.Kind).Msg("progress: событие не опубликовано")
	}
}
