package domain

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound возвращается KVStore, когда ключ отсутствует.
var ErrKeyNotFound = errors.New("ключ не найден")

// KVStore — персистентное key-value хранилище состояния установки.
// Значения — JSON-кодированные блобы; реализация не интерпретирует их.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// ContentFetcher получает канонический документ контента. Ровно одна
// попытка, без ретраев; ответ обязан разбираться как JSON-массив.
type ContentFetcher interface {
	FetchContent(ctx context.Context) ([]ContentItem, error)
}

// SnapshotRepo сохраняет снимки каталога и дневные сводки в БД.
type SnapshotRepo interface {
	SaveSnapshot(ctx context.Context, snap CatalogSnapshot) (int64, error)
	ListSnapshots(ctx context.Context, installID string, limit int) ([]CatalogSnapshot, error)
	UpsertRecap(ctx context.Context, event ProgressEvent) error
	GetRecap(ctx context.Context, installID, day string) (DailyRecap, error)
}

// EventQueue — очередь событий прогресса.
type EventQueue interface {
	Publish(ctx context.Context, event ProgressEvent) error
	Pop(ctx context.Context) (ProgressEvent, error)
}

// Clock отдаёт текущее время; подменяется в тестах для смены
// календарного дня.
type Clock interface {
	Now() time.Time
}

// ClockFunc адаптирует функцию к интерфейсу Clock.
type ClockFunc func() time.Time

// Now возвращает результат функции.
func (f ClockFunc) Now() time.Time { return f() }

// DayKey форматирует календарный день по часам clock (YYYY-MM-DD).
func DayKey(clock Clock) string {
	return clock.Now().Format("2006-01-02")
}
