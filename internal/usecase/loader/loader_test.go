package loader

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/kvstore"
)

type fakeFetcher struct {
	items []domain.ContentItem
	err   error
	calls int
}

func (f *fakeFetcher) FetchContent(ctx context.Context) ([]domain.ContentItem, error) {
	f.calls++
	return f.items, f.err
}

func TestResolvePrefersLocalCache(t *testing.T) {
	store := kvstore.NewMemory()
	cached := []domain.ContentItem{{ID: "l1", Type: domain.TypeLesson, Title: "Postura", Level: domain.LevelBeginner}}
	raw, _ := json.Marshal(cached)
	if err := store.Set(context.Background(), domain.StateKey("inst", domain.KeyContent), raw); err != nil {
		t.Fatal(err)
	}
	fetcher := &fakeFetcher{err: errors.New("сети нет")}
	svc := NewService(store, fetcher, zerolog.Nop())

	cat, source := svc.Resolve(context.Background(), "inst")
	if source != domain.SourceLocal {
		t.Fatalf("ожидали источник local, получили %s", source)
	}
	if _, ok := cat.Get("l1"); !ok {
		t.Fatal("кэшированный элемент не попал в каталог")
	}
	if fetcher.calls != 0 {
		t.Fatal("при живом кэше сеть не должна опрашиваться")
	}
}

func TestResolveFetchesRemoteWhenCacheEmpty(t *testing.T) {
	store := kvstore.NewMemory()
	fetcher := &fakeFetcher{items: []domain.ContentItem{{ID: "m1", Type: domain.TypeMission, Title: "Ritmo", Level: domain.LevelBeginner, XP: 15, Minutes: 5}}}
	svc := NewService(store, fetcher, zerolog.Nop())

	cat, source := svc.Resolve(context.Background(), "inst")
	if source != domain.SourceRemote {
		t.Fatalf("ожидали источник remote, получили %s", source)
	}
	if _, ok := cat.Get("m1"); !ok {
		t.Fatal("удалённый элемент не попал в каталог")
	}
}

func TestResolveFallsBackOnFetchError(t *testing.T) {
	store := kvstore.NewMemory()
	fetcher := &fakeFetcher{err: errors.New("HTTP 500")}
	svc := NewService(store, fetcher, zerolog.Nop())

	cat, source := svc.Resolve(context.Background(), "inst")
	if source != domain.SourceFallback {
		t.Fatalf("ожидали источник fallback, получили %s", source)
	}
	if cat.Len() != 4 {
		t.Fatalf("fallback-комплект должен содержать 4 элемента, получили %d", cat.Len())
	}
	if len(cat.Tracks) != 1 || len(cat.Lessons) != 1 || len(cat.Missions) != 1 || len(cat.Library) != 1 {
		t.Fatal("fallback должен содержать по одному элементу каждого типа")
	}
}

func TestResolveIgnoresCorruptedCache(t *testing.T) {
	store := kvstore.NewMemory()
	if err := store.Set(context.Background(), domain.StateKey("inst", domain.KeyContent), []byte("{оборванный")); err != nil {
		t.Fatal(err)
	}
	fetcher := &fakeFetcher{items: []domain.ContentItem{{ID: "a1", Type: domain.TypeLibrary, Title: "T", Level: domain.LevelBeginner}}}
	svc := NewService(store, fetcher, zerolog.Nop())

	_, source := svc.Resolve(context.Background(), "inst")
	if source != domain.SourceRemote {
		t.Fatalf("битый кэш должен игнорироваться, получили источник %s", source)
	}
}
