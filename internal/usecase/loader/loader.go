package loader

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/metrics"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/usecase/catalog"
)

// Service разрешает активный набор контента: локальный кэш, затем
// сеть, затем встроенный fallback-комплект.
type Service struct {
	store   domain.KVStore
	fetcher domain.ContentFetcher
	log     zerolog.Logger
}

// NewService создаёт загрузчик контента.
func NewService(store domain.KVStore, fetcher domain.ContentFetcher, log zerolog.Logger) *Service {
	return &Service{store: store, fetcher: fetcher, log: log}
}

// Resolve возвращает каталог и источник, из которого он получен.
// Отказ сети или разбора не фатален: подставляется fallback-комплект,
// а интерфейсный слой показывает баннер деградации.
func (s *Service) Resolve(ctx context.Context, installID string) (*catalog.Catalog, domain.ContentSource) {
	if items, ok := s.cached(ctx, installID); ok {
		metrics.IncContentLoad(string(domain.SourceLocal))
		return catalog.Index(items), domain.SourceLocal
	}

	items, err := s.fetcher.FetchContent(ctx)
	if err == nil {
		metrics.IncContentLoad(string(domain.SourceRemote))
		return catalog.Index(items), domain.SourceRemote
	}
	s.log.Warn().Err(err).Msg("loader: контент недоступен, включаем fallback")
	metrics.IncContentLoad(string(domain.SourceFallback))
	return catalog.Index(FallbackItems()), domain.SourceFallback
}

// cached читает ранее сохранённый полный массив контента. Битый JSON
// в хранилище приравнивается к отсутствию ключа.
func (s *Service) cached(ctx context.Context, installID string) ([]domain.ContentItem, bool) {
	raw, err := s.store.Get(ctx, domain.StateKey(installID, domain.KeyContent))
	if err != nil {
		return nil, false
	}
	var items []domain.ContentItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.log.Warn().Err(err).Msg("loader: кэш контента повреждён, игнорируем")
		return nil, false
	}
	if len(items) == 0 {
		return nil, false
	}
	return items, true
}
