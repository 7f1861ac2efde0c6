package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/infra/metrics"
)

var (
	// ErrInvalidJSON возвращается, когда вставленный текст не разбирается.
	ErrInvalidJSON = errors.New("импорт: некорректный JSON")
	// ErrNotArray возвращается, когда разобранное значение не массив.
	ErrNotArray = errors.New("импорт: ожидался JSON-массив")
	// ErrUnknownMode возвращается при неизвестном режиме экспорта.
	ErrUnknownMode = errors.New("экспорт: неизвестный режим")
)

// Режимы BuildExport.
const (
	ModeDraft  = "draft"
	ModeFull   = "full"
	ModeAppend = "append"
)

// Service — движок черновика и слияния контента админки. Черновик
// живёт в KV-хранилище установки; слияние строго аддитивно: существующие
// элементы никогда не удаляются, не переупорядочиваются и не
// перезаписываются, коллизия ID решается переименованием _v2, _v3, …
type Service struct {
	store     domain.KVStore
	snapshots domain.SnapshotRepo
	clock     domain.Clock
	log       zerolog.Logger
}

// NewService создаёт движок. snapshots может быть nil — тогда снимки
// слияний не сохраняются.
func NewService(store domain.KVStore, snapshots domain.SnapshotRepo, clock domain.Clock, log zerolog.Logger) *Service {
	if clock == nil {
		clock = domain.ClockFunc(time.Now)
	}
	return &Service{store: store, snapshots: snapshots, clock: clock, log: log}
}

// Validate проверяет элемент и возвращает список сообщений об ошибках.
// Сообщения показываются автору контента как есть.
func Validate(item domain.ContentItem) []string {
	var errs []string
	switch item.Type {
	case domain.TypeTrack, domain.TypeLesson, domain.TypeMission, domain.TypeLibrary:
	case "":
		errs = append(errs, "tipo é obrigatório")
	default:
		errs = append(errs, fmt.Sprintf("tipo desconhecido: %s", item.Type))
	}
	if strings.TrimSpace(item.Title) == "" {
		errs = append(errs, "título é obrigatório")
	}
	if item.Level == "" {
		errs = append(errs, "nível é obrigatório")
	}
	if item.Type == domain.TypeMission {
		if item.XP <= 0 {
			errs = append(errs, "missão precisa de xp > 0")
		}
		if item.Minutes <= 0 {
			errs = append(errs, "missão precisa de minutes > 0")
		}
	}
	return errs
}

// Draft возвращает черновик установки. Отсутствующий ключ и битое
// значение равнозначны пустому черновику; любая другая ошибка
// хранилища отдаётся наверх, чтобы следующая запись не затёрла
// несохранённые элементы автора.
func (s *Service) Draft(ctx context.Context, installID string) ([]domain.ContentItem, error) {
	raw, err := s.store.Get(ctx, domain.StateKey(installID, domain.KeyDraft))
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("чтение черновика: %w", err)
	}
	var draft []domain.ContentItem
	if err := json.Unmarshal(raw, &draft); err != nil {
		s.log.Warn().Err(err).Msg("admin: черновик повреждён, начинаем с пустого")
		return nil, nil
	}
	return draft, nil
}

// AddDraftItem валидирует элемент и дописывает его в черновик.
// Элемент без ID получает сгенерированный.
func (s *Service) AddDraftItem(ctx context.Context, installID string, item domain.ContentItem) ([]string, error) {
	if item.ID == "" {
		item.ID = generateID(item.Title)
	}
	if errs := Validate(item); len(errs) > 0 {
		return errs, nil
	}
	draft, err := s.Draft(ctx, installID)
	if err != nil {
		return nil, err
	}
	return nil, s.saveDraft(ctx, installID, append(draft, item))
}

// ClearDraft стирает черновик установки.
func (s *Service) ClearDraft(ctx context.Context, installID string) error {
	if err := s.store.Delete(ctx, domain.StateKey(installID, domain.KeyDraft)); err != nil {
		return fmt.Errorf("очистка черновика: %w", err)
	}
	return nil
}

// BuildExport собирает текст экспорта черновика.
//   - draft: черновик как есть;
//   - full: текущий каталог плюс черновик с переименованием коллизий —
//     полный файл на замену;
//   - append: фрагмент для ручной вставки перед закрывающей скобкой
//     внешнего JSON-массива.
func (s *Service) BuildExport(ctx context.Context, installID, mode string, catalogItems []domain.ContentItem) (string, error) {
	draft, err := s.Draft(ctx, installID)
	if err != nil {
		return "", err
	}
	switch mode {
	case ModeDraft:
		if draft == nil {
			draft = []domain.ContentItem{}
		}
		return marshalPretty(draft)
	case ModeFull:
		merged := make([]domain.ContentItem, 0, len(catalogItems)+len(draft))
		merged = append(merged, catalogItems...)
		seen := make(map[string]struct{}, len(catalogItems)+len(draft))
		for _, item := range catalogItems {
			seen[item.ID] = struct{}{}
		}
		for _, item := range draft {
			item.ID = uniqueID(item.ID, seen)
			seen[item.ID] = struct{}{}
			merged = append(merged, item)
		}
		return marshalPretty(merged)
	case ModeAppend:
		return buildAppendFragment(draft)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
}

// ImportMerge нормализует и разбирает вставленный текст, прогоняет
// каждый элемент через валидацию и аддитивно сливает выживших с
// текущим каталогом. Результат становится локально кэшированным
// каталогом и перекрывает сетевую загрузку при следующем Resolve.
func (s *Service) ImportMerge(ctx context.Context, installID, rawText string, catalogItems []domain.ContentItem) ([]domain.ContentItem, domain.ImportReport, error) {
	start := time.Now()

	normalized := normalizeImport(rawText)
	var payload any
	if err := json.Unmarshal([]byte(normalized), &payload); err != nil {
		return nil, domain.ImportReport{}, ErrInvalidJSON
	}
	elements, ok := payload.([]any)
	if !ok {
		return nil, domain.ImportReport{}, ErrNotArray
	}

	merged := make([]domain.ContentItem, 0, len(catalogItems)+len(elements))
	merged = append(merged, catalogItems...)
	seen := make(map[string]struct{}, len(catalogItems)+len(elements))
	for _, item := range catalogItems {
		seen[item.ID] = struct{}{}
	}

	var report domain.ImportReport
	for _, element := range elements {
		obj, ok := element.(map[string]any)
		if !ok {
			report.Ignored++
			continue
		}
		item, err := decodeItem(obj)
		if err != nil {
			report.Invalid++
			continue
		}
		if item.ID == "" {
			title, _ := obj["title"].(string)
			item.ID = generateID(title)
		}
		if item.Type == "" || strings.TrimSpace(item.Title) == "" || item.Level == "" {
			report.Invalid++
			continue
		}
		if len(Validate(item)) > 0 {
			report.Invalid++
			continue
		}
		if _, taken := seen[item.ID]; taken {
			item.ID = uniqueID(item.ID, seen)
			report.Renamed++
		}
		seen[item.ID] = struct{}{}
		merged = append(merged, item)
		report.Inserted++
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, domain.ImportReport{}, fmt.Errorf("кодирование каталога: %w", err)
	}
	if err := s.store.Set(ctx, domain.StateKey(installID, domain.KeyContent), raw); err != nil {
		return nil, domain.ImportReport{}, fmt.Errorf("сохранение каталога: %w", err)
	}

	metrics.ObserveImport(report.Inserted, report.Renamed, report.Invalid, report.Ignored, start)
	s.saveSnapshot(ctx, installID, merged, report, raw)
	return merged, report, nil
}

// saveSnapshot пишет снимок слияния в БД аудита. Каталог уже
// сохранён, поэтому отказ аудита не откатывает слияние.
func (s *Service) saveSnapshot(ctx context.Context, installID string, merged []domain.ContentItem, report domain.ImportReport, raw []byte) {
	if s.snapshots == nil {
		return
	}
	_, err := s.snapshots.SaveSnapshot(ctx, domain.CatalogSnapshot{
		InstallID:  installID,
		ItemCount:  len(merged),
		Report:     report,
		ContentRaw: raw,
		CreatedAt:  s.clock.Now(),
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("admin: снимок слияния не сохранён")
	}
}

func (s *Service) saveDraft(ctx context.Context, installID string, draft []domain.ContentItem) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("кодирование черновика: %w", err)
	}
	if err := s.store.Set(ctx, domain.StateKey(installID, domain.KeyDraft), raw); err != nil {
		return fmt.Errorf("сохранение черновика: %w", err)
	}
	return nil
}

// normalizeImport приводит вставленный текст к JSON-массиву: текст с
// "[" остаётся как есть, одиночный объект оборачивается в массив, у
// append-фрагмента срезается ведущая запятая.
func normalizeImport(raw string) string {
	trimmed := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(trimmed, "["):
		return trimmed
	case strings.HasPrefix(trimmed, "{"):
		return "[" + trimmed + "]"
	case strings.HasPrefix(trimmed, ","):
		return "[" + strings.TrimPrefix(trimmed, ",") + "]"
	default:
		return "[" + trimmed + "]"
	}
}

// decodeItem перечитывает элемент-объект в типизированный ContentItem.
func decodeItem(obj map[string]any) (domain.ContentItem, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return domain.ContentItem{}, err
	}
	var item domain.ContentItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return domain.ContentItem{}, err
	}
	return item, nil
}

// uniqueID подбирает свободный ID схемой _v2, _v3, …
func uniqueID(id string, seen map[string]struct{}) string {
	if _, taken := seen[id]; !taken {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_v%d", id, n)
		if _, taken := seen[candidate]; !taken {
			return candidate
		}
	}
}

// generateID строит ID из заголовка и случайного суффикса.
// Уникальность между отдельными импортами не гарантируется: коллизию
// всё равно разрешит переименование при слиянии.
func generateID(title string) string {
	slug := slugify(title)
	if slug == "" {
		slug = "item"
	}
	return slug + "_" + uuid.NewString()[:8]
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func marshalPretty(v any) (string, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("кодирование экспорта: %w", err)
	}
	return string(raw), nil
}

// buildAppendFragment собирает фрагмент для вставки перед закрывающей
// скобкой внешнего массива: ведущая запятая, элементы с отступом,
// разделитель ",\n\n". Пустой черновик даёт иллюстративный элемент.
func buildAppendFragment(draft []domain.ContentItem) (string, error) {
	if len(draft) == 0 {
		draft = []domain.ContentItem{{
			ID:       "exemplo_novo_item",
			Type:     domain.TypeLibrary,
			Title:    "Novo artigo de exemplo",
			Subtitle: "Substitua pelos seus dados",
			Level:    domain.LevelBeginner,
			Tags:     []string{"exemplo"},
			Text:     "Conteúdo do artigo…",
		}}
	}
	parts := make([]string, 0, len(draft))
	for _, item := range draft {
		raw, err := json.MarshalIndent(item, "  ", "  ")
		if err != nil {
			return "", fmt.Errorf("кодирование фрагмента: %w", err)
		}
		parts = append(parts, "  "+string(raw))
	}
	return ",\n" + strings.Join(parts, ",\n\n"), nil
}
