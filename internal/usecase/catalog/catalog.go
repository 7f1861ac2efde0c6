package catalog

import (
	"sort"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
)

// Catalog — индексированное, разбитое по типам представление контента.
// Дорожки и статьи отсортированы по уровню, миссии — по убыванию XP,
// уроки сохраняют входной порядок.
type Catalog struct {
	Tracks   []domain.ContentItem
	Lessons  []domain.ContentItem
	Missions []domain.ContentItem
	Library  []domain.ContentItem

	items []domain.ContentItem
	byID  map[string]domain.ContentItem
}

// Index строит каталог из плоского списка элементов. При дубликатах
// ID в поиске побеждает последний элемент; слияние импорта не даёт
// дубликатам возникнуть выше по потоку.
func Index(items []domain.ContentItem) *Catalog {
	c := &Catalog{
		items: append([]domain.ContentItem(nil), items...),
		byID:  make(map[string]domain.ContentItem, len(items)),
	}
	for _, item := range items {
		switch item.Type {
		case domain.TypeTrack:
			c.Tracks = append(c.Tracks, item)
		case domain.TypeLesson:
			c.Lessons = append(c.Lessons, item)
		case domain.TypeMission:
			c.Missions = append(c.Missions, item)
		case domain.TypeLibrary:
			c.Library = append(c.Library, item)
		}
		c.byID[item.ID] = item
	}
	sort.SliceStable(c.Tracks, func(i, j int) bool {
		return domain.LevelRank(c.Tracks[i].Level) < domain.LevelRank(c.Tracks[j].Level)
	})
	sort.SliceStable(c.Library, func(i, j int) bool {
		return domain.LevelRank(c.Library[i].Level) < domain.LevelRank(c.Library[j].Level)
	})
	sort.SliceStable(c.Missions, func(i, j int) bool {
		return c.Missions[i].XP > c.Missions[j].XP
	})
	return c
}

// Get возвращает элемент по ID.
func (c *Catalog) Get(id string) (domain.ContentItem, bool) {
	item, ok := c.byID[id]
	return item, ok
}

// Len возвращает общее число элементов каталога, включая элементы
// нераспознанных типов.
func (c *Catalog) Len() int {
	return len(c.items)
}

// IDs возвращает множество всех ID каталога.
func (c *Catalog) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.byID))
	for id := range c.byID {
		ids[id] = struct{}{}
	}
	return ids
}

// Items возвращает элементы в исходном входном порядке, включая
// элементы нераспознанных типов. Слияние импорта строится поверх
// этого списка: существующий каталог нельзя ни переупорядочивать, ни
// терять при повторных слияниях.
func (c *Catalog) Items() []domain.ContentItem {
	return append([]domain.ContentItem(nil), c.items...)
}

// TrackLessons возвращает уроки дорожки в порядке LessonIDs. Висячие
// ссылки не ломают дорожку: они отфильтровываются и возвращаются
// отдельным списком для предупреждения.
func (c *Catalog) TrackLessons(track domain.ContentItem) (lessons []domain.ContentItem, missing []string) {
	for _, id := range track.LessonIDs {
		if lesson, ok := c.byID[id]; ok {
			lessons = append(lessons, lesson)
			continue
		}
		missing = append(missing, id)
	}
	return lessons, missing
}
