package loader

import "github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"

// FallbackItems возвращает минимальный встроенный каталог: по одному
// элементу каждого типа, чтобы интерфейс не был пустым, с инструкцией
// по восстановлению настоящего контента через импорт администратора.
func FallbackItems() []domain.ContentItem {
	return []domain.ContentItem{
		{
			ID:        "fb_track",
			Type:      domain.TypeTrack,
			Title:     "Trilha de emergência",
			Subtitle:  "O conteúdo principal não carregou",
			Level:     domain.LevelAbsoluteBeginner,
			Tags:      []string{"fallback"},
			Text:      "O app entrou em modo fallback porque o arquivo de conteúdo não carregou. Abra o Admin para importar ou mesclar conteúdo.",
			LessonIDs: []string{"fb_lesson"},
		},
		{
			ID:       "fb_lesson",
			Type:     domain.TypeLesson,
			Title:    "Como restaurar o conteúdo",
			Subtitle: "Importação pelo Admin",
			Level:    domain.LevelAbsoluteBeginner,
			Tags:     []string{"fallback"},
			Text:     "## Restaurando\n\n- Abra o painel Admin\n- Cole o JSON do conteúdo\n- Confirme a mesclagem",
		},
		{
			ID:      "fb_mission",
			Type:    domain.TypeMission,
			Title:   "Aquecimento livre",
			Level:   domain.LevelAbsoluteBeginner,
			Tags:    []string{"fallback"},
			Text:    "Pratique 5 minutos de trocas de acordes enquanto o conteúdo não volta.",
			XP:      10,
			Minutes: 5,
		},
		{
			ID:       "fb_article",
			Type:     domain.TypeLibrary,
			Title:    "Modo fallback",
			Subtitle: "Por que estou vendo isso?",
			Level:    domain.LevelAbsoluteBeginner,
			Tags:     []string{"fallback"},
			Text:     "Este catálogo mínimo existe apenas para manter o app utilizável offline. Importe o conteúdo real pelo Admin.",
		},
	}
}
