package domain

import "time"

// ItemType задаёт вариант элемента каталога.
type ItemType string

const (
	TypeTrack   ItemType = "track"
	TypeLesson  ItemType = "lesson"
	TypeMission ItemType = "mission"
	TypeLibrary ItemType = "library"
)

// Уровни сложности в порядке возрастания.
const (
	LevelAbsoluteBeginner = "Iniciante absoluto"
	LevelBeginner         = "Iniciante"
	LevelIntermediate     = "Intermediário"
	LevelAdvanced         = "Avançado"
)

var levelRanks = map[string]int{
	LevelAbsoluteBeginner: 0,
	LevelBeginner:         1,
	LevelIntermediate:     2,
	LevelAdvanced:         3,
}

// LevelRank возвращает ранг уровня для сортировки. Неизвестные
// значения получают ранг "Iniciante".
func LevelRank(level string) int {
	if rank, ok := levelRanks[level]; ok {
		return rank
	}
	return levelRanks[LevelBeginner]
}

// ContentItem описывает один элемент каталога контента. Полиморфен
// по Type: дорожки несут LessonIDs, миссии — XP и Minutes.
type ContentItem struct {
	ID       string   `json:"id"`
	Type     ItemType `json:"type"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	Cover    string   `json:"cover,omitempty"`
	Level    string   `json:"level"`
	Tags     []string `json:"tags,omitempty"`
	Text     string   `json:"text,omitempty"`

	// Только для type=track. Слабые ссылки: висячие ID допустимы.
	LessonIDs []string `json:"lessonIds,omitempty"`

	// Только для type=mission.
	XP      float64 `json:"xp,omitempty"`
	Minutes float64 `json:"minutes,omitempty"`
}

// ContentSource указывает, откуда был получен активный каталог.
type ContentSource string

const (
	SourceLocal    ContentSource = "local"
	SourceRemote   ContentSource = "remote"
	SourceFallback ContentSource = "fallback"
)

// Profile содержит отображаемое имя и цель обучения установки.
type Profile struct {
	Name string `json:"name"`
	Goal string `json:"goal"`
}

// Цели обучения профиля.
const (
	GoalPopular = "Popular"
	GoalErudite = "Erudito"
	GoalMixed   = "Misto"
)

// DefaultProfile возвращает профиль первой загрузки.
func DefaultProfile() Profile {
	return Profile{Name: "Aluno(a)", Goal: GoalMixed}
}

// MissionLog хранит ID миссий, выполненных в каждый календарный день
// (ключ YYYY-MM-DD).
type MissionLog map[string][]string

// DoneOn сообщает, выполнена ли миссия в указанный день.
func (l MissionLog) DoneOn(day, missionID string) bool {
	for _, id := range l[day] {
		if id == missionID {
			return true
		}
	}
	return false
}

// LessonLog хранит для каждого урока день, когда он был отмечен
// изученным (ключ — ID урока, значение — YYYY-MM-DD).
type LessonLog map[string]string

// TrackProgress описывает прогресс по дорожке.
type TrackProgress struct {
	Total   int `json:"total"`
	Done    int `json:"done"`
	Percent int `json:"percent"`
}

// LevelInfo — результат пересчёта XP в уровень.
type LevelInfo struct {
	Level            int     `json:"level"`
	Threshold        int     `json:"threshold"`
	Remainder        int     `json:"remainder"`
	ProgressFraction float64 `json:"progressFraction"`
}

// ImportReport содержит счётчики одного слияния импорта.
type ImportReport struct {
	Inserted int `json:"inserted"`
	Renamed  int `json:"renamed"`
	Invalid  int `json:"invalid"`
	Ignored  int `json:"ignored"`
}

// Виды событий прогресса.
const (
	EventMissionCompleted = "mission_completed"
	EventLessonStudied    = "lesson_studied"
)

// ProgressEvent публикуется при каждом начислении XP.
type ProgressEvent struct {
	InstallID  string    `json:"install_id"`
	Kind       string    `json:"kind"`
	ItemID     string    `json:"item_id"`
	Day        string    `json:"day"`
	XPAwarded  int       `json:"xp_awarded"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CatalogSnapshot — снимок каталога после слияния импорта.
type CatalogSnapshot struct {
	ID         int64
	InstallID  string
	ItemCount  int
	Report     ImportReport
	ContentRaw []byte
	CreatedAt  time.Time
}

// DailyRecap агрегирует активность установки за день.
type DailyRecap struct {
	InstallID      string
	Day            string
	MissionsDone   int
	LessonsStudied int
	XPEarned       int
	UpdatedAt      time.Time
}
