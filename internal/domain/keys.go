package domain

// Ключи персистентного состояния одной установки. Каждое значение
// хранится как отдельный JSON-блоб.
const (
	KeyProfile   = "profile"
	KeyXP        = "xp"
	KeyMissions  = "missions"
	KeyLessons   = "lessons"
	KeyDraft     = "draft"
	KeyContent   = "content"
	KeyLibSearch = "libsearch"
)

// KeyPrefix возвращает префикс ключей установки.
func KeyPrefix(installID string) string {
	return "imv:" + installID + ":"
}

// StateKey собирает полный ключ хранилища для установки.
func StateKey(installID, key string) string {
	return KeyPrefix(installID) + key
}
