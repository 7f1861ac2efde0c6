package progress

import (
	"math"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
)

const (
	baseLevelThreshold = 120
	levelGrowthFactor  = 1.18
	maxLevel           = 60
)

// ExperienceToLevel пересчитывает суммарный XP в уровень. Порог
// первого уровня — 120 XP, каждый следующий порог умножается на 1.18
// с округлением вниз; уровень ограничен 60. Чистая детерминированная
// функция от одного xp.
func ExperienceToLevel(xp int) domain.LevelInfo {
	if xp < 0 {
		xp = 0
	}
	level := 1
	threshold := baseLevelThreshold
	for xp >= threshold && level < maxLevel {
		xp -= threshold
		level++
		threshold = int(math.Floor(float64(threshold) * levelGrowthFactor))
	}
	fraction := float64(xp) / float64(threshold)
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return domain.LevelInfo{
		Level:            level,
		Threshold:        threshold,
		Remainder:        xp,
		ProgressFraction: fraction,
	}
}
