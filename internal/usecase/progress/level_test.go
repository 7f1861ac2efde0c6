package progress

import "testing"

func TestExperienceToLevelBasics(t *testing.T) {
	info := ExperienceToLevel(0)
	if info.Level != 1 || info.Threshold != baseLevelThreshold || info.Remainder != 0 {
		t.Fatalf("ноль XP — первый уровень с порогом %d: %+v", baseLevelThreshold, info)
	}

	info = ExperienceToLevel(119)
	if info.Level != 1 || info.Remainder != 119 {
		t.Fatalf("119 XP ещё первый уровень: %+v", info)
	}

	info = ExperienceToLevel(120)
	if info.Level != 2 || info.Remainder != 0 {
		t.Fatalf("120 XP — второй уровень: %+v", info)
	}
	// Порог второго уровня: floor(120 * 1.18) = 141.
	if info.Threshold != 141 {
		t.Fatalf("порог второго уровня должен быть 141: %+v", info)
	}
}

func TestExperienceToLevelMonotonic(t *testing.T) {
	prev := 0
	for xp := 0; xp <= 2_000_000; xp += 997 {
		info := ExperienceToLevel(xp)
		if info.Level < 1 {
			t.Fatalf("уровень всегда не меньше 1: xp=%d %+v", xp, info)
		}
		if info.Level < prev {
			t.Fatalf("уровень не должен убывать: xp=%d %d -> %d", xp, prev, info.Level)
		}
		if info.ProgressFraction < 0 || info.ProgressFraction > 1 {
			t.Fatalf("доля прогресса вне [0,1]: xp=%d %+v", xp, info)
		}
		prev = info.Level
	}
}

func TestExperienceToLevelCap(t *testing.T) {
	info := ExperienceToLevel(1 << 30)
	if info.Level != maxLevel {
		t.Fatalf("уровень ограничен %d, получили %d", maxLevel, info.Level)
	}
}

func TestExperienceToLevelNegativeClamped(t *testing.T) {
	info := ExperienceToLevel(-5)
	if info.Level != 1 || info.Remainder != 0 || info.ProgressFraction != 0 {
		t.Fatalf("отрицательный XP приводится к нулю: %+v", info)
	}
}
