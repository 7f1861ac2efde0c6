// Package repo хранит аудит слияний и дневные сводки в Postgres.
//
// Схема:
//
//	CREATE TABLE catalog_snapshots (
//	    id         BIGSERIAL PRIMARY KEY,
//	    install_id TEXT NOT NULL,
//	    item_count INT NOT NULL,
//	    inserted   INT NOT NULL,
//	    renamed    INT NOT NULL,
//	    invalid    INT NOT NULL,
//	    ignored    INT NOT NULL,
//	    content    JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
//	CREATE TABLE daily_recaps (
//	    install_id      TEXT NOT NULL,
//	    day             TEXT NOT NULL,
//	    missions_done   INT NOT NULL DEFAULT 0,
//	    lessons_studied INT NOT NULL DEFAULT 0,
//	    xp_earned       INT NOT NULL DEFAULT 0,
//	    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    PRIMARY KEY (install_id, day)
//	);
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
)

// ErrRecapNotFound возвращается, когда сводки за день нет.
var ErrRecapNotFound = errors.New("сводка за день не найдена")

// Postgres реализует domain.SnapshotRepo на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.SnapshotRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// SaveSnapshot сохраняет снимок каталога после слияния.
func (p *Postgres) SaveSnapshot(ctx context.Context, snap domain.CatalogSnapshot) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id int64
	err := p.pool.QueryRow(ctx, `
INSERT INTO catalog_snapshots (install_id, item_count, inserted, renamed, invalid, ignored, content, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id
`, snap.InstallID, snap.ItemCount, snap.Report.Inserted, snap.Report.Renamed, snap.Report.Invalid, snap.Report.Ignored, snap.ContentRaw, createdAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return id, nil
}

// ListSnapshots возвращает последние снимки установки.
func (p *Postgres) ListSnapshots(ctx context.Context, installID string, limit int) ([]domain.CatalogSnapshot, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}
	rows, err := p.pool.Query(ctx, `
SELECT id, install_id, item_count, inserted, renamed, invalid, ignored, content, created_at
FROM catalog_snapshots
WHERE install_id = $1
ORDER BY created_at DESC
LIMIT $2
`, installID, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.CatalogSnapshot
	for rows.Next() {
		var snap domain.CatalogSnapshot
		if err := rows.Scan(&snap.ID, &snap.InstallID, &snap.ItemCount, &snap.Report.Inserted, &snap.Report.Renamed, &snap.Report.Invalid, &snap.Report.Ignored, &snap.ContentRaw, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// UpsertRecap добавляет событие прогресса в дневную сводку установки.
func (p *Postgres) UpsertRecap(ctx context.Context, event domain.ProgressEvent) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	missions := 0
	lessons := 0
	switch event.Kind {
	case domain.EventMissionCompleted:
		missions = 1
	case domain.EventLessonStudied:
		lessons = 1
	default:
		return fmt.Errorf("неизвестный вид события: %s", event.Kind)
	}

	_, err := p.pool.Exec(ctx, `
INSERT INTO daily_recaps (install_id, day, missions_done, lessons_studied, xp_earned, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (install_id, day) DO UPDATE SET
    missions_done   = daily_recaps.missions_done + EXCLUDED.missions_done,
    lessons_studied = daily_recaps.lessons_studied + EXCLUDED.lessons_studied,
    xp_earned       = daily_recaps.xp_earned + EXCLUDED.xp_earned,
    updated_at      = now()
`, event.InstallID, event.Day, missions, lessons, event.XPAwarded)
	if err != nil {
		return fmt.Errorf("upsert recap: %w", err)
	}
	return nil
}

// GetRecap возвращает сводку установки за день.
func (p *Postgres) GetRecap(ctx context.Context, installID, day string) (domain.DailyRecap, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var recap domain.DailyRecap
	err := p.pool.QueryRow(ctx, `
SELECT install_id, day, missions_done, lessons_studied, xp_earned, updated_at
FROM daily_recaps
WHERE install_id = $1 AND day = $2
`, installID, day).Scan(&recap.InstallID, &recap.Day, &recap.MissionsDone, &recap.LessonsStudied, &recap.XPEarned, &recap.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DailyRecap{}, ErrRecapNotFound
	}
	if err != nil {
		return domain.DailyRecap{}, fmt.Errorf("get recap: %w", err)
	}
	return recap, nil
}
