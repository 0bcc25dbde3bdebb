package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"smm-planner/internal/domain"
	"smm-planner/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.BrandRepo            = (*Postgres)(nil)
	_ domain.PostRepo             = (*Postgres)(nil)
	_ domain.ComposeJobStatusRepo = (*Postgres)(nil)
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

const brandColumns = "id, slug, name, voice, tagline, pillars, cadence, platforms, tz, settings, created_at, updated_at"

func scanBrand(row pgx.Row) (domain.Brand, error) {
	var (
		brand    domain.Brand
		cadence  []byte
		settings []byte
	)
	err := row.Scan(&brand.ID, &brand.Slug, &brand.Name, &brand.Voice, &brand.Tagline, &brand.Pillars,
		&cadence, &brand.Platforms, &brand.Timezone, &settings, &brand.CreatedAt, &brand.UpdatedAt)
	if err != nil {
		return domain.Brand{}, err
	}
	if len(cadence) > 0 {
		if err := json.Unmarshal(cadence, &brand.Cadence); err != nil {
			return domain.Brand{}, fmt.Errorf("разбор расписания бренда: %w", err)
		}
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &brand.Settings); err != nil {
			return domain.Brand{}, fmt.Errorf("разбор настроек бренда: %w", err)
		}
	}
	return brand, nil
}

// CreateBrand сохраняет новый бренд.
func (p *Postgres) CreateBrand(brand domain.Brand) (domain.Brand, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	cadence, err := json.Marshal(brand.Cadence)
	if err != nil {
		return domain.Brand{}, err
	}
	settings, err := json.Marshal(brand.Settings)
	if err != nil {
		return domain.Brand{}, err
	}

	start := time.Now()
	saved, err := scanBrand(p.pool.QueryRow(ctx, `
INSERT INTO brands (slug, name, voice, tagline, pillars, cadence, platforms, tz, settings)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING `+brandColumns+`
`, brand.Slug, brand.Name, brand.Voice, brand.Tagline, brand.Pillars, cadence, brand.Platforms, brand.Timezone, settings))
	metrics.ObserveNetworkRequest("postgres", "brands_insert", "brands", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Brand{}, domain.ErrBrandExists
		}
		return domain.Brand{}, err
	}
	return saved, nil
}

// GetBrand возвращает бренд по идентификатору.
func (p *Postgres) GetBrand(id uuid.UUID) (domain.Brand, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	brand, err := scanBrand(p.pool.QueryRow(ctx, `
SELECT `+brandColumns+` FROM brands WHERE id=$1
`, id))
	metrics.ObserveNetworkRequest("postgres", "brands_get", "brands", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Brand{}, domain.ErrBrandNotFound
	}
	return brand, err
}

// GetBrandBySlug возвращает бренд по slug.
func (p *Postgres) GetBrandBySlug(slug string) (domain.Brand, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	brand, err := scanBrand(p.pool.QueryRow(ctx, `
SELECT `+brandColumns+` FROM brands WHERE slug=$1
`, slug))
	metrics.ObserveNetworkRequest("postgres", "brands_get_by_slug", "brands", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Brand{}, domain.ErrBrandNotFound
	}
	return brand, err
}

// UpdateBrand применяет частичное обновление и возвращает свежую запись.
// Поля патча, оставленные nil, не затрагиваются.
func (p *Postgres) UpdateBrand(id uuid.UUID, patch domain.BrandPatch) (domain.Brand, error) {
	set := make([]string, 0, 8)
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Voice != nil {
		add("voice", *patch.Voice)
	}
	if patch.Tagline != nil {
		add("tagline", *patch.Tagline)
	}
	if patch.Pillars != nil {
		add("pillars", *patch.Pillars)
	}
	if patch.Cadence != nil {
		cadence, err := json.Marshal(*patch.Cadence)
		if err != nil {
			return domain.Brand{}, err
		}
		add("cadence", cadence)
	}
	if patch.Platforms != nil {
		add("platforms", *patch.Platforms)
	}
	if patch.Timezone != nil {
		add("tz", *patch.Timezone)
	}
	if patch.Settings != nil {
		settings, err := json.Marshal(*patch.Settings)
		if err != nil {
			return domain.Brand{}, err
		}
		add("settings", settings)
	}

	if len(set) == 0 {
		return p.GetBrand(id)
	}
	set = append(set, "updated_at=now()")

	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	brand, err := scanBrand(p.pool.QueryRow(ctx,
		"UPDATE brands SET "+strings.Join(set, ", ")+" WHERE id=$1 RETURNING "+brandColumns, args...))
	metrics.ObserveNetworkRequest("postgres", "brands_update", "brands", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Brand{}, domain.ErrBrandNotFound
	}
	return brand, err
}

const postColumns = "id, brand_id, body, status, platforms, pillar_key, pillar_label, format_key, scheduled_at, published_at, created_at, updated_at"

func scanPost(row pgx.Row) (domain.Post, error) {
	var (
		post        domain.Post
		scheduledAt sql.NullTime
		publishedAt sql.NullTime
	)
	err := row.Scan(&post.ID, &post.BrandID, &post.Text, &post.Status, &post.Platforms,
		&post.Meta.PillarKey, &post.Meta.PillarLabel, &post.Meta.FormatKey,
		&scheduledAt, &publishedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return domain.Post{}, err
	}
	if scheduledAt.Valid {
		ts := scheduledAt.Time
		post.ScheduledAt = &ts
	}
	if publishedAt.Valid {
		ts := publishedAt.Time
		post.PublishedAt = &ts
	}
	return post, nil
}

// CreatePosts сохраняет партию постов и возвращает её с идентификаторами.
// Партия уходит одним пайплайном, поэтому частичного сохранения не бывает.
func (p *Postgres) CreatePosts(posts []domain.Post) ([]domain.Post, error) {
	if len(posts) == 0 {
		return nil, nil
	}
	ctx, cancel := p.connCtx()
	defer cancel()

	batch := &pgx.Batch{}
	for _, post := range posts {
		batch.Queue(`
INSERT INTO posts (brand_id, body, status, platforms, pillar_key, pillar_label, format_key, scheduled_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING `+postColumns+`
`, post.BrandID, post.Text, post.Status, post.Platforms, post.Meta.PillarKey, post.Meta.PillarLabel, post.Meta.FormatKey, post.ScheduledAt)
	}

	start := time.Now()
	br := p.pool.SendBatch(ctx, batch)
	metrics.ObserveNetworkRequest("postgres", "posts_send_batch", "posts", start, nil)
	defer br.Close()

	saved := make([]domain.Post, 0, len(posts))
	for range posts {
		start = time.Now()
		post, err := scanPost(br.QueryRow())
		metrics.ObserveNetworkRequest("postgres", "posts_batch_insert", "posts", start, err)
		if err != nil {
			return nil, err
		}
		saved = append(saved, post)
	}
	return saved, nil
}

// GetPost возвращает пост по идентификатору.
func (p *Postgres) GetPost(id uuid.UUID) (domain.Post, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	post, err := scanPost(p.pool.QueryRow(ctx, `
SELECT `+postColumns+` FROM posts WHERE id=$1
`, id))
	metrics.ObserveNetworkRequest("postgres", "posts_get", "posts", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, domain.ErrPostNotFound
	}
	return post, err
}

// ListPosts возвращает посты по фильтру в порядке убывания времени создания.
func (p *Postgres) ListPosts(filter domain.PostFilter) ([]domain.Post, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.BrandID != nil {
		args = append(args, *filter.BrandID)
		where = append(where, fmt.Sprintf("brand_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := "SELECT " + postColumns + " FROM posts"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "posts_list", "posts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// UpdatePost применяет частичное обновление поста. Смена статуса этим путём —
// обычная правка записи без проверки переходов жизненного цикла.
func (p *Postgres) UpdatePost(id uuid.UUID, patch domain.PostPatch) (domain.Post, error) {
	set := make([]string, 0, 5)
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Text != nil {
		add("body", *patch.Text)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Platforms != nil {
		add("platforms", *patch.Platforms)
	}
	switch {
	case patch.ClearScheduledAt:
		set = append(set, "scheduled_at=NULL")
	case patch.ScheduledAt != nil:
		add("scheduled_at", *patch.ScheduledAt)
	}

	if len(set) == 0 {
		return p.GetPost(id)
	}
	set = append(set, "updated_at=now()")

	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	post, err := scanPost(p.pool.QueryRow(ctx,
		"UPDATE posts SET "+strings.Join(set, ", ")+" WHERE id=$1 RETURNING "+postColumns, args...))
	metrics.ObserveNetworkRequest("postgres", "posts_update", "posts", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, domain.ErrPostNotFound
	}
	return post, err
}

// ListDuePosts возвращает одобренные посты с наступившим временем публикации.
func (p *Postgres) ListDuePosts(now time.Time, limit int) ([]domain.Post, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+postColumns+` FROM posts
WHERE status=$1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
ORDER BY scheduled_at ASC
LIMIT $3
`, domain.PostStatusApproved, now, limit)
	metrics.ObserveNetworkRequest("postgres", "posts_list_due", "posts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// ApprovePost выполняет условный переход draft→approved одной строкой.
func (p *Postgres) ApprovePost(id uuid.UUID) (bool, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `
UPDATE posts SET status=$2, updated_at=now()
WHERE id=$1 AND status=$3
`, id, domain.PostStatusApproved, domain.PostStatusDraft)
	metrics.ObserveNetworkRequest("postgres", "posts_approve", "posts", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// MarkPostPublished выполняет условный переход approved→published,
// фиксируя момент публикации ровно один раз.
func (p *Postgres) MarkPostPublished(id uuid.UUID, at time.Time) (bool, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `
UPDATE posts SET status=$2, published_at=COALESCE(published_at, $3), updated_at=now()
WHERE id=$1 AND status=$4
`, id, domain.PostStatusPublished, at, domain.PostStatusApproved)
	metrics.ObserveNetworkRequest("postgres", "posts_mark_published", "posts", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// MarkPostFailed выполняет условный переход approved→failed.
func (p *Postgres) MarkPostFailed(id uuid.UUID) (bool, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `
UPDATE posts SET status=$2, updated_at=now()
WHERE id=$1 AND status=$3
`, id, domain.PostStatusFailed, domain.PostStatusApproved)
	metrics.ObserveNetworkRequest("postgres", "posts_mark_failed", "posts", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// EnsureComposeJob регистрирует попытку обработки задачи генерации.
func (p *Postgres) EnsureComposeJob(jobID string) (bool, int, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	var (
		done     sql.NullTime
		attempts int
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO compose_job_statuses (job_id, attempts, updated_at)
VALUES ($1, 1, now())
ON CONFLICT (job_id) DO UPDATE
    SET attempts = compose_job_statuses.attempts + 1,
        updated_at = now()
RETURNING done_at, attempts
`, jobID).Scan(&done, &attempts)
	metrics.ObserveNetworkRequest("postgres", "compose_job_statuses_upsert", "compose_job_statuses", start, err)
	if err != nil {
		return false, 0, err
	}
	return done.Valid, attempts, nil
}

// MarkComposeJobDone помечает задачу генерации как выполненную.
func (p *Postgres) MarkComposeJobDone(jobID string) error {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE compose_job_statuses
SET done_at = COALESCE(done_at, now()),
    updated_at = now()
WHERE job_id = $1
`, jobID)
	metrics.ObserveNetworkRequest("postgres", "compose_job_statuses_mark_done", "compose_job_statuses", start, err)
	return err
}
