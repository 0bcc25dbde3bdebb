package domain

import (
	"time"

	"github.com/google/uuid"
)

// BrandPatch описывает частичное обновление бренда.
// Нулевой указатель оставляет поле без изменений.
type BrandPatch struct {
	Name      *string
	Voice     *string
	Tagline   *string
	Pillars   *[]string
	Cadence   *Cadence
	Platforms *[]string
	Timezone  *string
	Settings  *BrandSettings
}

// PostPatch описывает частичное обновление поста. Обновление статуса через
// патч — обычная правка записи (например, возврат failed-поста в approved),
// а не переход жизненного цикла.
type PostPatch struct {
	Text             *string
	Status           *PostStatus
	Platforms        *[]string
	ScheduledAt      *time.Time
	ClearScheduledAt bool
}

// PostFilter задаёт выборку постов.
type PostFilter struct {
	BrandID *uuid.UUID
	Status  *PostStatus
	Limit   int
	Offset  int
}

// BrandRepo управляет брендами.
type BrandRepo interface {
	CreateBrand(brand Brand) (Brand, error)
	GetBrand(id uuid.UUID) (Brand, error)
	GetBrandBySlug(slug string) (Brand, error)
	UpdateBrand(id uuid.UUID, patch BrandPatch) (Brand, error)
}

// PostRepo управляет постами.
type PostRepo interface {
	CreatePosts(posts []Post) ([]Post, error)
	GetPost(id uuid.UUID) (Post, error)
	// ListPosts возвращает посты в порядке убывания времени создания.
	ListPosts(filter PostFilter) ([]Post, error)
	UpdatePost(id uuid.UUID, patch PostPatch) (Post, error)
	// ListDuePosts возвращает одобренные посты с наступившим временем публикации.
	ListDuePosts(now time.Time, limit int) ([]Post, error)
	// ApprovePost выполняет условный переход draft→approved одной строкой.
	// Возвращает false без ошибки, если пост уже не в статусе draft.
	ApprovePost(id uuid.UUID) (bool, error)
	// MarkPostPublished выполняет условный переход approved→published,
	// одновременно фиксируя момент публикации.
	MarkPostPublished(id uuid.UUID, at time.Time) (bool, error)
	// MarkPostFailed выполняет условный переход approved→failed.
	MarkPostFailed(id uuid.UUID) (bool, error)
}

// GeneratedItem — один элемент структурированного ответа генератора.
type GeneratedItem struct {
	Text        string `json:"text"`
	PillarKey   string `json:"pillar_key"`
	PillarLabel string `json:"pillar_label"`
	FormatKey   string `json:"format_key"`
}

// ContentGenerator порождает тексты постов по текстовому брифу.
// Нечитаемый ответ модели трактуется как пустой результат, а не ошибка;
// ошибка возвращается только при сбое самого вызова.
type ContentGenerator interface {
	Generate(brief string, expected int) ([]GeneratedItem, error)
}

// PublishResult — результат публикации на одной платформе.
type PublishResult struct {
	OK  bool
	URL string
}

// Publisher публикует пост на конкретной платформе.
type Publisher interface {
	Publish(post Post, platform string) (PublishResult, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
