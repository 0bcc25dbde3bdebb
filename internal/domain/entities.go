package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrBrandNotFound возвращается, если бренд не найден в хранилище.
var ErrBrandNotFound = errors.New("brand not found")

// ErrBrandExists возвращается при попытке занять уже используемый slug.
var ErrBrandExists = errors.New("brand already exists")

// ErrPostNotFound возвращается, если пост не найден в хранилище.
var ErrPostNotFound = errors.New("post not found")

// DefaultPlatforms — целевые платформы поста, если бренд не настроил свои.
var DefaultPlatforms = []string{"linkedin"}

// Brand описывает бренд, от имени которого генерируется контент.
type Brand struct {
	ID        uuid.UUID     `json:"id"`
	Slug      string        `json:"slug"`
	Name      string        `json:"name"`
	Voice     string        `json:"voice,omitempty"`
	Tagline   string        `json:"tagline,omitempty"`
	Pillars   []string      `json:"pillars,omitempty"`
	Cadence   Cadence       `json:"cadence"`
	Platforms []string      `json:"platforms"`
	Timezone  string        `json:"tz"`
	Settings  BrandSettings `json:"settings"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Cadence задаёт недельное расписание публикаций.
// Дни недели нумеруются по ISO: понедельник=1 … воскресенье=7.
type Cadence struct {
	Weekdays []int `json:"weekdays"`
	Hour     int   `json:"hour"`
	Minute   int   `json:"minute"`
}

// WeightedItem — элемент взвешенного списка: тема или формат поста.
// Вес неотрицателен, сумма весов не обязана равняться какому-либо значению.
type WeightedItem struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// HashtagPolicy задаёт правила использования хэштегов. Max=0 означает полный запрет.
type HashtagPolicy struct {
	Min   int      `json:"min"`
	Max   int      `json:"max"`
	House []string `json:"house,omitempty"`
}

// CTAPolicy задаёт стиль призыва к действию и пул вариантов.
type CTAPolicy struct {
	Type string   `json:"type,omitempty"`
	Pool []string `json:"pool,omitempty"`
}

// WordCountRange задаёт целевой объём текста в словах.
type WordCountRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// BrandSettings — настройки генерации контента бренда. Все поля необязательны;
// порядок разрешения значений: явное поле → данные бренда → глобальный дефолт.
type BrandSettings struct {
	Tone          []string        `json:"tone,omitempty"`
	PointOfView   string          `json:"point_of_view,omitempty"`
	Spelling      string          `json:"spelling,omitempty"`
	EmojiPolicy   string          `json:"emoji_policy,omitempty"`
	NoEmDash      bool            `json:"no_em_dash,omitempty"`
	BannedPhrases []string        `json:"banned_phrases,omitempty"`
	Hashtags      *HashtagPolicy  `json:"hashtags,omitempty"`
	CTA           *CTAPolicy      `json:"cta,omitempty"`
	Pillars       []WeightedItem  `json:"pillars,omitempty"`
	Formats       []WeightedItem  `json:"formats,omitempty"`
	WordCount     *WordCountRange `json:"word_count,omitempty"`
}

// PostMeta хранит происхождение поста: выбранную тему и формат.
type PostMeta struct {
	PillarKey   string `json:"pillar_key"`
	PillarLabel string `json:"pillar_label"`
	FormatKey   string `json:"format_key"`
}

// Post представляет один сгенерированный пост на пути от черновика к публикации.
// ScheduledAt после назначения меняется только явным обновлением;
// PublishedAt проставляется ровно один раз при переходе в published.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	BrandID     uuid.UUID  `json:"brand_id"`
	Text        string     `json:"text"`
	Status      PostStatus `json:"status"`
	Platforms   []string   `json:"platforms"`
	Meta        PostMeta   `json:"meta"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
