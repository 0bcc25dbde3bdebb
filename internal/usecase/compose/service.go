package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"smm-planner/internal/domain"
	"smm-planner/internal/infra/metrics"
	"smm-planner/internal/usecase/schedule"
)

// Service реализует генерацию черновиков бренда: выбор пар (тема, формат),
// бриф для генератора и раскладку результата по слотам расписания.
type Service struct {
	brands    domain.BrandRepo
	posts     domain.PostRepo
	generator domain.ContentGenerator
	selector  *Selector
	log       zerolog.Logger
	now       func() time.Time
}

// NewService создаёт сервис генерации черновиков.
func NewService(brands domain.BrandRepo, posts domain.PostRepo, generator domain.ContentGenerator, selector *Selector, logger zerolog.Logger) *Service {
	return &Service{brands: brands, posts: posts, generator: generator, selector: selector, log: logger, now: time.Now}
}

// Compose генерирует count черновиков для бренда. Пары (тема, формат)
// выбираются независимыми взвешенными розыгрышами, поэтому могут
// повторяться. Ошибка вызова генератора пробрасывается, и ни один черновик
// не сохраняется; пустой (в том числе нечитаемый) ответ генератора даёт
// пустой результат без ошибки.
func (s *Service) Compose(ctx context.Context, brandID uuid.UUID, count int) ([]domain.Post, error) {
	if count <= 0 {
		count = 1
	}
	start := time.Now()

	brand, err := s.brands.GetBrand(brandID)
	if err != nil {
		return nil, fmt.Errorf("получение бренда: %w", err)
	}

	pillars := effectivePillars(brand)
	formats := effectiveFormats(brand)

	pairs := make([]selectionPair, 0, count)
	for i := 0; i < count; i++ {
		pairs = append(pairs, selectionPair{
			Pillar: s.selector.Pick(pillars),
			Format: s.selector.Pick(formats),
		})
	}

	brief := buildBrief(brand, pairs)
	items, err := s.generator.Generate(brief, len(pairs))
	if err != nil {
		return nil, fmt.Errorf("генерация текстов: %w", err)
	}
	if len(items) == 0 {
		s.log.Warn().Str("brand", brand.Slug).Int("requested", count).Msg("генератор вернул пустой результат")
		return nil, nil
	}

	now := s.now().In(schedule.BrandLocation(brand))
	slots := schedule.NextTimes(brand.Cadence, max(1, len(items)), now)

	posts := make([]domain.Post, 0, len(items))
	for i, item := range items {
		post := domain.Post{
			BrandID:   brand.ID,
			Text:      SanitizeText(item.Text),
			Status:    domain.PostStatusDraft,
			Platforms: platformsFor(brand),
			Meta:      metaFor(item, pairs, i),
		}
		if i < len(slots) {
			slot := slots[i]
			post.ScheduledAt = &slot
		}
		posts = append(posts, post)
	}

	saved, err := s.posts.CreatePosts(posts)
	if err != nil {
		return nil, fmt.Errorf("сохранение черновиков: %w", err)
	}
	metrics.AddDraftsCreated(brand.Slug, len(saved))
	metrics.ComposeBuildSeconds.Observe(time.Since(start).Seconds())
	return saved, nil
}

// SanitizeText заменяет длинное тире на дефис независимо от указаний брифа.
func SanitizeText(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "—", "-")
}

// metaFor заполняет происхождение поста из ответа генератора, подставляя
// данные выбранной пары, если генератор их опустил.
func metaFor(item domain.GeneratedItem, pairs []selectionPair, i int) domain.PostMeta {
	meta := domain.PostMeta{
		PillarKey:   strings.TrimSpace(item.PillarKey),
		PillarLabel: strings.TrimSpace(item.PillarLabel),
		FormatKey:   strings.TrimSpace(item.FormatKey),
	}
	if i < len(pairs) {
		if meta.PillarKey == "" {
			meta.PillarKey = pairs[i].Pillar.Key
		}
		if meta.PillarLabel == "" {
			meta.PillarLabel = pairs[i].Pillar.Label
		}
		if meta.FormatKey == "" {
			meta.FormatKey = pairs[i].Format.Key
		}
	}
	return meta
}

func platformsFor(brand domain.Brand) []string {
	if len(brand.Platforms) > 0 {
		return append([]string(nil), brand.Platforms...)
	}
	return append([]string(nil), domain.DefaultPlatforms...)
}
