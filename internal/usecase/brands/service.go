package brands

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"smm-planner/internal/domain"
	"smm-planner/internal/usecase/schedule"
)

var (
	// ErrIdentityRequired возвращается, если при регистрации не заданы slug или название.
	ErrIdentityRequired = errors.New("slug и название бренда обязательны")
	// ErrSlugInvalid возвращается при недопустимом slug.
	ErrSlugInvalid = errors.New("некорректный slug бренда")
)

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// Service управляет брендами.
type Service struct {
	repo      domain.BrandRepo
	defaultTZ string
}

// NewService создаёт сервис брендов. defaultTZ подставляется брендам,
// зарегистрированным без часового пояса.
func NewService(repo domain.BrandRepo, defaultTZ string) *Service {
	return &Service{repo: repo, defaultTZ: defaultTZ}
}

// ParseSlug приводит ввод к каноничному slug.
func ParseSlug(input string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(input))
	if !slugRegex.MatchString(slug) {
		return "", ErrSlugInvalid
	}
	return slug, nil
}

// Register регистрирует бренд. Некорректные расписание и списки исправляются
// до допустимых значений, отсутствие slug или названия отклоняется.
func (s *Service) Register(ctx context.Context, brand domain.Brand) (domain.Brand, error) {
	name := strings.TrimSpace(brand.Name)
	if strings.TrimSpace(brand.Slug) == "" || name == "" {
		return domain.Brand{}, ErrIdentityRequired
	}
	slug, err := ParseSlug(brand.Slug)
	if err != nil {
		return domain.Brand{}, err
	}

	brand.Slug = slug
	brand.Name = name
	brand.Voice = strings.TrimSpace(brand.Voice)
	brand.Tagline = strings.TrimSpace(brand.Tagline)
	brand.Pillars = NormalizeLabels(brand.Pillars)
	brand.Platforms = normalizePlatformsOrDefault(brand.Platforms)
	brand.Cadence = schedule.NormalizeCadence(brand.Cadence)

	timezone := s.defaultTZ
	if strings.TrimSpace(brand.Timezone) != "" {
		timezone, err = schedule.NormalizeTimezone(brand.Timezone)
		if err != nil {
			return domain.Brand{}, err
		}
	}
	brand.Timezone = timezone

	created, err := s.repo.CreateBrand(brand)
	if err != nil {
		return domain.Brand{}, fmt.Errorf("сохранение бренда: %w", err)
	}
	return created, nil
}

// Get возвращает бренд по идентификатору.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Brand, error) {
	brand, err := s.repo.GetBrand(id)
	if err != nil {
		return domain.Brand{}, fmt.Errorf("получение бренда: %w", err)
	}
	return brand, nil
}

// GetBySlug возвращает бренд по slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (domain.Brand, error) {
	brand, err := s.repo.GetBrandBySlug(strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return domain.Brand{}, fmt.Errorf("получение бренда: %w", err)
	}
	return brand, nil
}

// Update выполняет частичное обновление бренда: незаданные поля патча
// сохраняют прежние значения.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch domain.BrandPatch) (domain.Brand, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.Brand{}, ErrIdentityRequired
		}
		patch.Name = &name
	}
	if patch.Pillars != nil {
		pillars := NormalizeLabels(*patch.Pillars)
		patch.Pillars = &pillars
	}
	if patch.Platforms != nil {
		platforms := normalizePlatformsOrDefault(*patch.Platforms)
		patch.Platforms = &platforms
	}
	if patch.Cadence != nil {
		cadence := schedule.NormalizeCadence(*patch.Cadence)
		patch.Cadence = &cadence
	}
	if patch.Timezone != nil {
		timezone, err := schedule.NormalizeTimezone(*patch.Timezone)
		if err != nil {
			return domain.Brand{}, err
		}
		patch.Timezone = &timezone
	}

	brand, err := s.repo.UpdateBrand(id, patch)
	if err != nil {
		return domain.Brand{}, fmt.Errorf("обновление бренда: %w", err)
	}
	return brand, nil
}

// NormalizeLabels удаляет пустые и дублирующиеся значения, сохраняя порядок.
func NormalizeLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	cleaned := make([]string, 0, len(labels))
	for _, label := range labels {
		trimmed := strings.TrimSpace(label)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, trimmed)
	}
	return cleaned
}

// normalizePlatformsOrDefault приводит идентификаторы платформ к нижнему
// регистру без дублей; пустой список заменяется платформами по умолчанию.
func normalizePlatformsOrDefault(platforms []string) []string {
	seen := make(map[string]struct{}, len(platforms))
	cleaned := make([]string, 0, len(platforms))
	for _, platform := range platforms {
		normalized := strings.ToLower(strings.TrimSpace(platform))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		cleaned = append(cleaned, normalized)
	}
	if len(cleaned) == 0 {
		return append([]string(nil), domain.DefaultPlatforms...)
	}
	return cleaned
}
