package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"smm-planner/internal/domain"
)

// ErrInvalidTimezone возвращается, если указан некорректный часовой пояс.
var ErrInvalidTimezone = errors.New("invalid timezone")

// Service отвечает за расписание публикаций бренда.
type Service struct {
	brands domain.BrandRepo
	now    func() time.Time
}

// NewService создаёт сервис.
func NewService(brands domain.BrandRepo) *Service {
	return &Service{brands: brands, now: time.Now}
}

// Preview возвращает ближайшие времена публикации бренда в его часовом поясе.
func (s *Service) Preview(ctx context.Context, brandID uuid.UUID, count int) ([]time.Time, error) {
	brand, err := s.brands.GetBrand(brandID)
	if err != nil {
		return nil, fmt.Errorf("получение бренда: %w", err)
	}
	return NextTimes(brand.Cadence, count, s.now().In(BrandLocation(brand))), nil
}

// UpdateCadence сохраняет новое недельное расписание бренда.
func (s *Service) UpdateCadence(ctx context.Context, brandID uuid.UUID, cadence domain.Cadence) (domain.Brand, error) {
	normalized := NormalizeCadence(cadence)
	brand, err := s.brands.UpdateBrand(brandID, domain.BrandPatch{Cadence: &normalized})
	if err != nil {
		return domain.Brand{}, fmt.Errorf("обновление расписания: %w", err)
	}
	return brand, nil
}

// UpdateTimezone сохраняет часовой пояс бренда.
func (s *Service) UpdateTimezone(ctx context.Context, brandID uuid.UUID, timezone string) (domain.Brand, error) {
	normalized, err := NormalizeTimezone(timezone)
	if err != nil {
		return domain.Brand{}, err
	}
	brand, err := s.brands.UpdateBrand(brandID, domain.BrandPatch{Timezone: &normalized})
	if err != nil {
		return domain.Brand{}, fmt.Errorf("обновление часового пояса: %w", err)
	}
	return brand, nil
}

// BrandLocation возвращает часовой пояс бренда, по умолчанию UTC.
func BrandLocation(brand domain.Brand) *time.Location {
	if brand.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(brand.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NormalizeTimezone приводит название зоны к каноническому виду IANA.
func NormalizeTimezone(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", ErrInvalidTimezone
	}
	candidate = strings.ReplaceAll(candidate, " ", "_")
	if _, err := time.LoadLocation(candidate); err == nil {
		return candidate, nil
	}

	lower := strings.ToLower(candidate)
	parts := strings.Split(lower, "/")
	for i, part := range parts {
		segments := strings.Split(part, "_")
		for j, segment := range segments {
			pieces := strings.Split(segment, "-")
			for k, piece := range pieces {
				if piece == "" {
					continue
				}
				pieces[k] = strings.ToUpper(piece[:1]) + piece[1:]
			}
			segments[j] = strings.Join(pieces, "-")
		}
		parts[i] = strings.Join(segments, "_")
	}
	normalized := strings.Join(parts, "/")
	if _, err := time.LoadLocation(normalized); err == nil {
		return normalized, nil
	}
	return "", ErrInvalidTimezone
}
