package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"smm-planner/internal/domain"
)

type stubBrandRepo struct {
	brand  domain.Brand
	getErr error
	patch  domain.BrandPatch
}

func (s *stubBrandRepo) CreateBrand(brand domain.Brand) (domain.Brand, error) {
	return brand, nil
}

func (s *stubBrandRepo) GetBrand(id uuid.UUID) (domain.Brand, error) {
	if s.getErr != nil {
		return domain.Brand{}, s.getErr
	}
	return s.brand, nil
}

func (s *stubBrandRepo) GetBrandBySlug(slug string) (domain.Brand, error) {
	return s.brand, nil
}

func (s *stubBrandRepo) UpdateBrand(id uuid.UUID, patch domain.BrandPatch) (domain.Brand, error) {
	s.patch = patch
	if patch.Cadence != nil {
		s.brand.Cadence = *patch.Cadence
	}
	if patch.Timezone != nil {
		s.brand.Timezone = *patch.Timezone
	}
	return s.brand, nil
}

func TestPreviewUsesBrandCadence(t *testing.T) {
	repo := &stubBrandRepo{brand: domain.Brand{
		ID:      uuid.New(),
		Cadence: domain.Cadence{Weekdays: []int{2, 5}, Hour: 10, Minute: 0},
	}}
	svc := NewService(repo)
	svc.now = func() time.Time { return monday }

	got, err := svc.Preview(context.Background(), repo.brand.ID, 2)
	if err != nil {
		t.Fatalf("Preview вернул ошибку: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(Preview) = %d, want 2", len(got))
	}
	if !got[0].Equal(time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("Preview[0] = %v", got[0])
	}
}

func TestPreviewBrandNotFound(t *testing.T) {
	repo := &stubBrandRepo{getErr: domain.ErrBrandNotFound}
	svc := NewService(repo)

	if _, err := svc.Preview(context.Background(), uuid.New(), 3); !errors.Is(err, domain.ErrBrandNotFound) {
		t.Fatalf("ожидалась ErrBrandNotFound, получено %v", err)
	}
}

func TestUpdateCadenceNormalizes(t *testing.T) {
	repo := &stubBrandRepo{}
	svc := NewService(repo)

	brand, err := svc.UpdateCadence(context.Background(), uuid.New(), domain.Cadence{Weekdays: []int{9, 2}, Hour: 50, Minute: 70})
	if err != nil {
		t.Fatalf("UpdateCadence вернул ошибку: %v", err)
	}
	if repo.patch.Cadence == nil {
		t.Fatal("патч не содержит расписания")
	}
	if brand.Cadence.Hour != DefaultCadenceHour || brand.Cadence.Minute != DefaultCadenceMinute {
		t.Fatalf("время не приведено к дефолту: %d:%d", brand.Cadence.Hour, brand.Cadence.Minute)
	}
	if len(brand.Cadence.Weekdays) != 1 || brand.Cadence.Weekdays[0] != 2 {
		t.Fatalf("дни не отфильтрованы: %v", brand.Cadence.Weekdays)
	}
}

func TestUpdateTimezone(t *testing.T) {
	repo := &stubBrandRepo{}
	svc := NewService(repo)

	if _, err := svc.UpdateTimezone(context.Background(), uuid.New(), "not a zone"); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("ожидалась ErrInvalidTimezone, получено %v", err)
	}

	brand, err := svc.UpdateTimezone(context.Background(), uuid.New(), "UTC")
	if err != nil {
		t.Fatalf("UpdateTimezone вернул ошибку: %v", err)
	}
	if brand.Timezone != "UTC" {
		t.Fatalf("Timezone = %q, want UTC", brand.Timezone)
	}
}
