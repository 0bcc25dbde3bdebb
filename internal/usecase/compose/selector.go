package compose

import (
	"math/rand"

	"smm-planner/internal/domain"
)

// Selector выбирает элемент взвешенного списка пропорционально весам.
// Источник случайности передаётся снаружи, поэтому при фиксированном seed
// выбор воспроизводим.
type Selector struct {
	rnd *rand.Rand
}

// NewSelector создаёт селектор поверх указанного источника случайности.
func NewSelector(rnd *rand.Rand) *Selector {
	return &Selector{rnd: rnd}
}

// Pick возвращает один элемент непустого списка. Отрицательные веса
// считаются нулевыми; при нулевой сумме весов результат детерминирован —
// первый элемент. На непустом входе Pick не может завершиться неудачей;
// пустой список — ошибка вызывающей стороны, вызывающие всегда передают
// хотя бы один элемент.
func (s *Selector) Pick(items []domain.WeightedItem) domain.WeightedItem {
	total := 0.0
	for _, item := range items {
		if item.Weight > 0 {
			total += item.Weight
		}
	}
	if total <= 0 {
		total = 1
	}
	draw := s.rnd.Float64() * total
	for _, item := range items {
		if item.Weight <= 0 {
			continue
		}
		draw -= item.Weight
		if draw <= 0 {
			return item
		}
	}
	return items[0]
}
