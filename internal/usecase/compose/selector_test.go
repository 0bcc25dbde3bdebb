package compose

import (
	"math/rand"
	"testing"

	"smm-planner/internal/domain"
)

func newTestSelector(seed int64) *Selector {
	return NewSelector(rand.New(rand.NewSource(seed)))
}

func TestPickSinglePositiveWeight(t *testing.T) {
	items := []domain.WeightedItem{
		{Key: "a", Weight: 100},
		{Key: "b", Weight: 0},
	}
	s := newTestSelector(42)
	for i := 0; i < 1000; i++ {
		if got := s.Pick(items); got.Key != "a" {
			t.Fatalf("розыгрыш %d вернул %q, want a", i, got.Key)
		}
	}
}

func TestPickPositiveWeightInMiddle(t *testing.T) {
	items := []domain.WeightedItem{
		{Key: "a", Weight: 0},
		{Key: "b", Weight: 7},
		{Key: "c", Weight: 0},
	}
	s := newTestSelector(7)
	for i := 0; i < 500; i++ {
		if got := s.Pick(items); got.Key != "b" {
			t.Fatalf("розыгрыш %d вернул %q, want b", i, got.Key)
		}
	}
}

func TestPickAllZeroWeightsReturnsFirst(t *testing.T) {
	items := []domain.WeightedItem{{Key: "x"}, {Key: "y"}, {Key: "z"}}
	s := newTestSelector(1)
	for i := 0; i < 100; i++ {
		if got := s.Pick(items); got.Key != "x" {
			t.Fatalf("при нулевых весах должен возвращаться первый элемент, получен %q", got.Key)
		}
	}
}

func TestPickReturnsElementOfInput(t *testing.T) {
	items := []domain.WeightedItem{
		{Key: "a", Weight: 1},
		{Key: "b", Weight: 2.5},
		{Key: "c", Weight: 0.1},
		{Key: "d", Weight: 10},
	}
	keys := map[string]bool{"a": true, "b": true, "c": true, "d": true}
	s := newTestSelector(1234)
	for i := 0; i < 1000; i++ {
		if got := s.Pick(items); !keys[got.Key] {
			t.Fatalf("Pick вернул элемент не из списка: %q", got.Key)
		}
	}
}

func TestPickReproducibleWithSeed(t *testing.T) {
	items := []domain.WeightedItem{
		{Key: "a", Weight: 1},
		{Key: "b", Weight: 1},
		{Key: "c", Weight: 1},
	}
	first := newTestSelector(99)
	second := newTestSelector(99)
	for i := 0; i < 200; i++ {
		a, b := first.Pick(items), second.Pick(items)
		if a.Key != b.Key {
			t.Fatalf("розыгрыш %d: %q != %q при одинаковом seed", i, a.Key, b.Key)
		}
	}
}

func TestPickNegativeWeightTreatedAsZero(t *testing.T) {
	items := []domain.WeightedItem{
		{Key: "a", Weight: -5},
		{Key: "b", Weight: 3},
	}
	s := newTestSelector(5)
	for i := 0; i < 300; i++ {
		if got := s.Pick(items); got.Key != "b" {
			t.Fatalf("отрицательный вес должен игнорироваться, получен %q", got.Key)
		}
	}
}
