package schedule

import (
	"testing"
	"time"

	"smm-planner/internal/domain"
)

// 2025-06-02 — понедельник.
var monday = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func TestNextTimesTueFriExample(t *testing.T) {
	cadence := domain.Cadence{Weekdays: []int{2, 5}, Hour: 10, Minute: 0}

	got := NextTimes(cadence, 2, monday)

	want := []time.Time{
		time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 6, 10, 0, 0, 0, time.UTC),
	}
	if len(got) != len(want) {
		t.Fatalf("len(NextTimes) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("NextTimes[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNextTimesEmptyWeekdays(t *testing.T) {
	cadence := domain.Cadence{Weekdays: nil, Hour: 10}
	for _, count := range []int{0, 1, 5, 100} {
		if got := NextTimes(cadence, count, monday); len(got) != 0 {
			t.Fatalf("пустой набор дней должен давать пустой результат, count=%d получено %d", count, len(got))
		}
	}
}

func TestNextTimesSkipsPassedSlotToday(t *testing.T) {
	// сейчас ровно 10:00 вторника — сегодняшний слот уже не строго в будущем
	now := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	cadence := domain.Cadence{Weekdays: []int{2}, Hour: 10, Minute: 0}

	got := NextTimes(cadence, 1, now)

	want := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	if len(got) != 1 || !got[0].Equal(want) {
		t.Fatalf("NextTimes = %v, want [%v]", got, want)
	}
}

func TestNextTimesOrderedAndMatching(t *testing.T) {
	cadence := domain.Cadence{Weekdays: []int{1, 2, 3, 4, 5, 6, 7}, Hour: 8, Minute: 30}

	got := NextTimes(cadence, 10, monday)

	if len(got) != 10 {
		t.Fatalf("len(NextTimes) = %d, want 10", len(got))
	}
	for i, ts := range got {
		if !ts.After(monday) {
			t.Fatalf("NextTimes[%d] = %v не строго позже now", i, ts)
		}
		if ts.Hour() != 8 || ts.Minute() != 30 || ts.Second() != 0 {
			t.Fatalf("NextTimes[%d] = %v не совпадает со временем расписания", i, ts)
		}
		if i > 0 && got[i].Before(got[i-1]) {
			t.Fatalf("нарушен порядок: %v раньше %v", got[i], got[i-1])
		}
	}
}

func TestNextTimesWindowCapsResult(t *testing.T) {
	// в окне 30 дней всего пять понедельников
	cadence := domain.Cadence{Weekdays: []int{1}, Hour: 10, Minute: 0}

	got := NextTimes(cadence, 10, monday)

	if len(got) != 5 {
		t.Fatalf("len(NextTimes) = %d, want 5", len(got))
	}
}

func TestNextTimesDeterministic(t *testing.T) {
	cadence := domain.Cadence{Weekdays: []int{3, 6}, Hour: 18, Minute: 45}
	first := NextTimes(cadence, 4, monday)
	second := NextTimes(cadence, 4, monday)
	if len(first) != len(second) {
		t.Fatalf("повторный вызов дал другую длину: %d и %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Fatalf("повторный вызов дал другой результат: %v и %v", first[i], second[i])
		}
	}
}

func TestNextTimesUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := monday.In(loc)
	cadence := domain.Cadence{Weekdays: []int{2}, Hour: 10, Minute: 0}

	got := NextTimes(cadence, 1, now)

	if len(got) != 1 {
		t.Fatalf("len(NextTimes) = %d, want 1", len(got))
	}
	if got[0].Location() != loc {
		t.Fatalf("часовой пояс = %v, want %v", got[0].Location(), loc)
	}
	if got[0].Hour() != 10 {
		t.Fatalf("локальный час = %d, want 10", got[0].Hour())
	}
}

func TestNormalizeCadence(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Cadence
		want domain.Cadence
	}{
		{
			name: "valid cadence untouched",
			in:   domain.Cadence{Weekdays: []int{1, 4}, Hour: 9, Minute: 15},
			want: domain.Cadence{Weekdays: []int{1, 4}, Hour: 9, Minute: 15},
		},
		{
			name: "out of range days dropped",
			in:   domain.Cadence{Weekdays: []int{0, 1, 8, -2, 7}, Hour: 9, Minute: 0},
			want: domain.Cadence{Weekdays: []int{1, 7}, Hour: 9, Minute: 0},
		},
		{
			name: "duplicates removed",
			in:   domain.Cadence{Weekdays: []int{5, 2, 5, 2}, Hour: 9, Minute: 0},
			want: domain.Cadence{Weekdays: []int{2, 5}, Hour: 9, Minute: 0},
		},
		{
			name: "invalid time replaced with default",
			in:   domain.Cadence{Weekdays: []int{3}, Hour: 99, Minute: -5},
			want: domain.Cadence{Weekdays: []int{3}, Hour: DefaultCadenceHour, Minute: DefaultCadenceMinute},
		},
		{
			name: "empty weekdays allowed",
			in:   domain.Cadence{Hour: 12, Minute: 30},
			want: domain.Cadence{Weekdays: []int{}, Hour: 12, Minute: 30},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCadence(tt.in)
			if got.Hour != tt.want.Hour || got.Minute != tt.want.Minute {
				t.Fatalf("NormalizeCadence время = %d:%d, want %d:%d", got.Hour, got.Minute, tt.want.Hour, tt.want.Minute)
			}
			if len(got.Weekdays) != len(tt.want.Weekdays) {
				t.Fatalf("NormalizeCadence дни = %v, want %v", got.Weekdays, tt.want.Weekdays)
			}
			for i := range got.Weekdays {
				if got.Weekdays[i] != tt.want.Weekdays[i] {
					t.Fatalf("NormalizeCadence дни = %v, want %v", got.Weekdays, tt.want.Weekdays)
				}
			}
		})
	}
}
