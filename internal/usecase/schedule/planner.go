package schedule

import (
	"sort"
	"time"

	"smm-planner/internal/domain"
)

// planningWindowDays — горизонт планирования в календарных днях.
const planningWindowDays = 30

// Время публикации по умолчанию, если в расписании указано некорректное.
const (
	DefaultCadenceHour   = 10
	DefaultCadenceMinute = 0
)

// NextTimes возвращает ближайшие моменты публикации по недельному расписанию.
// Просматривается окно в 30 календарных дней начиная с сегодняшнего; в
// результат попадают моменты строго позже now, не более count штук (сегодняшний
// слот с уже прошедшим временем пропускается, а не переносится). Пустой набор
// дней недели даёт пустой результат. Функция не имеет побочных эффектов и
// детерминирована относительно переданного now; часовой пояс берётся из now.
func NextTimes(cadence domain.Cadence, count int, now time.Time) []time.Time {
	if count <= 0 || len(cadence.Weekdays) == 0 {
		return nil
	}
	weekdays := make(map[int]struct{}, len(cadence.Weekdays))
	for _, day := range cadence.Weekdays {
		weekdays[day] = struct{}{}
	}
	times := make([]time.Time, 0, count)
	for offset := 0; offset < planningWindowDays && len(times) < count; offset++ {
		day := now.AddDate(0, 0, offset)
		if _, ok := weekdays[isoWeekday(day)]; !ok {
			continue
		}
		slot := time.Date(day.Year(), day.Month(), day.Day(), cadence.Hour, cadence.Minute, 0, 0, now.Location())
		if !slot.After(now) {
			continue
		}
		times = append(times, slot)
	}
	return times
}

// NormalizeCadence приводит расписание к допустимому виду: дни вне 1..7 и
// дубли отбрасываются, час и минута вне диапазона заменяются значениями по
// умолчанию. Пустой набор дней допустим и означает отсутствие расписания.
func NormalizeCadence(c domain.Cadence) domain.Cadence {
	seen := make(map[int]struct{}, len(c.Weekdays))
	days := make([]int, 0, len(c.Weekdays))
	for _, day := range c.Weekdays {
		if day < 1 || day > 7 {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Ints(days)
	c.Weekdays = days
	if c.Hour < 0 || c.Hour > 23 {
		c.Hour = DefaultCadenceHour
	}
	if c.Minute < 0 || c.Minute > 59 {
		c.Minute = DefaultCadenceMinute
	}
	return c
}

// isoWeekday возвращает номер дня недели по ISO: понедельник=1 … воскресенье=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
