package domain

import (
	"errors"
	"time"
)

// PostStatus описывает этап жизненного цикла поста.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusApproved  PostStatus = "approved"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

// ErrInvalidTransition возвращается при недопустимой смене статуса.
var ErrInvalidTransition = errors.New("недопустимый переход статуса")

var statusTransitions = map[PostStatus][]PostStatus{
	PostStatusDraft:    {PostStatusApproved},
	PostStatusApproved: {PostStatusPublished, PostStatusFailed},
}

// Valid сообщает, входит ли значение в набор известных статусов.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusApproved, PostStatusPublished, PostStatusFailed:
		return true
	}
	return false
}

// IsTerminal сообщает, что переходов из статуса не существует.
func (s PostStatus) IsTerminal() bool {
	return s == PostStatusPublished || s == PostStatusFailed
}

// CanTransition проверяет допустимость перехода в указанный статус.
func (s PostStatus) CanTransition(to PostStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition переводит пост в новый статус, отклоняя недопустимые переходы.
// При переходе в published момент публикации фиксируется ровно один раз.
func (p *Post) Transition(to PostStatus, at time.Time) error {
	if !p.Status.CanTransition(to) {
		return ErrInvalidTransition
	}
	p.Status = to
	if to == PostStatusPublished && p.PublishedAt == nil {
		published := at
		p.PublishedAt = &published
	}
	return nil
}

// IsDue сообщает, что одобренный пост пора публиковать.
func (p Post) IsDue(now time.Time) bool {
	return p.Status == PostStatusApproved && p.ScheduledAt != nil && !p.ScheduledAt.After(now)
}
