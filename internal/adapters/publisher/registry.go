package publisher

import (
	"fmt"
	"strings"

	"smm-planner/internal/domain"
)

// Registry маршрутизирует публикацию по имени платформы к нужному издателю.
type Registry struct {
	byPlatform map[string]domain.Publisher
	fallback   domain.Publisher
}

var _ domain.Publisher = (*Registry)(nil)

// NewRegistry создаёт реестр. fallback используется для платформ без
// собственного издателя; может быть nil, тогда такие платформы дают ошибку.
func NewRegistry(fallback domain.Publisher) *Registry {
	return &Registry{
		byPlatform: make(map[string]domain.Publisher),
		fallback:   fallback,
	}
}

// Register привязывает издателя к платформе. Имя нечувствительно к регистру.
func (r *Registry) Register(platform string, pub domain.Publisher) {
	r.byPlatform[strings.ToLower(strings.TrimSpace(platform))] = pub
}

// Publish направляет пост издателю платформы либо во fallback.
func (r *Registry) Publish(post domain.Post, platform string) (domain.PublishResult, error) {
	if pub, ok := r.byPlatform[strings.ToLower(platform)]; ok {
		return pub.Publish(post, platform)
	}
	if r.fallback != nil {
		return r.fallback.Publish(post, platform)
	}
	return domain.PublishResult{}, fmt.Errorf("нет издателя для платформы %q", platform)
}
