package publisher

import (
	"github.com/rs/zerolog"

	"smm-planner/internal/domain"
)

// DryRun не публикует ничего наружу, только пишет в лог. Используется
// в разработке и как издатель по умолчанию для ненастроенных платформ.
type DryRun struct {
	log zerolog.Logger
}

var _ domain.Publisher = (*DryRun)(nil)

// NewDryRun создаёт издателя-заглушку.
func NewDryRun(log zerolog.Logger) *DryRun {
	return &DryRun{log: log}
}

// Publish помечает публикацию успешной без отправки.
func (d *DryRun) Publish(post domain.Post, platform string) (domain.PublishResult, error) {
	d.log.Info().
		Str("post_id", post.ID.String()).
		Str("platform", platform).
		Int("text_len", len([]rune(post.Text))).
		Msg("публикация пропущена (dry-run)")
	return domain.PublishResult{OK: true}, nil
}
