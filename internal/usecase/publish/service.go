package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"smm-planner/internal/domain"
	"smm-planner/internal/infra/metrics"
)

// ErrPlatformRejected возвращается, когда платформа ответила без ошибки,
// но отклонила публикацию.
var ErrPlatformRejected = errors.New("платформа отклонила публикацию")

const defaultSweepBatch = 100

// PlatformError описывает сбой публикации на конкретной платформе.
type PlatformError struct {
	Platform string
	Err      error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("платформа %s: %v", e.Platform, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// Service управляет жизненным циклом постов: одобрением, ручной публикацией
// и периодическим проходом по назревшим постам.
type Service struct {
	posts     domain.PostRepo
	publisher domain.Publisher
	limiter   *rate.Limiter
	log       zerolog.Logger
	batch     int
	now       func() time.Time
}

// NewService создаёт сервис публикаций. limiter может быть nil —
// тогда попытки публикации не ограничиваются по частоте.
func NewService(posts domain.PostRepo, publisher domain.Publisher, limiter *rate.Limiter, log zerolog.Logger, batch int) *Service {
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &Service{posts: posts, publisher: publisher, limiter: limiter, log: log, batch: batch, now: time.Now}
}

// Approve переводит черновик в статус approved.
// Повторное одобрение уже одобренного поста не считается ошибкой.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (domain.Post, error) {
	post, err := s.posts.GetPost(id)
	if err != nil {
		return domain.Post{}, fmt.Errorf("получение поста: %w", err)
	}
	if post.Status == domain.PostStatusApproved {
		return post, nil
	}
	if !post.Status.CanTransition(domain.PostStatusApproved) {
		return domain.Post{}, fmt.Errorf("одобрение из статуса %s: %w", post.Status, domain.ErrInvalidTransition)
	}

	ok, err := s.posts.ApprovePost(id)
	if err != nil {
		return domain.Post{}, fmt.Errorf("одобрение поста: %w", err)
	}
	if !ok {
		// гонка с другим обновлением: перечитываем актуальное состояние
		current, err := s.posts.GetPost(id)
		if err != nil {
			return domain.Post{}, fmt.Errorf("получение поста: %w", err)
		}
		if current.Status != domain.PostStatusApproved {
			return domain.Post{}, fmt.Errorf("одобрение из статуса %s: %w", current.Status, domain.ErrInvalidTransition)
		}
		return current, nil
	}

	post.Status = domain.PostStatusApproved
	return post, nil
}

// PublishNow немедленно публикует одобренный пост на всех его платформах.
// Детали сбоя конкретной платформы доступны вызывающему через PlatformError.
func (s *Service) PublishNow(ctx context.Context, id uuid.UUID) (domain.Post, error) {
	post, err := s.posts.GetPost(id)
	if err != nil {
		return domain.Post{}, fmt.Errorf("получение поста: %w", err)
	}
	if post.Status == domain.PostStatusPublished {
		return post, nil
	}
	if !post.Status.CanTransition(domain.PostStatusPublished) {
		return domain.Post{}, fmt.Errorf("публикация из статуса %s: %w", post.Status, domain.ErrInvalidTransition)
	}
	return s.publishPost(ctx, post)
}

// Tick выполняет один проход публикации: выбирает одобренные посты с
// наступившим временем и публикует каждый. Сбой одного поста не прерывает
// обработку остальных.
func (s *Service) Tick(ctx context.Context) error {
	started := time.Now()
	due, err := s.posts.ListDuePosts(s.now(), s.batch)
	if err != nil {
		return fmt.Errorf("выборка назревших постов: %w", err)
	}
	metrics.PublishSweepDue.Set(float64(len(due)))

	for _, post := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.publishPost(ctx, post); err != nil {
			s.log.Error().Err(err).
				Str("post_id", post.ID.String()).
				Str("brand_id", post.BrandID.String()).
				Msg("публикация поста не удалась")
		}
	}

	metrics.PublishSweepSeconds.Observe(time.Since(started).Seconds())
	return nil
}

// publishPost пытается опубликовать пост на всех платформах и фиксирует
// итоговый статус. Переход выполняется условным обновлением, поэтому гонка
// ручной публикации с периодическим проходом безопасна.
func (s *Service) publishPost(ctx context.Context, post domain.Post) (domain.Post, error) {
	platforms := post.Platforms
	if len(platforms) == 0 {
		platforms = domain.DefaultPlatforms
	}

	for _, platform := range platforms {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return post, fmt.Errorf("ожидание лимита публикаций: %w", err)
			}
		}
		result, err := s.publisher.Publish(post, platform)
		if err == nil && !result.OK {
			err = ErrPlatformRejected
		}
		metrics.ObservePublishAttempt(platform, err)
		if err != nil {
			s.markFailed(post.ID)
			return post, &PlatformError{Platform: platform, Err: err}
		}
	}

	publishedAt := s.now()
	ok, err := s.posts.MarkPostPublished(post.ID, publishedAt)
	if err != nil {
		return post, fmt.Errorf("фиксация публикации: %w", err)
	}
	if !ok {
		// конкурирующий переход уже завершился: возвращаем текущее состояние
		return s.posts.GetPost(post.ID)
	}

	post.Status = domain.PostStatusPublished
	post.PublishedAt = &publishedAt
	return post, nil
}

func (s *Service) markFailed(id uuid.UUID) {
	ok, err := s.posts.MarkPostFailed(id)
	if err != nil {
		s.log.Error().Err(err).Str("post_id", id.String()).Msg("не удалось пометить пост failed")
		return
	}
	if !ok {
		s.log.Warn().Str("post_id", id.String()).Msg("пост уже покинул статус approved")
	}
}
