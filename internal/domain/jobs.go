package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ComposeJob содержит информацию о задаче генерации черновиков бренда.
type ComposeJob struct {
	ID          string    `json:"job_id"`
	BrandID     uuid.UUID `json:"brand_id"`
	Count       int       `json:"count"`
	RequestedAt time.Time `json:"requested_at"`
}

// ComposeQueue описывает очередь задач генерации черновиков.
type ComposeQueue interface {
	Enqueue(ctx context.Context, job ComposeJob) error
	Receive(ctx context.Context) (ComposeJob, ComposeAckFunc, error)
}

// ComposeAckFunc подтверждает успешную обработку или запрашивает повтор доставки задачи.
type ComposeAckFunc func(success bool) error

// ComposeJobStatusRepo отвечает за отслеживание статуса обработки задач генерации.
type ComposeJobStatusRepo interface {
	// EnsureComposeJob регистрирует попытку обработки и возвращает признак
	// завершённости задачи и номер текущей попытки.
	EnsureComposeJob(jobID string) (done bool, attempt int, err error)
	// MarkComposeJobDone помечает задачу как окончательно выполненную.
	MarkComposeJobDone(jobID string) error
}
