package session

import (
	"context"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// ListLimit - максимум сессий в выдаче списка возобновления.
const ListLimit = 5

// Repository определяет операции над сохранёнными сессиями.
type Repository interface {
	// Save сохраняет сессию. На пару (ученик, вид) хранится одна
	// запись: повторное сохранение перезаписывает нагрузку и время.
	Save(ctx context.Context, s *Session) error

	// Load возвращает сессию ученика заданного вида.
	// Возвращает ErrNotFound, если сессии нет.
	Load(ctx context.Context, learnerID learner.ID, kind Kind) (*Session, error)

	// Delete удаляет сессию. Удаление отсутствующей сессии - не ошибка.
	Delete(ctx context.Context, learnerID learner.ID, kind Kind) error

	// DeleteAll удаляет все сессии ученика, возвращает число удалённых.
	DeleteAll(ctx context.Context, learnerID learner.ID) (int, error)

	// List возвращает до ListLimit сессий ученика, свежие первыми.
	List(ctx context.Context, learnerID learner.ID) ([]*Session, error)
}
