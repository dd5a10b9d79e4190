package achievement

import (
	"context"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над наградами.
type Repository interface {
	// Award пытается выдать награду по правилу. Вставка защищена
	// уникальным ограничением (learner_id, rule_id): при конфликте
	// возвращает (nil, nil) - награда уже была выдана ранее, это не
	// ошибка. Бонус XP здесь НЕ начисляется - этим занимается
	// оцениватель через "тихое" начисление.
	Award(ctx context.Context, learnerID learner.ID, rule Rule) (*Awarded, error)

	// ListAwarded возвращает награды ученика, новые первыми.
	ListAwarded(ctx context.Context, learnerID learner.ID) ([]Awarded, error)

	// IsAwarded проверяет, выдана ли награда по правилу.
	IsAwarded(ctx context.Context, learnerID learner.ID, ruleID string) (bool, error)
}
