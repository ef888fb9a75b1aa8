// store.go — агрегат репозиториев с транзакционной границей.
// Сервисный слой работает со Store, а не с пулом напрямую: в тестах
// Store подменяется фейком, в продакшене построен поверх pgxpool.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store объединяет репозитории модуля и умеет выполнять их операции
// в одной транзакции через InTx.
type Store interface {
	Teams() TeamRepository
	Careers() CareerRepository
	Profiles() ProfileRepository
	CareerAssignments() CareerAssignmentRepository
	CourseAssignments() CourseAssignmentRepository

	// InTx выполняет fn над транзакционным Store: все операции репозиториев
	// внутри fn идут в одной транзакции. Вложенный вызов InTx продолжает
	// текущую транзакцию, не открывая новую.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// pgStore — реализация Store поверх pgx.
// db — либо *pgxpool.Pool, либо pgx.Tx (транзакционный вариант).
type pgStore struct {
	db     DBTX
	runner *TxRunner // nil внутри транзакции
}

// NewStore создаёт Store поверх пула соединений.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{db: pool, runner: NewTxRunner(pool)}
}

func (s *pgStore) Teams() TeamRepository                         { return NewTeamRepository(s.db) }
func (s *pgStore) Careers() CareerRepository                     { return NewCareerRepository(s.db) }
func (s *pgStore) Profiles() ProfileRepository                   { return NewProfileRepository(s.db) }
func (s *pgStore) CareerAssignments() CareerAssignmentRepository { return NewCareerAssignmentRepository(s.db) }
func (s *pgStore) CourseAssignments() CourseAssignmentRepository { return NewCourseAssignmentRepository(s.db) }

// InTx открывает транзакцию и передаёт fn транзакционный Store.
func (s *pgStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.runner == nil {
		// Уже внутри транзакции — продолжаем её.
		return fn(s)
	}
	return s.runner.RunInTx(ctx, func(tx pgx.Tx) error {
		return fn(&pgStore{db: tx})
	})
}
