// Пакет session — серверные сессии редактирования канваса.
// Каждая открытая сессия держит модель канваса в памяти процесса;
// клиент ссылается на неё по UUID. Истёкшие сессии убирает sweeper.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/canvas"
)

// Ошибки хранилища сессий.
var (
	// ErrNotFound — сессия не существует или истекла.
	ErrNotFound = errors.New("сессия канваса не найдена")
	// ErrForbidden — сессия принадлежит другому администратору.
	ErrForbidden = errors.New("сессия канваса принадлежит другому пользователю")
	// ErrSaveInProgress — по сессии уже идёт сохранение.
	ErrSaveInProgress = errors.New("сохранение уже выполняется")
)

// Session — одна сессия редактирования канваса.
// Все обращения к модели идут через Do/BeginSave: интенты по одной
// сессии сериализуются мьютексом.
type Session struct {
	// ID — UUID сессии
	ID string
	// OwnerID — UUID администратора, открывшего сессию
	OwnerID string
	// Model — модель канваса
	Model *canvas.Model
	// Drag — состояние текущего перетаскивания
	Drag canvas.DropController

	mu        sync.Mutex
	saving    bool
	lastTouch time.Time
}

// Do выполняет fn под мьютексом сессии.
// Во время сохранения интенты отклоняются — канвас заморожен.
func (s *Session) Do(fn func(m *canvas.Model, drag *canvas.DropController) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrSaveInProgress
	}
	return fn(s.Model, &s.Drag)
}

// BeginSave помечает сессию сохраняющейся. Повторный вызов до EndSave
// возвращает ErrSaveInProgress — двойное нажатие Save не даёт второго коммита.
func (s *Session) BeginSave() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrSaveInProgress
	}
	s.saving = true
	return nil
}

// EndSave снимает флаг сохранения.
func (s *Session) EndSave() {
	s.mu.Lock()
	s.saving = false
	s.mu.Unlock()
}

// Store — in-memory хранилище сессий канваса.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewStore создаёт хранилище сессий с заданным TTL бездействия.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger.With(slog.String("component", "canvas_sessions")),
		now:      time.Now,
	}
}

// Open регистрирует новую сессию для модели канваса.
func (st *Store) Open(ownerID string, m *canvas.Model) *Session {
	s := &Session{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Model:     m,
		lastTouch: st.now(),
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	st.logger.Debug("Сессия канваса открыта",
		slog.String("session_id", s.ID),
		slog.String("owner_id", ownerID),
		slog.String("mode", string(m.Mode)),
	)
	return s
}

// Get возвращает сессию по id и продлевает её TTL.
// Чужая сессия недоступна: ErrForbidden.
func (st *Store) Get(id, ownerID string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	s.mu.Lock()
	s.lastTouch = st.now()
	s.mu.Unlock()
	return s, nil
}

// Close удаляет сессию (выход из редактора, успешная архивация).
func (st *Store) Close(id string) {
	st.mu.Lock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		st.logger.Debug("Сессия канваса закрыта", slog.String("session_id", id))
	}
}

// Len возвращает число активных сессий.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Run запускает периодическую уборку истёкших сессий до отмены ctx.
func (st *Store) Run(ctx context.Context) {
	interval := st.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	st.logger.Info("Sweeper сессий канваса запущен",
		slog.Duration("ttl", st.ttl),
		slog.Duration("interval", interval),
	)
	for {
		select {
		case <-ctx.Done():
			st.logger.Info("Sweeper сессий канваса остановлен")
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}

// Sweep удаляет сессии, не тронутые дольше TTL.
// Сессия с идущим сохранением не удаляется.
func (st *Store) Sweep() {
	deadline := st.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()
	for id, s := range st.sessions {
		s.mu.Lock()
		expired := !s.saving && s.lastTouch.Before(deadline)
		s.mu.Unlock()
		if expired {
			delete(st.sessions, id)
			st.logger.Info("Сессия канваса истекла",
				slog.String("session_id", id),
				slog.String("owner_id", s.OwnerID),
			)
		}
	}
}
