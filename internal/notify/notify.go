// Пакет notify — уведомления о результатах операций с командами.
// Уведомления пишутся в лог и рассылаются подписчикам SSE-канала.
package notify

import (
	"context"
	"log/slog"
)

// Variant — вид уведомления, определяет оформление на клиенте.
type Variant string

const (
	// VariantDefault — обычное уведомление (успех операции).
	VariantDefault Variant = "default"
	// VariantDestructive — уведомление об ошибке или деструктивном действии.
	VariantDestructive Variant = "destructive"
)

// Notification — уведомление пользователю.
type Notification struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

// Sink — приёмник уведомлений.
type Sink interface {
	Notify(n Notification)
}

// LogSink пишет уведомления в структурированный лог.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink создаёт приёмник уведомлений на базе slog.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With(slog.String("component", "notify"))}
}

// Notify пишет уведомление в лог.
func (s *LogSink) Notify(n Notification) {
	level := slog.LevelInfo
	if n.Variant == VariantDestructive {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, n.Title,
		slog.String("description", n.Description),
	)
}

// MultiSink рассылает уведомление нескольким приёмникам.
type MultiSink []Sink

// Notify передаёт уведомление каждому приёмнику по порядку.
func (m MultiSink) Notify(n Notification) {
	for _, s := range m {
		s.Notify(n)
	}
}
