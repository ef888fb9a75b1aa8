// broker.go — рассылка уведомлений SSE-клиентам.
// Каждый подписчик получает собственный буферизированный канал;
// медленный подписчик не блокирует остальных.
package notify

import (
	"log/slog"
	"sync"
)

// subscriberBuffer — ёмкость канала одного подписчика.
const subscriberBuffer = 16

// Broker раздаёт уведомления всем подключённым SSE-клиентам.
// Реализует Sink, поэтому может стоять в одной цепочке с LogSink.
type Broker struct {
	mu      sync.RWMutex
	clients map[chan Notification]struct{}
	logger  *slog.Logger
}

// NewBroker создаёт брокера уведомлений.
func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{
		clients: make(map[chan Notification]struct{}),
		logger:  logger.With(slog.String("component", "notify.broker")),
	}
}

// Subscribe регистрирует нового подписчика.
// Возвращает канал уведомлений и функцию отписки; отписка закрывает канал.
func (b *Broker) Subscribe() (<-chan Notification, func()) {
	ch := make(chan Notification, subscriberBuffer)

	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	b.logger.Debug("SSE подписчик подключён")

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.clients[ch]; ok {
			delete(b.clients, ch)
			close(ch)
			b.logger.Debug("SSE подписчик отключён")
		}
	}
	return ch, cancel
}

// Notify рассылает уведомление всем подписчикам.
// Если буфер подписчика переполнен — уведомление для него отбрасывается.
func (b *Broker) Notify(n Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- n:
		default:
			b.logger.Warn("Буфер SSE подписчика переполнен, уведомление отброшено")
		}
	}
}

// Subscribers возвращает количество активных подписчиков.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
