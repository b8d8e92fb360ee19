package history

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository — потокобезопасное хранилище истории в памяти процесса
// с автоматической очисткой неактивных сессий.
// Для каждой сессии поддерживается кольцевой буфер фиксированной длины.
// Сессии, которые не обновлялись дольше ttl, удаляются фоновым процессом.
//
// Пример использования:
//
//	repo := history.NewMemoryRepository(10, time.Hour)
//	go repo.Serve(ctx) // запуск фоновой очистки
//	repo.Append(ctx, "session-123", entry)
type MemoryRepository struct {
	length int           // максимальное количество записей на одну сессию
	ttl    time.Duration // время жизни неактивной сессии; 0 — без ограничения

	sessions map[string]*ring[Entry] // история по идентификатору сессии
	updates  map[string]time.Time    // время последнего обновления каждой сессии
	mu       sync.RWMutex            // защищает обе карты и буферы

	cleanInterval time.Duration // период фоновой очистки
	done          chan struct{}
	stopOnce      sync.Once
}

// NewMemoryRepository создаёт хранилище.
// Параметры:
//   - length: максимальное количество записей на сессию (буфер переписывается по кругу).
//   - ttl: время, после которого неактивная сессия удаляется фоновым процессом.
//
// Для начала автоматической очистки необходимо вызвать Serve в отдельной горутине.
func NewMemoryRepository(length int, ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{
		length:        length,
		ttl:           ttl,
		sessions:      make(map[string]*ring[Entry]),
		updates:       make(map[string]time.Time),
		cleanInterval: time.Minute,
		done:          make(chan struct{}),
	}
}

// Append добавляет запись e в историю сессии session.
// Если для сессии ещё нет буфера, он создаётся автоматически.
func (m *MemoryRepository) Append(_ context.Context, session string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buffer, found := m.sessions[session]
	if !found {
		buffer = newRing[Entry](m.length)
		m.sessions[session] = buffer
	}
	buffer.push(e)
	m.updates[session] = time.Now()
	return nil
}

// Last возвращает самую новую запись сессии или ErrNotFound.
func (m *MemoryRepository) Last(_ context.Context, session string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	buffer, found := m.sessions[session]
	if !found {
		return Entry{}, ErrNotFound
	}
	e, ok := buffer.last()
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// List возвращает копию истории сессии от старых записей к новым.
func (m *MemoryRepository) List(_ context.Context, session string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	buffer, found := m.sessions[session]
	if !found || buffer.length() == 0 {
		return nil, ErrNotFound
	}
	return buffer.slice(), nil
}

// Serve периодически удаляет сессии, для которых с момента последнего
// обновления прошло больше ttl. Блокирует выполнение до отмены ctx или вызова Stop:
//
//	go repo.Serve(ctx)
func (m *MemoryRepository) Serve(ctx context.Context) {
	if m.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(m.cleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case now := <-ticker.C:
			m.evict(now)
		}
	}
}

// evict удаляет сессии, устаревшие к моменту now.
func (m *MemoryRepository) evict(now time.Time) int {
	var outdated []string

	// Собираем список устаревших сессий под read-блокировкой
	m.mu.RLock()
	for id, ts := range m.updates {
		if now.Sub(ts) > m.ttl {
			outdated = append(outdated, id)
		}
	}
	m.mu.RUnlock()

	if len(outdated) == 0 {
		return 0
	}

	// Удаляем под write-блокировкой, повторно проверяя время: сессия могла обновиться
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for _, id := range outdated {
		if ts, ok := m.updates[id]; ok && now.Sub(ts) > m.ttl {
			delete(m.sessions, id)
			delete(m.updates, id)
			removed++
		}
	}
	return removed
}

// Stop останавливает фоновую очистку. Безопасен для повторного вызова
// и для вызова до Serve.
func (m *MemoryRepository) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

// Close реализует Repository и эквивалентен Stop.
func (m *MemoryRepository) Close() error {
	m.Stop()
	return nil
}
