package session

import (
	"sync"

	"github.com/annel0/mmo-portals/internal/logging"
	"github.com/annel0/mmo-portals/internal/player"
)

// Store владеет всеми сессиями процесса.
// Создаётся при старте и передаётся зависимым компонентам явно —
// глобального доступа к сессиям нет.
//
// Карта защищена мьютексом, потому что продолжения телепортации могут
// искать сессию с другого потока; содержимое конкретной сессии при этом
// мутируется только на основном игровом потоке.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session // playerID -> сессия
}

// NewStore создаёт пустое хранилище сессий
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate возвращает сессию игрока, создавая её при первом обращении
func (st *Store) GetOrCreate(p player.Player) *Session {
	st.mu.RLock()
	if s, exists := st.sessions[p.ID()]; exists {
		st.mu.RUnlock()
		return s
	}
	st.mu.RUnlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	// Проверяем ещё раз на случай гонки между RUnlock и Lock
	if s, exists := st.sessions[p.ID()]; exists {
		return s
	}

	s := NewSession(p)
	st.sessions[p.ID()] = s
	logging.Debug("Создана портальная сессия игрока '%s'", p.DisplayName())
	return s
}

// Get возвращает сессию по ID игрока без создания.
// Отсутствие сессии — нормальная ситуация: игрок мог отключиться,
// пока его телепортация была в полёте.
func (st *Store) Get(playerID string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, exists := st.sessions[playerID]
	return s, exists
}

// Destroy удаляет сессию игрока (вызывается при отключении)
func (st *Store) Destroy(playerID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.sessions[playerID]; exists {
		delete(st.sessions, playerID)
		logging.Debug("Портальная сессия игрока %s уничтожена", playerID)
	}
}

// Count возвращает количество активных сессий
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
