package economy

import (
	"fmt"
	"sync"

	"github.com/annel0/mmo-portals/internal/logging"
	"github.com/annel0/mmo-portals/internal/player"
	"github.com/annel0/mmo-portals/internal/portal"
)

// UseDecision представляет результат проверки доступа к порталу
type UseDecision int

const (
	// CannotUse — вход запрещён (нет права или недостаточно средств)
	CannotUse UseDecision = iota
	// FreeUse — вход разрешён без оплаты
	FreeUse
	// PaidUse — вход разрешён после оплаты
	PaidUse
)

// String возвращает строковое представление решения
func (d UseDecision) String() string {
	switch d {
	case CannotUse:
		return "cannot_use"
	case FreeUse:
		return "free_use"
	case PaidUse:
		return "paid_use"
	default:
		return "unknown"
	}
}

// Ledger определяет интерфейс внешней экономики.
// Балансы принадлежат внешней системе; здесь принимается только решение.
type Ledger interface {
	// IsWealthyEnough проверяет, хватает ли игроку средств
	IsWealthyEnough(p player.Player, price float64, currency string) bool
	// FormatPrice форматирует цену в указанной валюте
	FormatPrice(price float64, currency string) string
	// Pay списывает средства со счёта игрока
	Pay(p player.Player, price float64, currency string) error
}

// Gate принимает решение о доступе игрока к порталу и проводит оплату.
// Решение всегда вычисляется заново: балансы и права могут меняться
// между попытками, кэшировать его нельзя.
type Gate struct {
	ledger        Ledger
	enforceAccess bool
}

// NewGate создаёт экономический шлюз
func NewGate(ledger Ledger, enforceAccess bool) *Gate {
	return &Gate{ledger: ledger, enforceAccess: enforceAccess}
}

// CheckAccess вычисляет решение о доступе игрока к порталу.
// Порядок проверок фиксирован: контроль доступа, затем бесплатность
// (нулевая цена или освобождение), затем платёжеспособность.
func (g *Gate) CheckAccess(def *portal.Definition, p player.Player) UseDecision {
	if g.enforceAccess && !p.HasPermission(def.Permission()) {
		logging.Debug("Игроку '%s' ОТКАЗАНО в использовании портала '%s'",
			p.DisplayName(), def.Name)
		return CannotUse
	}

	if def.Price == 0 || p.HasPermission(def.ExemptPermission()) {
		return FreeUse
	}

	if def.Price > 0 && !g.ledger.IsWealthyEnough(p, def.Price, def.Currency) {
		p.SendMessage(fmt.Sprintf("Вам нужно %s, чтобы войти в портал '%s'.",
			g.ledger.FormatPrice(def.Price, def.Currency), def.Name))
		return CannotUse
	}

	return PaidUse
}

// PayEntryFee безусловно списывает цену входа в портал.
// Вызывать только после получения PaidUse от CheckAccess.
func (g *Gate) PayEntryFee(def *portal.Definition, p player.Player) error {
	if err := g.ledger.Pay(p, def.Price, def.Currency); err != nil {
		return fmt.Errorf("оплата входа в портал '%s': %w", def.Name, err)
	}
	logging.Debug("Игрок '%s' оплатил вход в портал '%s' (%s)",
		p.DisplayName(), def.Name, g.ledger.FormatPrice(def.Price, def.Currency))
	return nil
}

// MemoryLedger реализует Ledger в памяти.
// Используется встроенным сервером и тестами.
type MemoryLedger struct {
	mu       sync.RWMutex
	balances map[string]map[string]float64 // playerID -> currency -> баланс
}

// NewMemoryLedger создаёт пустую экономику в памяти
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[string]map[string]float64),
	}
}

// Deposit зачисляет средства на счёт игрока
func (l *MemoryLedger) Deposit(playerID, currency string, amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[playerID] == nil {
		l.balances[playerID] = make(map[string]float64)
	}
	l.balances[playerID][currency] += amount
}

// Balance возвращает текущий баланс игрока в валюте
func (l *MemoryLedger) Balance(playerID, currency string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[playerID][currency]
}

// IsWealthyEnough проверяет, хватает ли игроку средств
func (l *MemoryLedger) IsWealthyEnough(p player.Player, price float64, currency string) bool {
	return l.Balance(p.ID(), currency) >= price
}

// FormatPrice форматирует цену в указанной валюте
func (l *MemoryLedger) FormatPrice(price float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.2f %s", price, currency)
}

// Pay списывает средства со счёта игрока.
// Баланс может уйти в минус: решение о платёжеспособности
// принимает Gate до вызова Pay.
func (l *MemoryLedger) Pay(p player.Player, price float64, currency string) error {
	if price < 0 {
		return fmt.Errorf("отрицательная цена: %f", price)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[p.ID()] == nil {
		l.balances[p.ID()] = make(map[string]float64)
	}
	l.balances[p.ID()][currency] -= price
	return nil
}
