package portal

import "context"

// Repo определяет интерфейс постоянного хранилища определений порталов.
// Реализации: память (fallback/CI), MariaDB, MongoDB.
type Repo interface {
	// LoadAll загружает все определения порталов.
	LoadAll(ctx context.Context) ([]Definition, error)

	// Save сохраняет определение портала (insert или update по имени).
	Save(ctx context.Context, def Definition) error

	// Delete удаляет определение портала по имени.
	Delete(ctx context.Context, name string) error
}
