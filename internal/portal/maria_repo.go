package portal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/annel0/mmo-portals/internal/vec"
	"github.com/annel0/mmo-portals/internal/world"
	"github.com/annel0/mmo-portals/internal/world/block"
)

// MariaRepo реализует Repo для базы данных MariaDB/MySQL.
// Использует таблицу portals для хранения определений.
type MariaRepo struct {
	db *sql.DB
}

// NewMariaRepo создает новый репозиторий порталов для MariaDB.
// Автоматически создает таблицу, если она не существует.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaRepo(dsn string) (*MariaRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaRepo{db: db}
	if err := repo.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	return repo, nil
}

// createTable создает таблицу portals, если она не существует.
func (r *MariaRepo) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS portals (
			name           VARCHAR(64)  PRIMARY KEY,
			world          VARCHAR(64)  NOT NULL,
			min_x          INT NOT NULL, min_y INT NOT NULL, min_z INT NOT NULL,
			max_x          INT NOT NULL, max_y INT NOT NULL, max_z INT NOT NULL,
			frame_material SMALLINT UNSIGNED NOT NULL DEFAULT 5,
			price          DOUBLE       NOT NULL DEFAULT 0,
			currency       VARCHAR(32)  NOT NULL DEFAULT '',
			dest_name      VARCHAR(64)  NOT NULL DEFAULT '',
			dest_world     VARCHAR(64)  NOT NULL DEFAULT '',
			dest_x         INT NOT NULL DEFAULT 0,
			dest_y         INT NOT NULL DEFAULT 0,
			dest_z         INT NOT NULL DEFAULT 0,
			dest_safe      BOOLEAN      NOT NULL DEFAULT TRUE,
			updated_at     TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			               ON UPDATE    CURRENT_TIMESTAMP,
			INDEX idx_world (world)
		) ENGINE=InnoDB
	`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка создания таблицы portals: %w", err)
	}
	return nil
}

// LoadAll загружает все определения порталов из базы данных
func (r *MariaRepo) LoadAll(ctx context.Context) ([]Definition, error) {
	query := `
		SELECT name, world, min_x, min_y, min_z, max_x, max_y, max_z,
		       frame_material, price, currency,
		       dest_name, dest_world, dest_x, dest_y, dest_z, dest_safe
		FROM portals
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки порталов: %w", err)
	}
	defer rows.Close()

	var out []Definition
	for rows.Next() {
		var def Definition
		var frame uint16
		var destPos vec.Vec3
		var destWorld string
		err := rows.Scan(
			&def.Name, &def.Region.World,
			&def.Region.Min.X, &def.Region.Min.Y, &def.Region.Min.Z,
			&def.Region.Max.X, &def.Region.Max.Y, &def.Region.Max.Z,
			&frame, &def.Price, &def.Currency,
			&def.Destination.Name, &destWorld,
			&destPos.X, &destPos.Y, &destPos.Z, &def.Destination.Safe,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения портала: %w", err)
		}
		def.FrameMaterial = block.MaterialID(frame)
		def.Destination.Loc = world.Location{World: destWorld, Pos: destPos}
		out = append(out, def)
	}

	return out, rows.Err()
}

// Save сохраняет определение портала в базе данных.
// Использует INSERT ... ON DUPLICATE KEY UPDATE для обновления существующих записей.
func (r *MariaRepo) Save(ctx context.Context, def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("недействительное имя портала")
	}

	query := `
		INSERT INTO portals (name, world, min_x, min_y, min_z, max_x, max_y, max_z,
		                     frame_material, price, currency,
		                     dest_name, dest_world, dest_x, dest_y, dest_z, dest_safe)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			world = VALUES(world),
			min_x = VALUES(min_x), min_y = VALUES(min_y), min_z = VALUES(min_z),
			max_x = VALUES(max_x), max_y = VALUES(max_y), max_z = VALUES(max_z),
			frame_material = VALUES(frame_material),
			price = VALUES(price), currency = VALUES(currency),
			dest_name = VALUES(dest_name), dest_world = VALUES(dest_world),
			dest_x = VALUES(dest_x), dest_y = VALUES(dest_y), dest_z = VALUES(dest_z),
			dest_safe = VALUES(dest_safe),
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query,
		def.Name, def.Region.World,
		def.Region.Min.X, def.Region.Min.Y, def.Region.Min.Z,
		def.Region.Max.X, def.Region.Max.Y, def.Region.Max.Z,
		uint16(def.FrameMaterial), def.Price, def.Currency,
		def.Destination.Name, def.Destination.Loc.World,
		def.Destination.Loc.Pos.X, def.Destination.Loc.Pos.Y, def.Destination.Loc.Pos.Z,
		def.Destination.Safe,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения портала '%s': %w", def.Name, err)
	}
	return nil
}

// Delete удаляет определение портала из базы данных
func (r *MariaRepo) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM portals WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("ошибка удаления портала '%s': %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("портал '%s' не найден", name)
	}
	return nil
}

// Close закрывает соединение с базой данных
func (r *MariaRepo) Close() error {
	return r.db.Close()
}
