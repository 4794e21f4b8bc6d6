package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MariaCheckpointRepo реализует CheckpointRepo для MariaDB/MySQL.
// Использует таблицу actor_checkpoints.
type MariaCheckpointRepo struct {
	db *sql.DB
}

const upsertCheckpoint = `
	INSERT INTO actor_checkpoints (slot, level, x, y, saved_at)
	VALUES (?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		level = VALUES(level),
		x = VALUES(x),
		y = VALUES(y),
		saved_at = VALUES(saved_at)
`

// NewMariaCheckpointRepo подключается к базе и создаёт таблицу, если её нет.
//
// Параметры:
//
//	dsn - строка подключения (user:pass@tcp(host:port)/dbname?parseTime=true)
func NewMariaCheckpointRepo(ctx context.Context, dsn string) (*MariaCheckpointRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaCheckpointRepo{db: db}
	if err := repo.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}
	return repo, nil
}

func (r *MariaCheckpointRepo) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS actor_checkpoints (
			slot     VARCHAR(64)  PRIMARY KEY,
			level    VARCHAR(128) NOT NULL,
			x        INT          NOT NULL,
			y        INT          NOT NULL,
			saved_at DATETIME(3)  NOT NULL,
			INDEX idx_saved_at (saved_at)
		) ENGINE=InnoDB
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы actor_checkpoints: %w", err)
	}
	return nil
}

// Save использует INSERT ... ON DUPLICATE KEY UPDATE
func (r *MariaCheckpointRepo) Save(ctx context.Context, key string, cp Checkpoint) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, upsertCheckpoint, key, cp.Level, cp.Position.X, cp.Position.Y, cp.SavedAt.UTC())
	if err != nil {
		return fmt.Errorf("ошибка сохранения чекпоинта %q: %w", key, err)
	}
	return nil
}

func (r *MariaCheckpointRepo) Load(ctx context.Context, key string) (Checkpoint, bool, error) {
	if err := validateKey(key); err != nil {
		return Checkpoint{}, false, err
	}
	var (
		cp      Checkpoint
		savedAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT level, x, y, saved_at FROM actor_checkpoints WHERE slot = ?`, key,
	).Scan(&cp.Level, &cp.Position.X, &cp.Position.Y, &savedAt)
	if err == sql.ErrNoRows {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("ошибка загрузки чекпоинта %q: %w", key, err)
	}
	cp.SavedAt = savedAt
	return cp, true, nil
}

func (r *MariaCheckpointRepo) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM actor_checkpoints WHERE slot = ?`, key)
	if err != nil {
		return fmt.Errorf("ошибка удаления чекпоинта %q: %w", key, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("слот %q: %w", key, ErrCheckpointNotFound)
	}
	return nil
}

// BatchSave сохраняет чекпоинты в одной транзакции
func (r *MariaCheckpointRepo) BatchSave(ctx context.Context, checkpoints map[string]Checkpoint) error {
	if len(checkpoints) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertCheckpoint)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	defer stmt.Close()

	for key, cp := range checkpoints {
		if err := validateKey(key); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, key, cp.Level, cp.Position.X, cp.Position.Y, cp.SavedAt.UTC()); err != nil {
			return fmt.Errorf("ошибка сохранения чекпоинта %q в batch: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

func (r *MariaCheckpointRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
