package database

import (
	"context"
	"fmt"

	"qadamsafe/internal/interfaces"

	"github.com/jackc/pgx/v5"
)

// WithTx выполняет fn в транзакции: rollback при ошибке или панике, иначе commit.
func WithTx(ctx context.Context, db interfaces.TxStarter, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(context.Background())
			panic(r)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}
