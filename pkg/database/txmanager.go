package database

import (
	"context"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
)

// TxManager runs fn inside a transaction carried by ctx. Repositories pick
// it up through PostgresDB.Conn.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type TransactionManager struct {
	manager *manager.Manager
}

func NewTransactionManager(db *PostgresDB) (*TransactionManager, error) {
	m, err := manager.New(trmpgx.NewDefaultFactory(db.Pool))
	if err != nil {
		return nil, err
	}
	return &TransactionManager{manager: m}, nil
}

func (tm *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.manager.Do(ctx, fn)
}
