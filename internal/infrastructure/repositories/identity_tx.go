package repositories

import (
	"context"

	"github.com/you/tradeauth/domain"
	"gorm.io/gorm"
)

// TxRunner implements domain.IdentityTxRunner with a GORM transaction
type TxRunner struct {
	db *gorm.DB
}

// NewTxRunner creates a transaction runner over the identity tables
func NewTxRunner(db *gorm.DB) *TxRunner {
	return &TxRunner{db: db}
}

var _ domain.IdentityTxRunner = (*TxRunner)(nil)

// InTx implements domain.IdentityTxRunner. The stores handed to fn are in
// resolution order and write through the transaction.
func (r *TxRunner) InTx(ctx context.Context, fn func(stores []domain.IdentityStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewIdentityStores(tx))
	})
}
