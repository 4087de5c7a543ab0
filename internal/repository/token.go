package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/model"
)

// CreditTokens adds amount to the user's balance and writes a ledger row,
// both inside one transaction with the row locked. Returns the new balance.
func (r *Repository) CreditTokens(ctx context.Context, userID uuid.UUID, amount int64, txType model.TransactionType, description *string, referenceID *string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	balanceAfter, err := creditTokensTx(ctx, tx, userID, amount, txType, description, referenceID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balanceAfter, nil
}

func creditTokensTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType model.TransactionType, description *string, referenceID *string) (int64, error) {
	var balanceBefore int64
	err := tx.GetContext(ctx, &balanceBefore,
		"SELECT token_balance FROM users WHERE id = $1 FOR UPDATE", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	balanceAfter := balanceBefore + amount
	if amount < 0 && balanceAfter < 0 {
		return balanceBefore, fmt.Errorf("insufficient balance: have %d, need %d", balanceBefore, -amount)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE users SET token_balance = $1, updated_at = NOW() WHERE id = $2", balanceAfter, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO token_transactions (user_id, amount, type, description, reference_id, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, amount, txType, description, referenceID, balanceBefore, balanceAfter)
	if err != nil {
		return 0, fmt.Errorf("failed to create transaction record: %w", err)
	}

	return balanceAfter, nil
}

// GetTokenTransactions returns ledger history for a user, newest first.
func (r *Repository) GetTokenTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.TokenTransaction, error) {
	var transactions []model.TokenTransaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM token_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return transactions, err
}
