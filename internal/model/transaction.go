package model

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeReferralReward TransactionType = "referral_reward"
	TransactionTypeSpinReward     TransactionType = "spin_reward"
	TransactionTypeQuizReward     TransactionType = "quiz_reward"
	TransactionTypeReadingReward  TransactionType = "reading_reward"
	TransactionTypeTaskReward     TransactionType = "task_reward"
	TransactionTypeWalletBonus    TransactionType = "wallet_bonus"
)

// TokenTransaction is one row of the append-only token ledger. Every balance
// mutation writes one, with the before/after snapshot taken under lock.
type TokenTransaction struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"userId" db:"user_id"`
	Amount        int64           `json:"amount" db:"amount"`
	Type          TransactionType `json:"type" db:"type"`
	Description   *string         `json:"description,omitempty" db:"description"`
	ReferenceID   *string         `json:"referenceId,omitempty" db:"reference_id"`
	BalanceBefore int64           `json:"balanceBefore" db:"balance_before"`
	BalanceAfter  int64           `json:"balanceAfter" db:"balance_after"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}
