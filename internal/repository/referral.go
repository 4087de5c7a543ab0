package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/model"
)

// BindReferral establishes the one-time forward edge on the joining user.
// The WHERE clause re-checks the write-once guard at write time, so of two
// concurrent binds for the same user exactly one reports true.
func (r *Repository) BindReferral(ctx context.Context, userID, referrerID uuid.UUID) (bool, error) {
	query := `
		UPDATE users SET
			referred_by = $2,
			referral_used = TRUE,
			referral_bound_at = NOW(),
			bot_referral_pending = FALSE,
			updated_at = NOW()
		WHERE id = $1 AND referral_used = FALSE AND referred_by IS NULL`

	res, err := r.db.ExecContext(ctx, query, userID, referrerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// LinkReferred adds the joining user to the referrer's referred set and bumps
// referral_count, in one statement so the count only moves when the link is new.
func (r *Repository) LinkReferred(ctx context.Context, referrerID, referredID uuid.UUID) error {
	query := `
		WITH ins AS (
			INSERT INTO referral_links (referrer_id, referred_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
			RETURNING 1
		)
		UPDATE users SET referral_count = referral_count + 1, updated_at = NOW()
		WHERE id = $1 AND EXISTS (SELECT 1 FROM ins)`

	_, err := r.db.ExecContext(ctx, query, referrerID, referredID)
	return err
}

// FindPendingReferrer resolves a bot-pending referral by reverse lookup: the
// external bot flow records the link before the forward edge is bound.
func (r *Repository) FindPendingReferrer(ctx context.Context, referredID uuid.UUID) (*model.User, error) {
	var user model.User
	query := `
		SELECT u.* FROM users u
		INNER JOIN referral_links l ON l.referrer_id = u.id
		WHERE l.referred_id = $1
		LIMIT 1`
	err := r.db.GetContext(ctx, &user, query, referredID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetReferredUsers(ctx context.Context, referrerID uuid.UUID) ([]model.ReferredUser, error) {
	var users []model.ReferredUser
	query := `
		SELECT u.id, u.telegram_first_name, u.telegram_username, u.telegram_photo_url, l.created_at
		FROM users u
		INNER JOIN referral_links l ON l.referred_id = u.id
		WHERE l.referrer_id = $1
		ORDER BY l.created_at DESC`
	err := r.db.SelectContext(ctx, &users, query, referrerID)
	return users, err
}

func (r *Repository) GetLevelRewards(ctx context.Context, userID uuid.UUID) ([]model.LevelReward, error) {
	var rows []model.LevelReward
	query := `
		SELECT level, total_earned, referral_count, last_reward_at
		FROM referral_level_rewards
		WHERE user_id = $1
		ORDER BY level`
	err := r.db.SelectContext(ctx, &rows, query, userID)
	return rows, err
}

// DistributeReferralRewards runs the whole upline payout for one join event
// in a single transaction: it acquires the one-time reward marker on the
// joining user, then credits every ancestor and upserts its per-level stats.
// Returns false without mutating anything when the marker was already taken.
func (r *Repository) DistributeReferralRewards(ctx context.Context, joiningUserID uuid.UUID, rewardTxID string, credits []model.UplineCredit) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE users SET
			referral_rewarded_at = NOW(),
			referral_reward_tx_id = $2,
			updated_at = NOW()
		WHERE id = $1 AND referral_rewarded_at IS NULL`,
		joiningUserID, rewardTxID)
	if err != nil {
		return false, fmt.Errorf("failed to acquire reward marker: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Rewards for this join were already distributed.
		return false, nil
	}

	for _, c := range credits {
		description := fmt.Sprintf("Level %d referral reward", c.Level)
		if _, err := creditTokensTx(ctx, tx, c.UserID, c.Amount, model.TransactionTypeReferralReward, &description, &rewardTxID); err != nil {
			return false, fmt.Errorf("failed to credit level %d: %w", c.Level, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO referral_level_rewards (user_id, level, total_earned, referral_count, last_reward_at)
			VALUES ($1, $2, $3, 1, NOW())
			ON CONFLICT (user_id, level) DO UPDATE SET
				total_earned = referral_level_rewards.total_earned + EXCLUDED.total_earned,
				referral_count = referral_level_rewards.referral_count + 1,
				last_reward_at = NOW()`,
			c.UserID, c.Level, c.Amount)
		if err != nil {
			return false, fmt.Errorf("failed to record level %d stats: %w", c.Level, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
