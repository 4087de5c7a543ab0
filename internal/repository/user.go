package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE telegram_id = $1", telegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUserByWallet(ctx context.Context, walletAddress string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE wallet_address = $1", walletAddress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) CreateTelegramUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, telegram_first_name, telegram_last_name, telegram_username, telegram_photo_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		user.TelegramID,
		user.TelegramFirstName,
		user.TelegramLastName,
		user.TelegramUsername,
		user.TelegramPhotoURL,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *Repository) CreateWalletUser(ctx context.Context, walletAddress string) (*model.User, error) {
	query := `
		INSERT INTO users (wallet_address)
		VALUES ($1)
		RETURNING *`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, walletAddress); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) UpdateTelegramProfile(ctx context.Context, id uuid.UUID, profile model.TelegramProfile) error {
	query := `
		UPDATE users SET
			telegram_first_name = $2,
			telegram_last_name = $3,
			telegram_username = $4,
			telegram_photo_url = COALESCE($5, telegram_photo_url),
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, profile.FirstName, profile.LastName, profile.Username, profile.PhotoURL)
	return err
}

func (r *Repository) UpdateUsername(ctx context.Context, id uuid.UUID, username string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET username = $2, updated_at = NOW() WHERE id = $1", id, username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repository) UpdateUserDetails(ctx context.Context, id uuid.UUID, details model.UserDetails) error {
	query := `
		UPDATE users SET
			full_name = COALESCE($2, full_name),
			email = COALESCE($3, email),
			mobile_number = COALESCE($4, mobile_number),
			x_username = COALESCE($5, x_username),
			updated_at = NOW()
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, details.FullName, details.Email, details.MobileNumber, details.XUsername)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repository) SetAgreedTerms(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET agreed_terms_at = COALESCE(agreed_terms_at, NOW()), updated_at = NOW() WHERE id = $1", id)
	return err
}

func (r *Repository) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	query := `
		SELECT id, token_balance, telegram_first_name, telegram_last_name,
		       telegram_username, telegram_photo_url, username, created_at
		FROM users
		WHERE token_balance > 0
		ORDER BY token_balance DESC, created_at ASC
		LIMIT $1`
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries, nil
}

// ClaimCooldown atomically claims a per-user cooldown column. The claim
// succeeds only if the column is NULL or at/before cutoff, which makes
// concurrent claims race-safe on the single row.
func (r *Repository) claimCooldown(ctx context.Context, column string, id uuid.UUID, cutoff time.Time) (bool, error) {
	query := `UPDATE users SET ` + column + ` = NOW(), updated_at = NOW()
		WHERE id = $1 AND (` + column + ` IS NULL OR ` + column + ` <= $2)`
	res, err := r.db.ExecContext(ctx, query, id, cutoff)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) ClaimSpin(ctx context.Context, id uuid.UUID, cutoff time.Time) (bool, error) {
	return r.claimCooldown(ctx, "last_spin_at", id, cutoff)
}

func (r *Repository) ClaimQuiz(ctx context.Context, id uuid.UUID, cutoff time.Time) (bool, error) {
	return r.claimCooldown(ctx, "last_quiz_at", id, cutoff)
}

// markOnce sets a timestamp column to NOW() if it is still NULL. Reports
// whether this call won the write.
func (r *Repository) markOnce(ctx context.Context, column string, id uuid.UUID) (bool, error) {
	query := `UPDATE users SET ` + column + ` = NOW(), updated_at = NOW()
		WHERE id = $1 AND ` + column + ` IS NULL`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) MarkTelegramFollowRewarded(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.markOnce(ctx, "telegram_follow_rewarded_at", id)
}

func (r *Repository) StartTwitterTask(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.markOnce(ctx, "twitter_task_started_at", id)
}

func (r *Repository) MarkTwitterFollowRewarded(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.markOnce(ctx, "twitter_follow_rewarded_at", id)
}

func (r *Repository) MarkWalletRewarded(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.markOnce(ctx, "wallet_rewarded_at", id)
}

func (r *Repository) SetWalletNonce(ctx context.Context, id uuid.UUID, nonce string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET wallet_nonce = $2, updated_at = NOW() WHERE id = $1", id, nonce)
	return err
}

func (r *Repository) AttachWallet(ctx context.Context, id uuid.UUID, walletAddress string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET wallet_address = $2, wallet_connected = TRUE, updated_at = NOW()
		WHERE id = $1`, id, walletAddress)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repository) DetachWallet(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET wallet_address = NULL, wallet_connected = FALSE, updated_at = NOW()
		WHERE id = $1`, id)
	return err
}
