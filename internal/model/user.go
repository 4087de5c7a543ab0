package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID `json:"id" db:"id"`
	TelegramID        *int64    `json:"telegramId,omitempty" db:"telegram_id"`
	TelegramFirstName *string   `json:"telegramFirstName,omitempty" db:"telegram_first_name"`
	TelegramLastName  *string   `json:"telegramLastName,omitempty" db:"telegram_last_name"`
	TelegramUsername  *string   `json:"telegramUsername,omitempty" db:"telegram_username"`
	TelegramPhotoURL  *string   `json:"telegramPhotoUrl,omitempty" db:"telegram_photo_url"`

	Username     *string `json:"username,omitempty" db:"username"`
	FullName     *string `json:"fullName,omitempty" db:"full_name"`
	Email        *string `json:"email,omitempty" db:"email"`
	MobileNumber *string `json:"mobileNumber,omitempty" db:"mobile_number"`
	XUsername    *string `json:"xUsername,omitempty" db:"x_username"`

	WalletAddress    *string    `json:"walletAddress,omitempty" db:"wallet_address"`
	WalletConnected  bool       `json:"walletConnected" db:"wallet_connected"`
	WalletNonce      *string    `json:"-" db:"wallet_nonce"`
	WalletRewardedAt *time.Time `json:"-" db:"wallet_rewarded_at"`

	TokenBalance int64 `json:"token" db:"token_balance"`

	ReferredBy         *uuid.UUID `json:"referredBy,omitempty" db:"referred_by"`
	ReferralUsed       bool       `json:"referralUsed" db:"referral_used"`
	ReferralBoundAt    *time.Time `json:"referralBoundAt,omitempty" db:"referral_bound_at"`
	ReferralCount      int        `json:"referralCount" db:"referral_count"`
	ReferralRewardedAt *time.Time `json:"-" db:"referral_rewarded_at"`
	ReferralRewardTxID *string    `json:"-" db:"referral_reward_tx_id"`
	BotReferralPending bool       `json:"-" db:"bot_referral_pending"`

	LastSpinAt               *time.Time `json:"lastSpinAt,omitempty" db:"last_spin_at"`
	LastQuizAt               *time.Time `json:"lastQuizAt,omitempty" db:"last_quiz_at"`
	TelegramFollowRewardedAt *time.Time `json:"telegramFollowRewardedAt,omitempty" db:"telegram_follow_rewarded_at"`
	TwitterTaskStartedAt     *time.Time `json:"twitterTaskStartedAt,omitempty" db:"twitter_task_started_at"`
	TwitterFollowRewardedAt  *time.Time `json:"twitterFollowRewardedAt,omitempty" db:"twitter_follow_rewarded_at"`
	AgreedTermsAt            *time.Time `json:"agreedTermsAt,omitempty" db:"agreed_terms_at"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// TelegramProfile is the identity payload carried by a Telegram login request.
type TelegramProfile struct {
	TelegramID int64
	FirstName  *string
	LastName   *string
	Username   *string
	PhotoURL   *string
}

// UserDetails are the profile fields the user may edit themselves.
type UserDetails struct {
	FullName     *string `json:"fullName"`
	Email        *string `json:"email"`
	MobileNumber *string `json:"mobileNumber"`
	XUsername    *string `json:"xUsername"`
}

// ReferredUser is the public shape of a direct referral in lists.
type ReferredUser struct {
	ID                uuid.UUID `json:"id" db:"id"`
	TelegramFirstName *string   `json:"telegramFirstName,omitempty" db:"telegram_first_name"`
	TelegramUsername  *string   `json:"telegramUsername,omitempty" db:"telegram_username"`
	TelegramPhotoURL  *string   `json:"telegramPhotoUrl,omitempty" db:"telegram_photo_url"`
	JoinedAt          time.Time `json:"joinedAt" db:"created_at"`
}

// LeaderboardEntry is one row of the token leaderboard.
type LeaderboardEntry struct {
	Position          int       `json:"position" db:"position"`
	ID                uuid.UUID `json:"id" db:"id"`
	TokenBalance      int64     `json:"token" db:"token_balance"`
	TelegramFirstName *string   `json:"telegramFirstName,omitempty" db:"telegram_first_name"`
	TelegramLastName  *string   `json:"telegramLastName,omitempty" db:"telegram_last_name"`
	TelegramUsername  *string   `json:"telegramUsername,omitempty" db:"telegram_username"`
	TelegramPhotoURL  *string   `json:"telegramPhotoUrl,omitempty" db:"telegram_photo_url"`
	Username          *string   `json:"username,omitempty" db:"username"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}
