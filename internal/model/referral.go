package model

import (
	"time"

	"github.com/google/uuid"
)

// Per-level upline rewards for a single join event. Level 1 is the direct
// referrer, levels 2 and 3 its ancestors.
const (
	ReferralMaxDepth = 3

	ReferralRewardLevel1 = 5000
	ReferralRewardLevel2 = 2500
	ReferralRewardLevel3 = 1500
)

// ReferralRewardForLevel returns the fixed token amount credited to the
// ancestor at the given level, or 0 for levels outside 1..3.
func ReferralRewardForLevel(level int) int64 {
	switch level {
	case 1:
		return ReferralRewardLevel1
	case 2:
		return ReferralRewardLevel2
	case 3:
		return ReferralRewardLevel3
	default:
		return 0
	}
}

type BindStatus string

const (
	BindStatusBound           BindStatus = "bound"
	BindStatusAlreadyBound    BindStatus = "already_bound"
	BindStatusSelfReferral    BindStatus = "self_referral"
	BindStatusCycleDetected   BindStatus = "cycle_detected"
	BindStatusInvalidReferrer BindStatus = "invalid_referrer"
	BindStatusRaceLost        BindStatus = "race_lost"
)

// BindResult is the tagged outcome of a referral bind attempt. Both the
// Telegram login flow and the explicit apply endpoint consume it.
type BindResult struct {
	Status   BindStatus
	Referrer *User
}

// LevelReward is one per-level aggregate row on a referrer.
type LevelReward struct {
	Level         int        `json:"level" db:"level"`
	TotalEarned   int64      `json:"totalEarned" db:"total_earned"`
	ReferralCount int        `json:"referralCount" db:"referral_count"`
	LastRewardAt  *time.Time `json:"lastRewardAt" db:"last_reward_at"`
}

// LevelRewardSummary aggregates the three level rows.
type LevelRewardSummary struct {
	TotalEarned    int64 `json:"totalEarned"`
	TotalReferrals int   `json:"totalReferrals"`
	Levels         int   `json:"levels"`
}

// UplineCredit is one pending credit in a join event's reward distribution.
type UplineCredit struct {
	UserID uuid.UUID
	Level  int
	Amount int64
}

// CreditSchedule maps an ancestor chain (level 1 first) to the credits owed
// for a single join event. Chains longer than ReferralMaxDepth are truncated;
// absent ancestors simply shorten the schedule.
func CreditSchedule(chain []uuid.UUID) []UplineCredit {
	credits := make([]UplineCredit, 0, ReferralMaxDepth)
	for i, id := range chain {
		level := i + 1
		if level > ReferralMaxDepth {
			break
		}
		credits = append(credits, UplineCredit{
			UserID: id,
			Level:  level,
			Amount: ReferralRewardForLevel(level),
		})
	}
	return credits
}

// FillLevelRewards expands sparse per-level rows into exactly one entry per
// level 1..3, zero-valued where no rewards were recorded, plus the summary.
func FillLevelRewards(rows []LevelReward) ([]LevelReward, LevelRewardSummary) {
	byLevel := make(map[int]LevelReward, len(rows))
	for _, r := range rows {
		byLevel[r.Level] = r
	}

	filled := make([]LevelReward, 0, ReferralMaxDepth)
	var summary LevelRewardSummary
	for level := 1; level <= ReferralMaxDepth; level++ {
		row, ok := byLevel[level]
		if !ok {
			row = LevelReward{Level: level}
		}
		filled = append(filled, row)
		summary.TotalEarned += row.TotalEarned
		summary.TotalReferrals += row.ReferralCount
	}
	summary.Levels = len(filled)
	return filled, summary
}
