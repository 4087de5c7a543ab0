package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestReferralRewardForLevel(t *testing.T) {
	assert.Equal(t, int64(5000), ReferralRewardForLevel(1))
	assert.Equal(t, int64(2500), ReferralRewardForLevel(2))
	assert.Equal(t, int64(1500), ReferralRewardForLevel(3))
	assert.Equal(t, int64(0), ReferralRewardForLevel(0))
	assert.Equal(t, int64(0), ReferralRewardForLevel(4))
	assert.Equal(t, int64(0), ReferralRewardForLevel(-1))
}

func TestCreditSchedule(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	d := uuid.New()

	tests := []struct {
		name  string
		chain []uuid.UUID
		want  []UplineCredit
	}{
		{
			name:  "empty chain",
			chain: nil,
			want:  []UplineCredit{},
		},
		{
			name:  "direct referrer only",
			chain: []uuid.UUID{a},
			want: []UplineCredit{
				{UserID: a, Level: 1, Amount: 5000},
			},
		},
		{
			name:  "two ancestors",
			chain: []uuid.UUID{a, b},
			want: []UplineCredit{
				{UserID: a, Level: 1, Amount: 5000},
				{UserID: b, Level: 2, Amount: 2500},
			},
		},
		{
			name:  "full chain",
			chain: []uuid.UUID{a, b, c},
			want: []UplineCredit{
				{UserID: a, Level: 1, Amount: 5000},
				{UserID: b, Level: 2, Amount: 2500},
				{UserID: c, Level: 3, Amount: 1500},
			},
		},
		{
			name:  "chain longer than max depth is truncated",
			chain: []uuid.UUID{a, b, c, d},
			want: []UplineCredit{
				{UserID: a, Level: 1, Amount: 5000},
				{UserID: b, Level: 2, Amount: 2500},
				{UserID: c, Level: 3, Amount: 1500},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CreditSchedule(tt.chain))
		})
	}
}

func TestCreditScheduleProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(t, "chainLen")
		chain := make([]uuid.UUID, n)
		for i := range chain {
			chain[i] = uuid.New()
		}

		credits := CreditSchedule(chain)

		if len(credits) > ReferralMaxDepth {
			t.Fatalf("schedule exceeds max depth: %d", len(credits))
		}
		if n < ReferralMaxDepth && len(credits) != n {
			t.Fatalf("short chain must credit every ancestor: chain=%d credits=%d", n, len(credits))
		}
		for i, credit := range credits {
			if credit.Level != i+1 {
				t.Fatalf("credit %d has level %d", i, credit.Level)
			}
			if credit.Amount != ReferralRewardForLevel(credit.Level) {
				t.Fatalf("level %d credited %d", credit.Level, credit.Amount)
			}
			if credit.UserID != chain[i] {
				t.Fatalf("credit %d targets wrong user", i)
			}
		}
	})
}

func TestFillLevelRewardsEmpty(t *testing.T) {
	filled, summary := FillLevelRewards(nil)

	require.Len(t, filled, 3)
	for i, row := range filled {
		assert.Equal(t, i+1, row.Level)
		assert.Zero(t, row.TotalEarned)
		assert.Zero(t, row.ReferralCount)
		assert.Nil(t, row.LastRewardAt)
	}
	assert.Equal(t, LevelRewardSummary{Levels: 3}, summary)
}

func TestFillLevelRewardsSparse(t *testing.T) {
	now := time.Now()
	rows := []LevelReward{
		{Level: 2, TotalEarned: 5000, ReferralCount: 2, LastRewardAt: &now},
	}

	filled, summary := FillLevelRewards(rows)

	require.Len(t, filled, 3)
	assert.Equal(t, LevelReward{Level: 1}, filled[0])
	assert.Equal(t, rows[0], filled[1])
	assert.Equal(t, LevelReward{Level: 3}, filled[2])

	assert.Equal(t, int64(5000), summary.TotalEarned)
	assert.Equal(t, 2, summary.TotalReferrals)
	assert.Equal(t, 3, summary.Levels)
}

func TestFillLevelRewardsSummary(t *testing.T) {
	rows := []LevelReward{
		{Level: 1, TotalEarned: 10000, ReferralCount: 2},
		{Level: 2, TotalEarned: 2500, ReferralCount: 1},
		{Level: 3, TotalEarned: 4500, ReferralCount: 3},
	}

	filled, summary := FillLevelRewards(rows)

	require.Len(t, filled, 3)
	assert.Equal(t, int64(17000), summary.TotalEarned)
	assert.Equal(t, 6, summary.TotalReferrals)
	assert.Equal(t, 3, summary.Levels)
}
