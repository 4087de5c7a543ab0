package service

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/model"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/repository"
)

func dockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

// setupTestRepo starts a throwaway PostgreSQL container with the real schema
// applied. Skips when Docker is not available.
func setupTestRepo(t *testing.T) *repository.Repository {
	t.Helper()
	if !dockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Connect("pgx", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "000001_init.up.sql"))
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, string(schema))
	require.NoError(t, err)

	return repository.NewWithDB(db)
}

var testTelegramID int64 = 100000

func createTestUser(t *testing.T, repo *repository.Repository) *model.User {
	t.Helper()

	testTelegramID++
	telegramID := testTelegramID
	firstName := "user-" + strconv.FormatInt(telegramID, 10)
	user := &model.User{
		TelegramID:        &telegramID,
		TelegramFirstName: &firstName,
	}
	require.NoError(t, repo.CreateTelegramUser(context.Background(), user))
	return user
}

func telegramCode(u *model.User) string {
	return strconv.FormatInt(*u.TelegramID, 10)
}

func TestBindAndRewardWriteOnce(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewReferralService(repo)
	ctx := context.Background()

	referrerA := createTestUser(t, repo)
	referrerB := createTestUser(t, repo)
	joiner := createTestUser(t, repo)

	result, err := svc.BindAndReward(ctx, joiner.ID, telegramCode(referrerA))
	require.NoError(t, err)
	assert.Equal(t, model.BindStatusBound, result.Status)
	require.NotNil(t, result.Referrer)
	assert.Equal(t, referrerA.ID, result.Referrer.ID)

	// A second attempt, even with a different referrer, must not rebind.
	result, err = svc.BindAndReward(ctx, joiner.ID, telegramCode(referrerB))
	require.NoError(t, err)
	assert.Equal(t, model.BindStatusAlreadyBound, result.Status)

	fresh, err := repo.GetUser(ctx, joiner.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.ReferredBy)
	assert.Equal(t, referrerA.ID, *fresh.ReferredBy)
	assert.True(t, fresh.ReferralUsed)
	assert.NotNil(t, fresh.ReferralBoundAt)

	a, err := repo.GetUser(ctx, referrerA.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, a.ReferralCount)

	b, err := repo.GetUser(ctx, referrerB.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, b.ReferralCount)
	assert.Zero(t, b.TokenBalance)
}

func TestBindAndRewardSelfReferral(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewReferralService(repo)
	ctx := context.Background()

	user := createTestUser(t, repo)

	result, err := svc.BindAndReward(ctx, user.ID, telegramCode(user))
	require.NoError(t, err)
	assert.Equal(t, model.BindStatusSelfReferral, result.Status)

	fresh, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, fresh.ReferredBy)
	assert.False(t, fresh.ReferralUsed)
	assert.Zero(t, fresh.TokenBalance)
}

func TestBindAndRewardInvalidReferrer(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewReferralService(repo)
	ctx := context.Background()

	user := createTestUser(t, repo)

	for _, code := range []string{"999999999", "not-a-code", uuid.New().String(), ""} {
		result, err := svc.BindAndReward(ctx, user.ID, code)
		require.NoError(t, err, "code %q", code)
		assert.Equal(t, model.BindStatusInvalidReferrer, result.Status, "code %q", code)
	}
}

func TestBindAndRewardCycleDetected(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewReferralService(repo)
	ctx := context.Background()

	a := createTestUser(t, repo)
	b := createTestUser(t, repo)
	c := createTestUser(t, repo)

	// Build the chain c -> b -> a.
	result, err := svc.BindAndReward(ctx, b.ID, telegramCode(a))
	require.NoError(t, err)
	require.Equal(t, model.BindStatusBound, result.Status)

	result, err = svc.BindAndReward(ctx, c.ID, telegramCode(b))
	require.NoError(t, err)
	require.Equal(t, model.BindStatusBound, result.Status)

	// Direct cycle: a binding to its own referral b.
	result, err = svc.BindAndReward(ctx, a.ID, telegramCode(b))
	require.NoError(t, err)
	assert.Equal(t, model.BindStatusCycleDetected, result.Status)

	// Transitive cycle: a binding to c, two levels down its own downline.
	result, err = svc.BindAndReward(ctx, a.ID, telegramCode(c))
	require.NoError(t, err)
	assert.Equal(t, model.BindStatusCycleDetected, result.Status)

	fresh, err := repo.GetUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, fresh.ReferredBy)
}

func TestBindAndRewardConcurrentBinds(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewReferralService(repo)
	ctx := context.Background()

	const attempts = 8

	referrers := make([]*model.User, attempts)
	for i := range referrers {
		referrers[i] = createTestUser(t, repo)
	}
	joiner := createTestUser(t, repo)

	results := make([]model.BindResult, attempts)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.BindAndReward(ctx, joiner.ID, telegramCode(referrers[i]))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "attempt %d", i)
	}

	bound := 0
	var winner *model.User
	for i, result := range results {
		switch result.Status {
		case model.BindStatusBound:
			bound++
			winner = referrers[i]
		case model.BindStatusAlreadyBound, model.BindStatusRaceLost:
		default:
			t.Fatalf("unexpected status %q", result.Status)
		}
	}
	require.Equal(t, 1, bound, "exactly one concurrent bind must win")

	fresh, err := repo.GetUser(ctx, joiner.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.ReferredBy)
	assert.Equal(t, winner.ID, *fresh.ReferredBy)

	// Rewards were paid exactly once: only the winner holds a balance.
	var total int64
	for _, ref := range referrers {
		u, err := repo.GetUser(ctx, ref.ID)
		require.NoError(t, err)
		total += u.TokenBalance
	}
	assert.Equal(t, int64(model.ReferralRewardLevel1), total)
}

func TestBindAndRewardLevelAmounts(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewReferralService(repo)
	ctx := context.Background()

	a := createTestUser(t, repo)
	b := createTestUser(t, repo)
	c := createTestUser(t, repo)
	d := createTestUser(t, repo)
	joiner := createTestUser(t, repo)

	// Chain: d -> c -> b -> a, then the joiner binds to d.
	for _, link := range []struct{ child, parent *model.User }{
		{b, a}, {c, b}, {d, c},
	} {
		result, err := svc.BindAndReward(ctx, link.child.ID, telegramCode(link.parent))
		require.NoError(t, err)
		require.Equal(t, model.BindStatusBound, result.Status)
	}
	balancesBefore := map[uuid.UUID]int64{}
	for _, u := range []*model.User{a, b, c, d} {
		fresh, err := repo.GetUser(ctx, u.ID)
		require.NoError(t, err)
		balancesBefore[u.ID] = fresh.TokenBalance
	}

	result, err := svc.BindAndReward(ctx, joiner.ID, telegramCode(d))
	require.NoError(t, err)
	require.Equal(t, model.BindStatusBound, result.Status)

	expected := map[uuid.UUID]int64{
		d.ID: model.ReferralRewardLevel1,
		c.ID: model.ReferralRewardLevel2,
		b.ID: model.ReferralRewardLevel3,
		a.ID: 0, // level 4, beyond the payout depth
	}
	for id, delta := range expected {
		fresh, err := repo.GetUser(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, balancesBefore[id]+delta, fresh.TokenBalance)
	}

	// Level stats were recorded on each paid ancestor.
	levels, summary, err := svc.GetLevelRewards(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Equal(t, int64(model.ReferralRewardLevel1), levels[0].TotalEarned)
	assert.Equal(t, 1, levels[0].ReferralCount)
	assert.NotNil(t, levels[0].LastRewardAt)
	assert.GreaterOrEqual(t, summary.TotalEarned, int64(model.ReferralRewardLevel1))
}

func TestBindAndRewardPartialChain(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewReferralService(repo)
	ctx := context.Background()

	referrer := createTestUser(t, repo)
	joiner := createTestUser(t, repo)

	result, err := svc.BindAndReward(ctx, joiner.ID, telegramCode(referrer))
	require.NoError(t, err)
	require.Equal(t, model.BindStatusBound, result.Status)

	fresh, err := repo.GetUser(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(model.ReferralRewardLevel1), fresh.TokenBalance)

	levels, summary, err := svc.GetLevelRewards(ctx, referrer.ID)
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Equal(t, int64(model.ReferralRewardLevel1), levels[0].TotalEarned)
	assert.Zero(t, levels[1].TotalEarned)
	assert.Zero(t, levels[2].TotalEarned)
	assert.Equal(t, int64(model.ReferralRewardLevel1), summary.TotalEarned)
	assert.Equal(t, 1, summary.TotalReferrals)
}

func TestDistributeReferralRewardsIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewReferralService(repo)
	ctx := context.Background()

	referrer := createTestUser(t, repo)
	joiner := createTestUser(t, repo)

	result, err := svc.BindAndReward(ctx, joiner.ID, telegramCode(referrer))
	require.NoError(t, err)
	require.Equal(t, model.BindStatusBound, result.Status)

	// Replaying the distribution for the same join must be a no-op.
	credits := model.CreditSchedule([]uuid.UUID{referrer.ID})
	distributed, err := repo.DistributeReferralRewards(ctx, joiner.ID, "ref:"+joiner.ID.String(), credits)
	require.NoError(t, err)
	assert.False(t, distributed)

	fresh, err := repo.GetUser(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(model.ReferralRewardLevel1), fresh.TokenBalance)

	levels, _, err := svc.GetLevelRewards(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, levels[0].ReferralCount)
}

func TestGetLevelRewardsZeroed(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewReferralService(repo)
	ctx := context.Background()

	user := createTestUser(t, repo)

	levels, summary, err := svc.GetLevelRewards(ctx, user.ID)
	require.NoError(t, err)

	require.Len(t, levels, 3)
	for i, level := range levels {
		assert.Equal(t, i+1, level.Level)
		assert.Zero(t, level.TotalEarned)
		assert.Zero(t, level.ReferralCount)
		assert.Nil(t, level.LastRewardAt)
	}
	assert.Equal(t, model.LevelRewardSummary{Levels: 3}, summary)
}

func TestGetReferredUsers(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewReferralService(repo)
	ctx := context.Background()

	referrer := createTestUser(t, repo)
	first := createTestUser(t, repo)
	second := createTestUser(t, repo)

	for _, joiner := range []*model.User{first, second} {
		result, err := svc.BindAndReward(ctx, joiner.ID, telegramCode(referrer))
		require.NoError(t, err)
		require.Equal(t, model.BindStatusBound, result.Status)
	}

	referred, err := svc.GetReferredUsers(ctx, referrer.ID)
	require.NoError(t, err)
	require.Len(t, referred, 2)

	ids := []uuid.UUID{referred[0].ID, referred[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)

	fresh, err := repo.GetUser(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.ReferralCount)
}
