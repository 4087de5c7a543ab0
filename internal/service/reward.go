package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/config"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/model"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/repository"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/session"
)

var (
	ErrSpinNotAvailable  = errors.New("spin not available yet")
	ErrInvalidSpinPrize  = errors.New("invalid spin prize amount")
	ErrQuizNotAvailable  = errors.New("quiz not available yet")
	ErrInvalidQuizReward = errors.New("invalid quiz reward amount")
	ErrBookIDRequired    = errors.New("bookId is required")
	ErrReadingSession    = errors.New("invalid or expired reading session")
)

// RewardService handles the single-document point credits: spin wheel, quiz
// and book-reading rewards.
type RewardService struct {
	repo     *repository.Repository
	sessions *session.Store
}

func NewRewardService(repo *repository.Repository, sessions *session.Store) *RewardService {
	return &RewardService{repo: repo, sessions: sessions}
}

// ClaimSpinReward credits a spin prize. The cooldown claim is a conditional
// single-row update, so concurrent spins cannot double-credit.
func (s *RewardService) ClaimSpinReward(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	if !model.ValidSpinPrize(amount) {
		return 0, ErrInvalidSpinPrize
	}

	claimed, err := s.repo.ClaimSpin(ctx, userID, time.Now().Add(-config.SpinCooldown))
	if err != nil {
		return 0, err
	}
	if !claimed {
		return 0, ErrSpinNotAvailable
	}

	description := fmt.Sprintf("Spin wheel prize: %d points", amount)
	return s.repo.CreditTokens(ctx, userID, amount, model.TransactionTypeSpinReward, &description, nil)
}

// ClaimQuizReward credits a quiz score. A zero score still consumes the
// daily attempt.
func (s *RewardService) ClaimQuizReward(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	if !model.ValidQuizReward(amount) {
		return 0, ErrInvalidQuizReward
	}

	claimed, err := s.repo.ClaimQuiz(ctx, userID, time.Now().Add(-config.QuizCooldown))
	if err != nil {
		return 0, err
	}
	if !claimed {
		return 0, ErrQuizNotAvailable
	}

	if amount == 0 {
		user, err := s.repo.GetUser(ctx, userID)
		if err != nil {
			return 0, err
		}
		return user.TokenBalance, nil
	}

	description := fmt.Sprintf("Quiz reward: %d points", amount)
	return s.repo.CreditTokens(ctx, userID, amount, model.TransactionTypeQuizReward, &description, nil)
}

// CreateReadingSession issues a short-lived single-use token the client must
// present when claiming the reading reward.
func (s *RewardService) CreateReadingSession(ctx context.Context, userID uuid.UUID, bookID string) (*session.ReadingSession, error) {
	if bookID == "" {
		return nil, ErrBookIDRequired
	}
	return s.sessions.CreateReadingSession(ctx, userID.String(), bookID)
}

// ClaimReadingReward redeems a reading session for the fixed reading reward.
func (s *RewardService) ClaimReadingReward(ctx context.Context, userID uuid.UUID, readingToken, bookID string) (int64, error) {
	if readingToken == "" || bookID == "" {
		return 0, ErrReadingSession
	}

	if err := s.sessions.RedeemReadingSession(ctx, userID.String(), readingToken, bookID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return 0, ErrReadingSession
		}
		return 0, err
	}

	description := fmt.Sprintf("Reading reward for book %s", bookID)
	return s.repo.CreditTokens(ctx, userID, model.ReadingReward, model.TransactionTypeReadingReward, &description, nil)
}

// CooldownEligibility reports whether an action guarded by lastAt is
// available at now, and the remaining wait if not.
func CooldownEligibility(lastAt *time.Time, cooldown time.Duration, now time.Time) (bool, time.Duration) {
	if lastAt == nil {
		return true, 0
	}
	next := lastAt.Add(cooldown)
	if !now.Before(next) {
		return true, 0
	}
	return false, next.Sub(now)
}
