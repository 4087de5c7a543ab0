package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/config"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/model"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/repository"
)

var (
	ErrTaskAlreadyClaimed = errors.New("task reward already claimed")
	ErrTaskNotStarted     = errors.New("task has not been started")
	ErrVerifyTooSoon      = errors.New("verification attempted too soon")
)

// TaskService handles the social-follow tasks. Actually verifying a follow on
// the external platform is out of scope; the rewards are guarded by one-time
// markers and, for Twitter, a wait gate after task start.
type TaskService struct {
	repo *repository.Repository
}

func NewTaskService(repo *repository.Repository) *TaskService {
	return &TaskService{repo: repo}
}

// ClaimTelegramFollow credits the one-time Telegram follow reward.
func (s *TaskService) ClaimTelegramFollow(ctx context.Context, userID uuid.UUID) (int64, error) {
	won, err := s.repo.MarkTelegramFollowRewarded(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !won {
		return 0, ErrTaskAlreadyClaimed
	}

	description := "Telegram follow reward"
	return s.repo.CreditTokens(ctx, userID, model.TelegramFollowReward, model.TransactionTypeTaskReward, &description, nil)
}

// StartTwitterTask records when the user opened the follow flow. Repeat calls
// keep the original start time.
func (s *TaskService) StartTwitterTask(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if _, err := s.repo.StartTwitterTask(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, userID)
}

// VerifyTwitterFollow credits the one-time Twitter follow reward, enforcing
// the wait gate between starting the task and claiming it.
func (s *TaskService) VerifyTwitterFollow(ctx context.Context, userID uuid.UUID) (int64, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	if user.TwitterTaskStartedAt == nil {
		return 0, ErrTaskNotStarted
	}
	if time.Since(*user.TwitterTaskStartedAt) < config.TwitterVerifyDelay {
		return 0, ErrVerifyTooSoon
	}

	won, err := s.repo.MarkTwitterFollowRewarded(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !won {
		return 0, ErrTaskAlreadyClaimed
	}

	description := "Twitter follow reward"
	return s.repo.CreditTokens(ctx, userID, model.TwitterFollowReward, model.TransactionTypeTaskReward, &description, nil)
}

// TaskStatus is the per-platform task state reported to the client.
type TaskStatus struct {
	Platform   model.SocialPlatform `json:"platform"`
	Connected  bool                 `json:"connected"`
	Rewarded   bool                 `json:"rewarded"`
	StartedAt  *time.Time           `json:"startedAt,omitempty"`
	RewardedAt *time.Time           `json:"rewardedAt,omitempty"`
}

// GetStatus reports the task state for one platform. Platforms without a
// backing flow always report not connected.
func (s *TaskService) GetStatus(ctx context.Context, userID uuid.UUID, platform model.SocialPlatform) (*TaskStatus, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := &TaskStatus{Platform: platform}
	switch platform {
	case model.PlatformTelegram:
		status.Connected = user.TelegramID != nil
		status.Rewarded = user.TelegramFollowRewardedAt != nil
		status.RewardedAt = user.TelegramFollowRewardedAt
	case model.PlatformTwitter:
		status.Connected = user.TwitterTaskStartedAt != nil
		status.StartedAt = user.TwitterTaskStartedAt
		status.Rewarded = user.TwitterFollowRewardedAt != nil
		status.RewardedAt = user.TwitterFollowRewardedAt
	}
	return status, nil
}
