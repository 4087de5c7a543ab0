package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/model"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/repository"
)

// ancestorWalkLimit bounds the upward walk used for cycle detection. The
// referral graph is append-only with write-once edges, so legitimate chains
// can never loop, but the walk is capped anyway so a corrupted graph cannot
// hang a request.
const ancestorWalkLimit = 32

var numericCode = regexp.MustCompile(`^[0-9]+$`)

type ReferralService struct {
	repo *repository.Repository
}

func NewReferralService(repo *repository.Repository) *ReferralService {
	return &ReferralService{repo: repo}
}

// BindAndReward is the single referral-binding routine behind both the
// Telegram login flow and the explicit apply endpoint. It validates the
// candidate referrer, establishes the write-once forward edge, links the
// joiner into the referrer's downline and distributes the upline rewards.
//
// The code argument is either the referrer's Telegram id (numeric string),
// the referrer's user id, or empty — in which case a bot-pending referral is
// resolved by reverse lookup.
//
// Reward distribution is best effort: once the edge is bound, crediting
// failures are logged and the bind still reports Bound.
func (s *ReferralService) BindAndReward(ctx context.Context, userID uuid.UUID, code string) (model.BindResult, error) {
	// Re-read the joining user so a stale in-memory copy cannot bypass the
	// early already-bound exit.
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return model.BindResult{}, err
	}

	if user.ReferralUsed || user.ReferredBy != nil {
		return model.BindResult{Status: model.BindStatusAlreadyBound}, nil
	}

	referrer, err := s.resolveReferrer(ctx, user, code)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.BindResult{Status: model.BindStatusInvalidReferrer}, nil
		}
		return model.BindResult{}, err
	}
	if referrer == nil {
		return model.BindResult{Status: model.BindStatusInvalidReferrer}, nil
	}

	if referrer.ID == user.ID {
		return model.BindResult{Status: model.BindStatusSelfReferral}, nil
	}

	cycle, err := s.isAncestor(ctx, referrer, user.ID)
	if err != nil {
		return model.BindResult{}, err
	}
	if cycle {
		return model.BindResult{Status: model.BindStatusCycleDetected}, nil
	}

	bound, err := s.repo.BindReferral(ctx, user.ID, referrer.ID)
	if err != nil {
		return model.BindResult{}, err
	}
	if !bound {
		// A concurrent bind won; the edge that exists is the valid one.
		return model.BindResult{Status: model.BindStatusRaceLost}, nil
	}

	if err := s.repo.LinkReferred(ctx, referrer.ID, user.ID); err != nil {
		// The forward edge is durable; the downline link can be repaired
		// from referred_by, so the bind itself still stands.
		log.Error().Err(err).
			Str("user_id", user.ID.String()).
			Str("referrer_id", referrer.ID.String()).
			Msg("failed to link referred user")
	}

	s.creditUpline(ctx, user.ID, referrer)

	return model.BindResult{Status: model.BindStatusBound, Referrer: referrer}, nil
}

func (s *ReferralService) resolveReferrer(ctx context.Context, user *model.User, code string) (*model.User, error) {
	switch {
	case code != "" && numericCode.MatchString(code):
		var telegramID int64
		if _, err := fmt.Sscan(code, &telegramID); err != nil {
			return nil, repository.ErrUserNotFound
		}
		return s.repo.GetUserByTelegramID(ctx, telegramID)

	case code != "":
		referrerID, err := uuid.Parse(code)
		if err != nil {
			return nil, repository.ErrUserNotFound
		}
		return s.repo.GetUser(ctx, referrerID)

	case user.BotReferralPending:
		// The bot flow records the downline link before the forward edge
		// exists; resolve the referrer by reverse lookup.
		return s.repo.FindPendingReferrer(ctx, user.ID)

	default:
		return nil, nil
	}
}

// isAncestor walks the candidate referrer's whole upline and reports whether
// target already appears in it, which would make the new edge a cycle.
func (s *ReferralService) isAncestor(ctx context.Context, from *model.User, target uuid.UUID) (bool, error) {
	current := from
	for depth := 0; depth < ancestorWalkLimit; depth++ {
		if current.ReferredBy == nil {
			return false, nil
		}
		if *current.ReferredBy == target {
			return true, nil
		}
		next, err := s.repo.GetUser(ctx, *current.ReferredBy)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return false, nil
			}
			return false, err
		}
		current = next
	}
	return false, nil
}

// creditUpline pays the fixed per-level rewards to up to three ancestors of
// the joining user. The marker acquisition and all credits run in one
// repository transaction, and the whole operation is guarded so it happens at
// most once per join event. Errors are logged, never propagated: a reward
// failure must not retract a successful bind or block a login.
func (s *ReferralService) creditUpline(ctx context.Context, joiningUserID uuid.UUID, directReferrer *model.User) {
	chain := make([]uuid.UUID, 0, model.ReferralMaxDepth)
	current := directReferrer
	for len(chain) < model.ReferralMaxDepth {
		chain = append(chain, current.ID)
		if current.ReferredBy == nil {
			break
		}
		next, err := s.repo.GetUser(ctx, *current.ReferredBy)
		if err != nil {
			if !errors.Is(err, repository.ErrUserNotFound) {
				log.Error().Err(err).
					Str("user_id", joiningUserID.String()).
					Msg("failed to walk referral upline")
			}
			break
		}
		current = next
	}

	credits := model.CreditSchedule(chain)
	rewardTxID := "ref:" + joiningUserID.String()

	distributed, err := s.repo.DistributeReferralRewards(ctx, joiningUserID, rewardTxID, credits)
	if err != nil {
		log.Error().Err(err).
			Str("user_id", joiningUserID.String()).
			Msg("failed to distribute referral rewards")
		return
	}
	if distributed {
		log.Info().
			Str("user_id", joiningUserID.String()).
			Int("levels", len(credits)).
			Msg("referral rewards distributed")
	}
}

// GetLevelRewards returns the caller's per-level referral earnings, always
// reporting all three levels even when nothing was earned yet.
func (s *ReferralService) GetLevelRewards(ctx context.Context, userID uuid.UUID) ([]model.LevelReward, model.LevelRewardSummary, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, model.LevelRewardSummary{}, err
	}

	rows, err := s.repo.GetLevelRewards(ctx, userID)
	if err != nil {
		return nil, model.LevelRewardSummary{}, err
	}

	filled, summary := model.FillLevelRewards(rows)
	return filled, summary, nil
}

func (s *ReferralService) GetReferredUsers(ctx context.Context, userID uuid.UUID) ([]model.ReferredUser, error) {
	return s.repo.GetReferredUsers(ctx, userID)
}
