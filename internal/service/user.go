package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/model"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/repository"
)

const leaderboardLimit = 100

type UserService struct {
	repo *repository.Repository
}

func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// LoginOrRegisterTelegram upserts the user for a Telegram login. Returns the
// user and whether it was newly created.
func (s *UserService) LoginOrRegisterTelegram(ctx context.Context, profile model.TelegramProfile) (*model.User, bool, error) {
	existing, err := s.repo.GetUserByTelegramID(ctx, profile.TelegramID)
	if err == nil {
		if err := s.repo.UpdateTelegramProfile(ctx, existing.ID, profile); err != nil {
			return nil, false, err
		}
		existing.TelegramFirstName = profile.FirstName
		existing.TelegramLastName = profile.LastName
		existing.TelegramUsername = profile.Username
		if profile.PhotoURL != nil {
			existing.TelegramPhotoURL = profile.PhotoURL
		}
		return existing, false, nil
	}
	if err != repository.ErrUserNotFound {
		return nil, false, err
	}

	telegramID := profile.TelegramID
	user := &model.User{
		TelegramID:        &telegramID,
		TelegramFirstName: profile.FirstName,
		TelegramLastName:  profile.LastName,
		TelegramUsername:  profile.Username,
		TelegramPhotoURL:  profile.PhotoURL,
	}
	if err := s.repo.CreateTelegramUser(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *UserService) UpdateUsername(ctx context.Context, id uuid.UUID, username string) (*model.User, error) {
	if err := s.repo.UpdateUsername(ctx, id, username); err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, id)
}

func (s *UserService) UpdateDetails(ctx context.Context, id uuid.UUID, details model.UserDetails) (*model.User, error) {
	if err := s.repo.UpdateUserDetails(ctx, id, details); err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, id)
}

// AgreeToTerms records the agreement timestamp once; repeat calls keep the
// original timestamp.
func (s *UserService) AgreeToTerms(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if err := s.repo.SetAgreedTerms(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, id)
}

// GetLeaderboard returns the top token holders with positions assigned, ties
// broken by account age.
func (s *UserService) GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	return s.repo.GetLeaderboard(ctx, leaderboardLimit)
}

func (s *UserService) GetTransactions(ctx context.Context, id uuid.UUID, limit, offset int) ([]model.TokenTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetTokenTransactions(ctx, id, limit, offset)
}
