package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/xssnick/tonutils-go/address"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/model"
	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/repository"
)

var (
	ErrInvalidWalletAddress = errors.New("invalid wallet address")
	ErrWalletInUse          = errors.New("wallet already connected to another user")
)

// WalletService implements the thin wallet-connect feature. Signature and
// on-chain verification stay client-side; the server validates the address
// shape, hands out nonces and pays the one-time connect bonus.
type WalletService struct {
	repo *repository.Repository
}

func NewWalletService(repo *repository.Repository) *WalletService {
	return &WalletService{repo: repo}
}

// Nonce gets or creates a wallet-keyed user and rotates its signing nonce.
func (s *WalletService) Nonce(ctx context.Context, walletAddress string) (string, error) {
	normalized, err := normalizeWalletAddress(walletAddress)
	if err != nil {
		return "", err
	}

	user, err := s.repo.GetUserByWallet(ctx, normalized)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = s.repo.CreateWalletUser(ctx, normalized)
	}
	if err != nil {
		return "", err
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	nonce := hex.EncodeToString(buf)

	if err := s.repo.SetWalletNonce(ctx, user.ID, nonce); err != nil {
		return "", err
	}
	return nonce, nil
}

// Connect binds a wallet to the authenticated user and credits the one-time
// connect bonus. A wallet held by any other account is rejected.
func (s *WalletService) Connect(ctx context.Context, userID uuid.UUID, walletAddress string) (*model.User, error) {
	normalized, err := normalizeWalletAddress(walletAddress)
	if err != nil {
		return nil, err
	}

	holder, err := s.repo.GetUserByWallet(ctx, normalized)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	if holder != nil && holder.ID != userID {
		return nil, ErrWalletInUse
	}

	if err := s.repo.AttachWallet(ctx, userID, normalized); err != nil {
		return nil, err
	}

	rewarded, err := s.repo.MarkWalletRewarded(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rewarded {
		description := "Wallet connect bonus"
		if _, err := s.repo.CreditTokens(ctx, userID, model.WalletConnectBonus, model.TransactionTypeWalletBonus, &description, nil); err != nil {
			return nil, err
		}
	}

	return s.repo.GetUser(ctx, userID)
}

func (s *WalletService) Disconnect(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if err := s.repo.DetachWallet(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, userID)
}

// normalizeWalletAddress validates the address shape. The trimmed original
// form is the storage key: friendly TON addresses are case-sensitive.
func normalizeWalletAddress(walletAddress string) (string, error) {
	trimmed := strings.TrimSpace(walletAddress)
	if trimmed == "" {
		return "", ErrInvalidWalletAddress
	}
	if _, err := address.ParseAddr(trimmed); err != nil {
		return "", ErrInvalidWalletAddress
	}
	return trimmed, nil
}
