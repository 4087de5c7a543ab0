package model

// Fixed reward amounts for the point-earning features. None of these are
// configurable per call.
const (
	WalletConnectBonus   = 100
	TelegramFollowReward = 1000
	TwitterFollowReward  = 1000
	ReadingReward        = 50

	QuizMaxReward        = 100
	QuizPointsPerAnswer  = 20
)

// SpinPrizes are the token values of the winnable wheel segments. The
// non-token segments (physical prizes) never reach the reward endpoint.
var SpinPrizes = []int64{100, 200, 300, 500}

// ValidSpinPrize reports whether amount is one of the wheel's token values.
func ValidSpinPrize(amount int64) bool {
	for _, p := range SpinPrizes {
		if amount == p {
			return true
		}
	}
	return false
}

// ValidQuizReward reports whether amount is a reachable quiz score:
// QuizPointsPerAnswer per correct answer, clamped to [0, QuizMaxReward].
func ValidQuizReward(amount int64) bool {
	return amount >= 0 && amount <= QuizMaxReward && amount%QuizPointsPerAnswer == 0
}

// SocialPlatform identifies a follow-task integration.
type SocialPlatform string

const (
	PlatformTelegram  SocialPlatform = "telegram"
	PlatformTwitter   SocialPlatform = "twitter"
	PlatformDiscord   SocialPlatform = "discord"
	PlatformInstagram SocialPlatform = "instagram"
	PlatformLinkedIn  SocialPlatform = "linkedin"
	PlatformMedium    SocialPlatform = "medium"
)
