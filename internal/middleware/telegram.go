package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInitDataMissing = errors.New("missing telegram init data")
	ErrInitDataInvalid = errors.New("invalid telegram init data")
	ErrInitDataExpired = errors.New("telegram init data expired")
)

// TelegramInitData is the verified identity payload from the WebApp.
type TelegramInitData struct {
	QueryID      string
	UserID       int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
	PhotoURL     string
	AuthDate     int64
}

type initDataUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
	PhotoURL     string `json:"photo_url"`
}

// ValidateTelegramInitData verifies the WebApp initData signature against the
// bot token per the Telegram HMAC scheme and rejects stale auth dates.
func ValidateTelegramInitData(initData, botToken string) (*TelegramInitData, error) {
	if initData == "" {
		return nil, ErrInitDataMissing
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrInitDataInvalid
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrInitDataInvalid
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, ErrInitDataInvalid
	}
	if time.Now().Unix()-authDate > 3600 {
		return nil, ErrInitDataExpired
	}

	values.Del("hash")
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	dataCheckParts := make([]string, 0, len(keys))
	for _, key := range keys {
		dataCheckParts = append(dataCheckParts, key+"="+values.Get(key))
	}
	dataCheckString := strings.Join(dataCheckParts, "\n")

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(botToken))

	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(dataCheckString))
	calculatedHash := hex.EncodeToString(h.Sum(nil))

	if !hmac.Equal([]byte(calculatedHash), []byte(hash)) {
		return nil, ErrInitDataInvalid
	}

	data := &TelegramInitData{
		QueryID:  values.Get("query_id"),
		AuthDate: authDate,
	}

	if userJSON := values.Get("user"); userJSON != "" {
		var u initDataUser
		if err := json.Unmarshal([]byte(userJSON), &u); err != nil {
			return nil, ErrInitDataInvalid
		}
		data.UserID = u.ID
		data.Username = u.Username
		data.FirstName = u.FirstName
		data.LastName = u.LastName
		data.LanguageCode = u.LanguageCode
		data.PhotoURL = u.PhotoURL
	}

	return data, nil
}
