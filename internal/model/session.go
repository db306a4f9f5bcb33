package model

import "time"

// Session はゲートウェイが保持するブラウザセッションを表す。
// アップストリームのアクセストークン/リフレッシュトークンを預かり、
// ブラウザにはHTTP Only CookieのセッションIDのみを渡す。
type Session struct {
	ID           string
	UserID       string // アップストリームのユーザーID
	AccessToken  string // 短命のベアラー資格情報。リフレッシュ成功時にインプレースで置換される
	RefreshToken string // 長命の資格情報。auth/refreshでアクセストークンを再発行するために使う
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Authenticated はセッションがアクセストークンを保持しているかを返す。
// アクセストークンが無い場合、保護されたリクエストはAuthorizationヘッダーなしで送出される。
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

// UserProfile はアップストリームAPIのauth/profileが返すユーザー情報を表す。
type UserProfile struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	Phone            string  `json:"phone"`
	Role             string  `json:"role"`
	Verified         bool    `json:"verified"`
	AvailableBalance float64 `json:"availableBalance"`
	LockedBalance    float64 `json:"lockedBalance"`
	Credits          float64 `json:"credits"`
	CurrentTier      string  `json:"currentTier"`
	TasksCompleted   int     `json:"tasksCompleted"`
	Points           int     `json:"points"`
	Level            int     `json:"level"`
	ReferralCode     string  `json:"referralCode"`
}

// Preferences はユーザーごとの表示設定を表す。
// セッション開始時に読み込まれ、変更時に書き込まれる。
type Preferences struct {
	UserID       string    `json:"-"`
	DarkMode     bool      `json:"darkMode"`
	Lang         string    `json:"lang"`
	UserCurrency string    `json:"userCurrency"`
	UserLocale   string    `json:"userLocale"`
	UpdatedAt    time.Time `json:"-"`
}

// DefaultPreferences は初回アクセス時の既定の表示設定を返す。
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:       userID,
		DarkMode:     false,
		Lang:         "en",
		UserCurrency: "USD",
		UserLocale:   "en-US",
	}
}
