package model

import "time"

// Deposit はアップストリームAPIが管理する入金レコードを表す。
// 残高計算はアップストリームが正であり、ゲートウェイは中継のみ行う。
type Deposit struct {
	ID          string     `json:"id"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
}

// Withdrawal はアップストリームAPIが管理する出金レコードを表す。
// 手数料と純額の計算はアップストリームが行い、ゲートウェイは中継のみ行う。
type Withdrawal struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Fee         float64   `json:"fee"`
	NetAmount   float64   `json:"netAmount"`
	Currency    string    `json:"currency"`
	Method      string    `json:"method"`
	Destination string    `json:"destination"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Notification はアップストリームAPIが管理する通知を表す。
// TitleとMessageはゲートウェイでサニタイズしてからクライアントに返す。
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// Plan は投資プランのカタログ項目を表す。
type Plan struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Tier          string  `json:"tier"`
	MinimumAmount float64 `json:"minimumAmount"`
	DailyROI      float64 `json:"dailyRoi"`
	DurationDays  int     `json:"durationDays"`
}

// Article は記事ミッション向けにキャッシュされた記事を表す。
// Contentはサニタイズ済みHTML。
type Article struct {
	ID          string
	Title       string
	Link        string
	Content     string
	Summary     string
	PublishedAt time.Time
	FetchedAt   time.Time
}
