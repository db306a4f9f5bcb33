package platform

import (
	"encoding/json"
	"fmt"

	"github.com/hitoshi/vestgate/internal/model"
)

// エンドポイントごとのレスポンススキーマ。
// 境界で明示的にデコードし、形状不一致はUpstreamErrorで失敗させる。

// envelope はアップストリームAPIの共通レスポンス形式。
// dataの型はエンドポイントごとに異なるため遅延デコードする。
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Credentials はログイン成功時にアップストリームが発行するトークンの組。
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// refreshData はauth/refresh成功時のdata。アクセストークンのみが再発行される。
type refreshData struct {
	AccessToken string `json:"accessToken"`
}

// RegisterRequest はauth/registerのリクエストボディ。
type RegisterRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"dateOfBirth"`
	Password    string `json:"password"`
}

// loginRequest はauth/loginのリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// forgotPasswordRequest はauth/forgot-passwordのリクエストボディ。
type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// resetPasswordRequest はauth/reset-passwordのリクエストボディ。
type resetPasswordRequest struct {
	Password string `json:"password"`
}

// depositRequest はPOST depositsのリクエストボディ。
type depositRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

// withdrawalRequest はPOST withdrawalsのリクエストボディ。
type withdrawalRequest struct {
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`
	Destination string  `json:"destination"`
}

// decodeData はenvelopeのdataを指定の型にデコードする。
// dataが欠落している、または形状が契約と一致しない場合はUpstreamErrorを返す。
func decodeData(env *envelope, endpoint string, v any) error {
	if len(env.Data) == 0 {
		return model.NewUpstreamError(fmt.Sprintf("%s: レスポンスにdataがありません", endpoint))
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return model.NewUpstreamError(fmt.Sprintf("%s: レスポンス形状が契約と一致しません: %s", endpoint, err.Error()))
	}
	return nil
}
