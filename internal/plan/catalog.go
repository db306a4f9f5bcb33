// Package plan は投資プランの静的カタログを提供する。
// プランの申込や運用はアップストリームの責務であり、ゲートウェイは
// 表示用のカタログのみを保持する。
package plan

import "github.com/hitoshi/vestgate/internal/model"

var catalog = []model.Plan{
	{
		ID:            "starter",
		Name:          "Starter",
		Tier:          "starter",
		MinimumAmount: 100,
		DailyROI:      0.8,
		DurationDays:  30,
	},
	{
		ID:            "silver",
		Name:          "Silver",
		Tier:          "silver",
		MinimumAmount: 1000,
		DailyROI:      1.2,
		DurationDays:  60,
	},
	{
		ID:            "gold",
		Name:          "Gold",
		Tier:          "gold",
		MinimumAmount: 5000,
		DailyROI:      1.8,
		DurationDays:  90,
	},
	{
		ID:            "platinum",
		Name:          "Platinum",
		Tier:          "platinum",
		MinimumAmount: 25000,
		DailyROI:      2.5,
		DurationDays:  180,
	},
}

// Service は投資プランカタログへの読み取りアクセスを提供する。
type Service struct{}

// NewService はServiceを生成する。
func NewService() *Service {
	return &Service{}
}

// List は全プランを最低投資額の昇順で返す。
// 返り値はコピーであり、呼び出し側の変更はカタログに影響しない。
func (s *Service) List() []model.Plan {
	plans := make([]model.Plan, len(catalog))
	copy(plans, catalog)
	return plans
}

// Find は指定IDのプランを返す。見つからない場合はfalseを返す。
func (s *Service) Find(id string) (*model.Plan, bool) {
	for _, p := range catalog {
		if p.ID == id {
			found := p
			return &found, true
		}
	}
	return nil, false
}
