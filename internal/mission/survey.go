package mission

import (
	"context"

	"github.com/hitoshi/vestgate/internal/model"
)

// アンケートタスクの設問シーケンサー。
// 回答はユーザープロフィールには保存されず、進行中のメモリ上にのみ存在する。

var surveyQuestions = []model.SurveyQuestion{
	{
		ID:       "experience",
		Question: "投資・トレードの経験はどのくらいありますか？",
		Options:  []string{"未経験", "1年未満", "1〜3年", "3年以上"},
	},
	{
		ID:       "goal",
		Question: "投資の主な目的は何ですか？",
		Options:  []string{"資産形成", "収入の補完", "短期的な利益", "学習目的"},
	},
	{
		ID:       "hours",
		Question: "週にどのくらいの時間を投資に使えますか？",
		Options:  []string{"1時間未満", "1〜5時間", "5〜10時間", "10時間以上"},
	},
}

// surveyState はユーザーごとの進行状態。回答確定後に次の設問へ進む。
type surveyState struct {
	index   int
	answers []string
}

// SurveyProgress は現在の設問と進行度を表す。
type SurveyProgress struct {
	Question *model.SurveyQuestion `json:"question,omitempty"`
	Index    int                   `json:"index"`
	Total    int                   `json:"total"`
	Done     bool                  `json:"done"`
}

// SurveyProgress は指定ユーザーの現在の設問を返す。
// 進行状態がなければ最初の設問から始まる。
func (s *Service) SurveyProgress(userID string) *SurveyProgress {
	s.surveyMu.Lock()
	defer s.surveyMu.Unlock()

	state, ok := s.surveyStates[userID]
	if !ok {
		state = &surveyState{}
		s.surveyStates[userID] = state
	}

	if state.index >= len(surveyQuestions) {
		return &SurveyProgress{Index: state.index, Total: len(surveyQuestions), Done: true}
	}

	q := surveyQuestions[state.index]
	return &SurveyProgress{Question: &q, Index: state.index, Total: len(surveyQuestions)}
}

// SubmitSurveyAnswer は現在の設問への回答を確定し、次の設問へ進める。
// 未回答のまま進めることはできない。
// 最後の設問への回答確定でアンケートタスクが完了し、報酬が付与される。
// 回答内容はタスク完了後に破棄される。
func (s *Service) SubmitSurveyAnswer(ctx context.Context, userID, answer string) (*SurveyProgress, error) {
	s.surveyMu.Lock()

	state, ok := s.surveyStates[userID]
	if !ok {
		state = &surveyState{}
		s.surveyStates[userID] = state
	}

	if state.index >= len(surveyQuestions) {
		// すでに全問回答済み
		progress := &SurveyProgress{Index: state.index, Total: len(surveyQuestions), Done: true}
		s.surveyMu.Unlock()
		return progress, nil
	}

	if answer == "" {
		index := state.index
		s.surveyMu.Unlock()
		return nil, model.NewSurveyAnswerMissingError(index)
	}

	state.answers = append(state.answers, answer)
	state.index++
	done := state.index >= len(surveyQuestions)
	if done {
		// 回答はプロフィールに保存しない
		delete(s.surveyStates, userID)
	}
	s.surveyMu.Unlock()

	if done {
		if _, _, err := s.CompleteTask(ctx, userID, string(model.TaskSurvey)); err != nil {
			return nil, err
		}
		return &SurveyProgress{Index: len(surveyQuestions), Total: len(surveyQuestions), Done: true}, nil
	}

	return s.SurveyProgress(userID), nil
}

// ResetSurvey は進行中の回答を破棄する。ビューを閉じた際に呼ばれる。
// 完了済みタスクの状態には影響しない。
func (s *Service) ResetSurvey(userID string) {
	s.surveyMu.Lock()
	defer s.surveyMu.Unlock()
	delete(s.surveyStates, userID)
}
