package model

import "time"

// TaskKind はデイリーミッションのタスク種別を表す。
type TaskKind string

const (
	// TaskVideo は動画視聴タスク。
	TaskVideo TaskKind = "video"
	// TaskArticle は記事閲読タスク。
	TaskArticle TaskKind = "article"
	// TaskCheckin はデイリーチェックインタスク。
	TaskCheckin TaskKind = "checkin"
	// TaskSurvey はアンケートタスク。
	TaskSurvey TaskKind = "survey"
)

// AllTaskKinds は全タスク種別を固定順で返す。
func AllTaskKinds() []TaskKind {
	return []TaskKind{TaskVideo, TaskArticle, TaskCheckin, TaskSurvey}
}

// ParseTaskKind は文字列をTaskKindに変換する。未知の種別はfalseを返す。
func ParseTaskKind(s string) (TaskKind, bool) {
	switch TaskKind(s) {
	case TaskVideo, TaskArticle, TaskCheckin, TaskSurvey:
		return TaskKind(s), true
	}
	return "", false
}

// taskRewards は各タスク種別の固定報酬ポイント。
var taskRewards = map[TaskKind]int{
	TaskVideo:   50,
	TaskArticle: 30,
	TaskCheckin: 20,
	TaskSurvey:  50,
}

// RewardPoints はタスク種別の固定報酬ポイントを返す。未知の種別は0を返す。
func RewardPoints(kind TaskKind) int {
	return taskRewards[kind]
}

// taskRequiredSeconds は完了前に推奨される最低滞在秒数（UI表示用メタデータ）。
// 強制はクライアント側の責務であり、状態機械は強制しない。
var taskRequiredSeconds = map[TaskKind]int{
	TaskVideo:   30,
	TaskArticle: 60,
}

// RequiredSeconds はタスク種別の推奨最低滞在秒数を返す。指定のない種別は0を返す。
func RequiredSeconds(kind TaskKind) int {
	return taskRequiredSeconds[kind]
}

// Task は1タスクのライフサイクル状態を表す。
// completed はセッションごとにfalse→trueへ高々1回だけ遷移する。
// DurationSeconds は最初の完了時に一度だけ書き込まれ、以後再計算されない。
type Task struct {
	UserID          string
	Kind            TaskKind
	Completed       bool
	StartedAt       *time.Time // タスクを開いた時点。未開始ならnil
	DurationSeconds int        // floor(完了時刻 - StartedAt)。開始なしで完了した場合は0
	CompletedAt     *time.Time
}

// Ledger はユーザーごとの獲得ポイント台帳を表す。
// ポイントは明示的な付与操作でのみ単調増加し、このスコープでは減算されない。
type Ledger struct {
	UserID    string
	Points    int
	UpdatedAt time.Time
}

// SurveyQuestion はアンケートの1設問を表す。
type SurveyQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}
