package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/vestgate/internal/middleware"
	"github.com/hitoshi/vestgate/internal/mission"
	"github.com/hitoshi/vestgate/internal/model"
)

// MissionServiceInterface はミッションハンドラーが必要とするサービスインターフェース。
type MissionServiceInterface interface {
	StartTask(ctx context.Context, userID, kind string) (*model.Task, error)
	CompleteTask(ctx context.Context, userID, kind string) (*model.Task, bool, error)
	Task(ctx context.Context, userID, kind string) (*model.Task, error)
	ListTasks(ctx context.Context, userID string) ([]*model.Task, error)
	Points(ctx context.Context, userID string) (*model.Ledger, error)
	SurveyProgress(userID string) *mission.SurveyProgress
	SubmitSurveyAnswer(ctx context.Context, userID, answer string) (*mission.SurveyProgress, error)
	ResetSurvey(userID string)
}

// ArticleServiceInterface は記事ミッションのコンテンツ取得インターフェース。
type ArticleServiceInterface interface {
	Latest(ctx context.Context) (*model.Article, error)
}

// MissionHandler はミッション関連のHTTPハンドラー。
type MissionHandler struct {
	service  MissionServiceInterface
	articles ArticleServiceInterface
}

// NewMissionHandler はMissionHandlerを生成する。
func NewMissionHandler(service MissionServiceInterface, articles ArticleServiceInterface) *MissionHandler {
	return &MissionHandler{
		service:  service,
		articles: articles,
	}
}

// --- リクエスト/レスポンス型 ---

// taskResponse はタスク状態のレスポンス。
// requiredSecondsはUI表示用のメタデータであり、状態遷移の条件ではない。
type taskResponse struct {
	Kind            string `json:"kind"`
	Completed       bool   `json:"completed"`
	StartedAt       string `json:"startedAt,omitempty"`
	DurationSeconds int    `json:"durationSeconds"`
	CompletedAt     string `json:"completedAt,omitempty"`
	RewardPoints    int    `json:"rewardPoints"`
	RequiredSeconds int    `json:"requiredSeconds,omitempty"`
}

func toTaskResponse(task *model.Task) taskResponse {
	resp := taskResponse{
		Kind:            string(task.Kind),
		Completed:       task.Completed,
		DurationSeconds: task.DurationSeconds,
		RewardPoints:    model.RewardPoints(task.Kind),
		RequiredSeconds: model.RequiredSeconds(task.Kind),
	}
	if task.StartedAt != nil {
		resp.StartedAt = task.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if task.CompletedAt != nil {
		resp.CompletedAt = task.CompletedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

type missionListResponse struct {
	Tasks  []taskResponse `json:"tasks"`
	Points int            `json:"points"`
}

type completeResponse struct {
	Task          taskResponse `json:"task"`
	Awarded       bool         `json:"awarded"`
	AwardedPoints int          `json:"awardedPoints"`
}

type pointsResponse struct {
	Points int `json:"points"`
}

type surveyAnswerRequest struct {
	Answer string `json:"answer"`
}

type articleResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Content     string `json:"content"` // サニタイズ済みHTML
	Summary     string `json:"summary"`
	PublishedAt string `json:"publishedAt"`
}

// List は全ミッションタスクの状態とポイント残高を返す。
// GET /api/missions
func (h *MissionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewSessionExpiredError())
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), userID)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	ledger, err := h.service.Points(r.Context(), userID)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	resp := missionListResponse{
		Tasks:  make([]taskResponse, 0, len(tasks)),
		Points: ledger.Points,
	}
	for _, task := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(task))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Start はタスクを開始状態にする。
// POST /api/missions/{kind}/start
func (h *MissionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewSessionExpiredError())
		return
	}

	task, err := h.service.StartTask(r.Context(), userID, chi.URLParam(r, "kind"))
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// Complete はタスクを完了状態にし、報酬の付与結果を返す。
// POST /api/missions/{kind}/complete
func (h *MissionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewSessionExpiredError())
		return
	}

	task, awarded, err := h.service.CompleteTask(r.Context(), userID, chi.URLParam(r, "kind"))
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	resp := completeResponse{
		Task:    toTaskResponse(task),
		Awarded: awarded,
	}
	if awarded {
		resp.AwardedPoints = model.RewardPoints(task.Kind)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Points は現在のポイント残高を返す。
// GET /api/missions/points
func (h *MissionHandler) Points(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewSessionExpiredError())
		return
	}

	ledger, err := h.service.Points(r.Context(), userID)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pointsResponse{Points: ledger.Points})
}

// Elapsed は開始済みタスクの経過秒数をServer-Sent Eventsで配信する。
// クライアントが切断するとタイマーは停止する。
// GET /api/missions/{kind}/elapsed
func (h *MissionHandler) Elapsed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewSessionExpiredError())
		return
	}

	task, err := h.service.Task(r.Context(), userID, chi.URLParam(r, "kind"))
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}
	if task.StartedAt == nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "TASK_NOT_STARTED",
			Message:  "タスクが開始されていません。",
			Category: "validation",
			Action:   "タスクを開始してから経過時間を取得してください。",
		})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for elapsed := range mission.ElapsedSeconds(r.Context(), *task.StartedAt) {
		fmt.Fprintf(w, "data: %d\n\n", elapsed)
		flusher.Flush()
	}
}

// ArticleContent は記事ミッションで表示する最新のキャッシュ記事を返す。
// GET /api/missions/article/content
func (h *MissionHandler) ArticleContent(w http.ResponseWriter, r *http.Request) {
	a, err := h.articles.Latest(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, articleResponse{
		ID:          a.ID,
		Title:       a.Title,
		Link:        a.Link,
		Content:     a.Content,
		Summary:     a.Summary,
		PublishedAt: a.PublishedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Survey は現在のアンケート設問と進行度を返す。
// GET /api/missions/survey
func (h *MissionHandler) Survey(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewSessionExpiredError())
		return
	}

	writeJSON(w, http.StatusOK, h.service.SurveyProgress(userID))
}

// SurveyAnswer は現在の設問への回答を確定し、次の設問へ進める。
// POST /api/missions/survey/answer
func (h *MissionHandler) SurveyAnswer(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewSessionExpiredError())
		return
	}

	var req surveyAnswerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	progress, err := h.service.SubmitSurveyAnswer(r.Context(), userID, req.Answer)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// SurveyReset は進行中のアンケート回答を破棄する。
// DELETE /api/missions/survey
func (h *MissionHandler) SurveyReset(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewSessionExpiredError())
		return
	}

	h.service.ResetSurvey(userID)
	w.WriteHeader(http.StatusNoContent)
}
