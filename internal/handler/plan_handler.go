package handler

import (
	"net/http"

	"github.com/hitoshi/vestgate/internal/model"
)

// PlanServiceInterface は投資プランカタログの参照インターフェース。
type PlanServiceInterface interface {
	List() []model.Plan
}

// PlanHandler は投資プランカタログのHTTPハンドラー。
type PlanHandler struct {
	service PlanServiceInterface
}

// NewPlanHandler はPlanHandlerを生成する。
func NewPlanHandler(service PlanServiceInterface) *PlanHandler {
	return &PlanHandler{service: service}
}

type planListResponse struct {
	Plans []model.Plan `json:"plans"`
}

// List は全投資プランを返す。カタログは静的でユーザーに依存しない。
// GET /api/plans
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, planListResponse{Plans: h.service.List()})
}
