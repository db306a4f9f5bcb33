package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/vestgate/internal/middleware"
	"github.com/hitoshi/vestgate/internal/model"
)

// DepositClientInterface は入金プロキシが必要とするアップストリームクライアント。
type DepositClientInterface interface {
	ListDeposits(ctx context.Context, sess *model.Session) ([]*model.Deposit, error)
	CreateDeposit(ctx context.Context, sess *model.Session, amount float64, method string) (*model.Deposit, error)
}

// DepositHandler は入金関連のHTTPハンドラー。
// 残高計算や入金状態の管理はアップストリームに委譲し、ここでは中継のみ行う。
type DepositHandler struct {
	client DepositClientInterface
}

// NewDepositHandler はDepositHandlerを生成する。
func NewDepositHandler(client DepositClientInterface) *DepositHandler {
	return &DepositHandler{client: client}
}

type createDepositRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

type depositListResponse struct {
	Deposits []*model.Deposit `json:"deposits"`
}

// List は入金履歴をアップストリームから取得して返す。
// GET /api/deposits
func (h *DepositHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	deposits, err := h.client.ListDeposits(r.Context(), sess)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}
	if deposits == nil {
		deposits = []*model.Deposit{}
	}

	writeJSON(w, http.StatusOK, depositListResponse{Deposits: deposits})
}

// Create は入金リクエストをアップストリームに中継する。
// POST /api/deposits
func (h *DepositHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	var req createDepositRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Amount <= 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("amount", "金額は0より大きい値を指定してください。"))
		return
	}
	if req.Method == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("method", "入金方法を指定してください。"))
		return
	}

	deposit, err := h.client.CreateDeposit(r.Context(), sess, req.Amount, req.Method)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, deposit)
}
