package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/vestgate/internal/middleware"
	"github.com/hitoshi/vestgate/internal/model"
)

// WithdrawalClientInterface は出金プロキシが必要とするアップストリームクライアント。
type WithdrawalClientInterface interface {
	ListWithdrawals(ctx context.Context, sess *model.Session) ([]*model.Withdrawal, error)
	CreateWithdrawal(ctx context.Context, sess *model.Session, amount float64, method, destination string) (*model.Withdrawal, error)
}

// WithdrawalHandler は出金関連のHTTPハンドラー。
// 残高確認と手数料計算はアップストリームに委譲し、ここでは中継のみ行う。
type WithdrawalHandler struct {
	client WithdrawalClientInterface
}

// NewWithdrawalHandler はWithdrawalHandlerを生成する。
func NewWithdrawalHandler(client WithdrawalClientInterface) *WithdrawalHandler {
	return &WithdrawalHandler{client: client}
}

type createWithdrawalRequest struct {
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`
	Destination string  `json:"destination"`
}

type withdrawalListResponse struct {
	Withdrawals []*model.Withdrawal `json:"withdrawals"`
}

// List は出金履歴をアップストリームから取得して返す。
// GET /api/withdrawals
func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	withdrawals, err := h.client.ListWithdrawals(r.Context(), sess)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}
	if withdrawals == nil {
		withdrawals = []*model.Withdrawal{}
	}

	writeJSON(w, http.StatusOK, withdrawalListResponse{Withdrawals: withdrawals})
}

// Create は出金リクエストをアップストリームに中継する。
// POST /api/withdrawals
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	var req createWithdrawalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Amount <= 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("amount", "金額は0より大きい値を指定してください。"))
		return
	}
	if req.Method == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("method", "出金方法を指定してください。"))
		return
	}
	if req.Destination == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("destination", "出金先を指定してください。"))
		return
	}

	withdrawal, err := h.client.CreateWithdrawal(r.Context(), sess, req.Amount, req.Method, req.Destination)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, withdrawal)
}
