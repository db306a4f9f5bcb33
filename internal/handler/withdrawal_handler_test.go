package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/vestgate/internal/model"
)

// mockWithdrawalClient はWithdrawalClientInterfaceのモック実装。
type mockWithdrawalClient struct {
	listWithdrawalsFunc  func(ctx context.Context, sess *model.Session) ([]*model.Withdrawal, error)
	createWithdrawalFunc func(ctx context.Context, sess *model.Session, amount float64, method, destination string) (*model.Withdrawal, error)
}

var _ WithdrawalClientInterface = (*mockWithdrawalClient)(nil)

func (m *mockWithdrawalClient) ListWithdrawals(ctx context.Context, sess *model.Session) ([]*model.Withdrawal, error) {
	return m.listWithdrawalsFunc(ctx, sess)
}

func (m *mockWithdrawalClient) CreateWithdrawal(ctx context.Context, sess *model.Session, amount float64, method, destination string) (*model.Withdrawal, error) {
	return m.createWithdrawalFunc(ctx, sess, amount, method, destination)
}

func TestWithdrawalHandler_List(t *testing.T) {
	client := &mockWithdrawalClient{
		listWithdrawalsFunc: func(ctx context.Context, sess *model.Session) ([]*model.Withdrawal, error) {
			if sess.ID != "sess-1" {
				t.Errorf("session ID = %s", sess.ID)
			}
			return []*model.Withdrawal{
				{ID: "wd-1", Amount: 100, Fee: 5, NetAmount: 95, Method: "crypto", Status: "pending"},
			}, nil
		},
	}
	h := NewWithdrawalHandler(client)

	rec := httptest.NewRecorder()
	h.List(rec, sessionRequest(http.MethodGet, "/api/withdrawals", "", missionSession()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp withdrawalListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Withdrawals) != 1 || resp.Withdrawals[0].ID != "wd-1" {
		t.Errorf("withdrawals = %+v", resp.Withdrawals)
	}
}

// アップストリームがnilを返しても空配列として返す。
func TestWithdrawalHandler_List_Empty(t *testing.T) {
	client := &mockWithdrawalClient{
		listWithdrawalsFunc: func(ctx context.Context, sess *model.Session) ([]*model.Withdrawal, error) {
			return nil, nil
		},
	}
	h := NewWithdrawalHandler(client)

	rec := httptest.NewRecorder()
	h.List(rec, sessionRequest(http.MethodGet, "/api/withdrawals", "", missionSession()))

	var resp withdrawalListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Withdrawals == nil {
		t.Error("withdrawals should be an empty slice, not null")
	}
}

func TestWithdrawalHandler_Create(t *testing.T) {
	client := &mockWithdrawalClient{
		createWithdrawalFunc: func(ctx context.Context, sess *model.Session, amount float64, method, destination string) (*model.Withdrawal, error) {
			if amount != 80 || method != "crypto" || destination != "0xabc" {
				t.Errorf("amount = %v, method = %s, destination = %s", amount, method, destination)
			}
			return &model.Withdrawal{ID: "wd-2", Amount: amount, Fee: 4, NetAmount: 76, Method: method, Destination: destination, Status: "pending"}, nil
		},
	}
	h := NewWithdrawalHandler(client)

	rec := httptest.NewRecorder()
	h.Create(rec, sessionRequest(http.MethodPost, "/api/withdrawals", `{"amount":80,"method":"crypto","destination":"0xabc"}`, missionSession()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp model.Withdrawal
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.NetAmount != 76 {
		t.Errorf("netAmount = %v, want 76 (アップストリームの計算値をそのまま返す)", resp.NetAmount)
	}
}

func TestWithdrawalHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"金額ゼロ", `{"amount":0,"method":"crypto","destination":"0xabc"}`},
		{"金額マイナス", `{"amount":-10,"method":"crypto","destination":"0xabc"}`},
		{"出金方法なし", `{"amount":100,"destination":"0xabc"}`},
		{"出金先なし", `{"amount":100,"method":"crypto"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			client := &mockWithdrawalClient{
				createWithdrawalFunc: func(ctx context.Context, sess *model.Session, amount float64, method, destination string) (*model.Withdrawal, error) {
					called = true
					return nil, nil
				},
			}
			h := NewWithdrawalHandler(client)

			rec := httptest.NewRecorder()
			h.Create(rec, sessionRequest(http.MethodPost, "/api/withdrawals", tt.body, missionSession()))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if called {
				t.Error("upstream should not be called on validation failure")
			}
		})
	}
}

func TestWithdrawalHandler_Create_UpstreamError(t *testing.T) {
	client := &mockWithdrawalClient{
		createWithdrawalFunc: func(ctx context.Context, sess *model.Session, amount float64, method, destination string) (*model.Withdrawal, error) {
			return nil, model.NewUpstreamError("Insufficient balance")
		},
	}
	h := NewWithdrawalHandler(client)

	rec := httptest.NewRecorder()
	h.Create(rec, sessionRequest(http.MethodPost, "/api/withdrawals", `{"amount":9999,"method":"crypto","destination":"0xabc"}`, missionSession()))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}
