package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/vestgate/internal/middleware"
	"github.com/hitoshi/vestgate/internal/model"
)

// mockDepositClient はDepositClientInterfaceのモック実装。
type mockDepositClient struct {
	listDepositsFunc  func(ctx context.Context, sess *model.Session) ([]*model.Deposit, error)
	createDepositFunc func(ctx context.Context, sess *model.Session, amount float64, method string) (*model.Deposit, error)
}

var _ DepositClientInterface = (*mockDepositClient)(nil)

func (m *mockDepositClient) ListDeposits(ctx context.Context, sess *model.Session) ([]*model.Deposit, error) {
	return m.listDepositsFunc(ctx, sess)
}

func (m *mockDepositClient) CreateDeposit(ctx context.Context, sess *model.Session, amount float64, method string) (*model.Deposit, error) {
	return m.createDepositFunc(ctx, sess, amount, method)
}

func TestDepositHandler_List(t *testing.T) {
	client := &mockDepositClient{
		listDepositsFunc: func(ctx context.Context, sess *model.Session) ([]*model.Deposit, error) {
			if sess.ID != "sess-1" {
				t.Errorf("session ID = %s", sess.ID)
			}
			return []*model.Deposit{
				{ID: "dep-1", Amount: 100, Currency: "USD", Status: "confirmed"},
			}, nil
		},
	}
	h := NewDepositHandler(client)

	rec := httptest.NewRecorder()
	h.List(rec, sessionRequest(http.MethodGet, "/api/deposits", "", missionSession()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp depositListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Deposits) != 1 || resp.Deposits[0].ID != "dep-1" {
		t.Errorf("deposits = %+v", resp.Deposits)
	}
}

// アップストリームがnilを返しても空配列として返す。
func TestDepositHandler_List_Empty(t *testing.T) {
	client := &mockDepositClient{
		listDepositsFunc: func(ctx context.Context, sess *model.Session) ([]*model.Deposit, error) {
			return nil, nil
		},
	}
	h := NewDepositHandler(client)

	rec := httptest.NewRecorder()
	h.List(rec, sessionRequest(http.MethodGet, "/api/deposits", "", missionSession()))

	var resp depositListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Deposits == nil {
		t.Error("deposits should be an empty slice, not null")
	}
}

func TestDepositHandler_Create(t *testing.T) {
	client := &mockDepositClient{
		createDepositFunc: func(ctx context.Context, sess *model.Session, amount float64, method string) (*model.Deposit, error) {
			if amount != 250.5 || method != "bank_transfer" {
				t.Errorf("amount = %v, method = %s", amount, method)
			}
			return &model.Deposit{ID: "dep-2", Amount: amount, Method: method, Status: "pending"}, nil
		},
	}
	h := NewDepositHandler(client)

	rec := httptest.NewRecorder()
	h.Create(rec, sessionRequest(http.MethodPost, "/api/deposits", `{"amount":250.5,"method":"bank_transfer"}`, missionSession()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

func TestDepositHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"金額ゼロ", `{"amount":0,"method":"bank_transfer"}`},
		{"金額マイナス", `{"amount":-10,"method":"bank_transfer"}`},
		{"入金方法なし", `{"amount":100}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			client := &mockDepositClient{
				createDepositFunc: func(ctx context.Context, sess *model.Session, amount float64, method string) (*model.Deposit, error) {
					called = true
					return nil, nil
				},
			}
			h := NewDepositHandler(client)

			rec := httptest.NewRecorder()
			h.Create(rec, sessionRequest(http.MethodPost, "/api/deposits", tt.body, missionSession()))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if called {
				t.Error("upstream should not be called on validation failure")
			}
		})
	}
}

func TestDepositHandler_Create_UpstreamError(t *testing.T) {
	client := &mockDepositClient{
		createDepositFunc: func(ctx context.Context, sess *model.Session, amount float64, method string) (*model.Deposit, error) {
			return nil, model.NewUpstreamUnreachableError("connection refused")
		},
	}
	h := NewDepositHandler(client)

	rec := httptest.NewRecorder()
	h.Create(rec, sessionRequest(http.MethodPost, "/api/deposits", `{"amount":100,"method":"card"}`, missionSession()))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}

	var errBody middleware.ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errBody.Category != "network" {
		t.Errorf("category = %s, want network", errBody.Category)
	}
}
