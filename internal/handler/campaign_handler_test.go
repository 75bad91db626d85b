package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/crowdfund-program/internal/address"
	"github.com/unclebandit/crowdfund-program/internal/handler"
	"github.com/unclebandit/crowdfund-program/internal/instruction"
	"github.com/unclebandit/crowdfund-program/internal/ledger"
	"github.com/unclebandit/crowdfund-program/internal/model"
	"github.com/unclebandit/crowdfund-program/internal/service"
)

var (
	program = model.Address{0x11}
	creator = model.Address{0x22}
)

func newRouter(t *testing.T) (http.Handler, *service.CampaignService) {
	t.Helper()
	l := ledger.NewMemoryLedger(ledger.DefaultRent())
	l.Fund(creator, 1_000_000_000)
	svc := &service.CampaignService{ProgramID: program, Deriver: address.ProgramDeriver{}, Ledger: l}

	r := chi.NewRouter()
	handler.NewCampaignHandler(svc, nil).Routes(r)
	return r, svc
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetCampaign(t *testing.T) {
	router, svc := newRouter(t)
	target, bump, err := svc.CampaignAddress(creator)
	if err != nil {
		t.Fatalf("CampaignAddress: %v", err)
	}

	w := get(router, "/campaigns/"+creator.String())
	if w.Code != http.StatusNotFound {
		t.Fatalf("before create: expected 404, got %d", w.Code)
	}

	err = svc.Process(context.Background(), []model.AccountMeta{
		{Address: creator, IsSigner: true},
		{Address: target, IsWritable: true},
		{Address: model.SystemProgramID},
	}, instruction.EncodeCreateCampaign(model.CreateCampaignPayload{Name: "Save the turtles", GoalAmount: 1_000_000, Deadline: 1_700_000_000}))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	w = get(router, "/campaigns/"+creator.String())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res struct {
		Address     model.Address `json:"address"`
		Initialized bool          `json:"initialized"`
		Name        string        `json:"name"`
		Creator     model.Address `json:"creator"`
		GoalAmount  uint64        `json:"goal_amount"`
		Deadline    int64         `json:"deadline"`
		Bump        uint8         `json:"bump"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Address != target || res.Creator != creator || res.Bump != bump {
		t.Errorf("unexpected identity fields: %+v", res)
	}
	if !res.Initialized || res.Name != "Save the turtles" || res.GoalAmount != 1_000_000 || res.Deadline != 1_700_000_000 {
		t.Errorf("unexpected record fields: %+v", res)
	}
}

func TestGetCampaignAddress(t *testing.T) {
	router, svc := newRouter(t)
	want, wantBump, err := svc.CampaignAddress(creator)
	if err != nil {
		t.Fatalf("CampaignAddress: %v", err)
	}

	w := get(router, "/campaigns/"+creator.String()+"/address")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res struct {
		Address model.Address `json:"address"`
		Bump    uint8         `json:"bump"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Address != want || res.Bump != wantBump {
		t.Errorf("got %s/%d, want %s/%d", res.Address, res.Bump, want, wantBump)
	}
}

func TestInvalidCreator(t *testing.T) {
	router, _ := newRouter(t)
	for _, path := range []string{"/campaigns/xyz", "/campaigns/abcd/address"} {
		if w := get(router, path); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}
