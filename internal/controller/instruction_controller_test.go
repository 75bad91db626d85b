package controller_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/unclebandit/crowdfund-program/internal/address"
	"github.com/unclebandit/crowdfund-program/internal/controller"
	appErrors "github.com/unclebandit/crowdfund-program/internal/errors"
	"github.com/unclebandit/crowdfund-program/internal/instruction"
	"github.com/unclebandit/crowdfund-program/internal/ledger"
	"github.com/unclebandit/crowdfund-program/internal/model"
	"github.com/unclebandit/crowdfund-program/internal/service"
)

// --- Mock Processor ---

type MockProcessor struct {
	err      error
	accounts []model.AccountMeta
	data     []byte
}

func (m *MockProcessor) Process(ctx context.Context, accounts []model.AccountMeta, data []byte) error {
	m.accounts = accounts
	m.data = data
	return m.err
}

func submit(t *testing.T, ctrl *controller.InstructionController, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/instructions", bytes.NewReader(b))
	w := httptest.NewRecorder()
	ctrl.Submit(w, req)
	return w.Result()
}

func TestSubmitPassesInstruction(t *testing.T) {
	proc := &MockProcessor{}
	ctrl := &controller.InstructionController{Processor: proc}

	accounts := []model.AccountMeta{{Address: model.Address{1}, IsSigner: true}}
	resp := submit(t, ctrl, controller.SubmitRequest{
		Accounts: accounts,
		Data:     base64.StdEncoding.EncodeToString([]byte{0, 1, 2}),
	})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !bytes.Equal(proc.data, []byte{0, 1, 2}) {
		t.Errorf("processor got data %v", proc.data)
	}
	if len(proc.accounts) != 1 || proc.accounts[0] != accounts[0] {
		t.Errorf("processor got accounts %+v", proc.accounts)
	}
}

func TestSubmitRejectsBadBodies(t *testing.T) {
	ctrl := &controller.InstructionController{Processor: &MockProcessor{}}

	req := httptest.NewRequest("POST", "/instructions", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	ctrl.Submit(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON: expected 400, got %d", w.Code)
	}

	resp := submit(t, ctrl, map[string]any{"data": "***"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid base64: expected 400, got %d", resp.StatusCode)
	}
}

func TestSubmitMapsErrorKinds(t *testing.T) {
	cases := []struct {
		kind   appErrors.Kind
		status int
	}{
		{appErrors.MalformedInstruction, http.StatusBadRequest},
		{appErrors.UnsupportedOpcode, http.StatusBadRequest},
		{appErrors.NameTooLong, http.StatusBadRequest},
		{appErrors.MissingAuthorization, http.StatusUnauthorized},
		{appErrors.AddressMismatch, http.StatusUnprocessableEntity},
		{appErrors.AllocationFailed, http.StatusConflict},
		{appErrors.AlreadyInitialized, http.StatusConflict},
		{appErrors.CorruptRecord, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		err := appErrors.New(tc.kind, "boom")
		if tc.kind == appErrors.AllocationFailed {
			err = appErrors.Wrap(tc.kind, ledger.ErrAccountInUse, "boom")
		}
		ctrl := &controller.InstructionController{Processor: &MockProcessor{err: err}}
		resp := submit(t, ctrl, controller.SubmitRequest{Data: ""})
		if resp.StatusCode != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.kind, tc.status, resp.StatusCode)
		}

		var res map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if res["kind"] != tc.kind.String() {
			t.Errorf("expected kind %s, got %q", tc.kind, res["kind"])
		}
	}
}

func TestSubmitCreatesCampaign(t *testing.T) {
	program := model.Address{0xAA}
	creator := model.Address{0xBB}
	l := ledger.NewMemoryLedger(ledger.DefaultRent())
	l.Fund(creator, 1_000_000_000)

	svc := &service.CampaignService{ProgramID: program, Deriver: address.ProgramDeriver{}, Ledger: l}
	ctrl := &controller.InstructionController{Processor: svc}

	target, _, err := svc.CampaignAddress(creator)
	if err != nil {
		t.Fatalf("CampaignAddress: %v", err)
	}
	body := controller.SubmitRequest{
		Accounts: []model.AccountMeta{
			{Address: creator, IsSigner: true},
			{Address: target, IsWritable: true},
			{Address: model.SystemProgramID},
		},
		Data: base64.StdEncoding.EncodeToString(instruction.EncodeCreateCampaign(model.CreateCampaignPayload{
			Name: "Save the turtles", GoalAmount: 1_000_000, Deadline: 1_700_000_000,
		})),
	}

	if resp := submit(t, ctrl, body); resp.StatusCode != http.StatusOK {
		t.Fatalf("first create: expected 200, got %d", resp.StatusCode)
	}
	if resp := submit(t, ctrl, body); resp.StatusCode != http.StatusConflict {
		t.Fatalf("second create: expected 409, got %d", resp.StatusCode)
	}

	body.Accounts[0].IsSigner = false
	if resp := submit(t, ctrl, body); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unsigned create: expected 401, got %d", resp.StatusCode)
	}
}

func TestSubmitUnavailableLedgerIsRetryable(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"cancelled allocation", appErrors.Wrap(appErrors.AllocationFailed, fmt.Errorf("inserting account: %w", context.Canceled), "allocating"), http.StatusServiceUnavailable},
		{"lost connection", appErrors.Wrap(appErrors.AllocationFailed, errors.New("driver: bad connection"), "allocating"), http.StatusServiceUnavailable},
		{"insufficient funds", appErrors.Wrap(appErrors.AllocationFailed, ledger.ErrInsufficientFunds, "allocating"), http.StatusConflict},
		{"plain infrastructure error", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := controller.StatusForError(tc.err); got != tc.status {
			t.Errorf("%s: StatusForError = %d, want %d", tc.name, got, tc.status)
		}

		ctrl := &controller.InstructionController{Processor: &MockProcessor{err: tc.err}}
		resp := submit(t, ctrl, controller.SubmitRequest{Data: ""})
		if resp.StatusCode != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.status, resp.StatusCode)
		}
	}
}

func TestSubmitRejectsOversizedBody(t *testing.T) {
	proc := &MockProcessor{}
	ctrl := &controller.InstructionController{Processor: proc}

	huge := strings.Repeat("A", controller.MaxBodyBytes+1)
	resp := submit(t, ctrl, controller.SubmitRequest{Data: huge})
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
	if proc.data != nil {
		t.Errorf("processor should not run, got %d bytes", len(proc.data))
	}
}
