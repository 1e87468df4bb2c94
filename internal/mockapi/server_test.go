package mockapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/spendsync/internal/logging"
	"github.com/vango-dev/spendsync/pkg/api"
	"github.com/vango-dev/spendsync/pkg/keys"
	"github.com/vango-dev/spendsync/pkg/transport"
	"github.com/vango-dev/spendsync/pkg/update"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := New(append([]Option{WithLogger(logging.Discard())}, opts...)...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestHTTPCommand(t *testing.T) {
	s, ts := newTestServer(t, WithFailures(api.CommandValidateBankAccountWithTransactions))

	tr, err := transport.NewHTTP(ts.URL, transport.WithRetry(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	resp, err := tr.Write(ctx, api.Request{ID: "r1", Command: api.CommandDeletePaymentBankAccount, Params: map[string]any{"bankAccountID": 5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.OK() {
		t.Errorf("expected success, got %+v", resp)
	}

	resp, err = tr.Write(ctx, api.Request{ID: "r2", Command: api.CommandValidateBankAccountWithTransactions})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.JSONCode != FailureCode {
		t.Errorf("expected %d, got %d", FailureCode, resp.JSONCode)
	}

	s.SetFailing(api.CommandValidateBankAccountWithTransactions, false)
	resp, _ = tr.Write(ctx, api.Request{ID: "r3", Command: api.CommandValidateBankAccountWithTransactions})
	if !resp.OK() {
		t.Errorf("expected success after clearing failure, got %d", resp.JSONCode)
	}

	calls := s.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(calls))
	}
	if calls[0].ID != "r1" || calls[0].Command != api.CommandDeletePaymentBankAccount {
		t.Errorf("unexpected first call %+v", calls[0])
	}
	if calls[0].Params["bankAccountID"] != float64(5) {
		t.Errorf("expected params to round trip, got %v", calls[0].Params)
	}
}

func TestAddPersonalBankAccountReturnsUpdates(t *testing.T) {
	_, ts := newTestServer(t)
	tr, _ := transport.NewHTTP(ts.URL)

	resp, err := tr.Write(context.Background(), api.Request{
		ID:      "r1",
		Command: api.CommandAddPersonalBankAccount,
		Params:  map[string]any{"accountNumber": "123456789", "addressName": "Checking"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Updates) != 1 || resp.Updates[0].Key != keys.BankAccountList {
		t.Fatalf("expected bank account list update, got %+v", resp.Updates)
	}
	list, _ := resp.Updates[0].Value.(map[string]any)
	entry, _ := list["1001"].(map[string]any)
	data, _ := entry["accountData"].(map[string]any)
	if data["accountNumber"] != "XXXXX6789" {
		t.Errorf("expected masked account number, got %v", data["accountNumber"])
	}
}

func TestCustomResponder(t *testing.T) {
	s, ts := newTestServer(t)
	s.Handle(api.CommandUpdatePolicyConnectionConfig, func(_ context.Context, req api.Request) *api.Response {
		return &api.Response{JSONCode: 401, Message: "expired " + req.ID}
	})

	tr, _ := transport.NewHTTP(ts.URL)
	resp, err := tr.Write(context.Background(), api.Request{ID: "abc", Command: api.CommandUpdatePolicyConnectionConfig})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.JSONCode != 401 || resp.Message != "expired abc" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestLatencyHonoursCancellation(t *testing.T) {
	_, ts := newTestServer(t, WithLatency(time.Second))
	tr, _ := transport.NewHTTP(ts.URL, transport.WithRetry(0, 0))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := tr.Write(ctx, api.Request{ID: "slow", Command: api.CommandDeletePaymentBankAccount}); err == nil {
		t.Error("expected error from cancelled request")
	}
	if time.Since(start) > 900*time.Millisecond {
		t.Error("expected request to stop at the deadline")
	}
}

func TestWebSocketCommandsAndPush(t *testing.T) {
	s, ts := newTestServer(t, WithFailures(api.CommandDeletePaymentBankAccount))
	ctx := context.Background()

	var (
		mu     sync.Mutex
		pushed []update.Descriptor
	)
	got := make(chan struct{}, 1)
	ws, err := transport.DialWS(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws",
		transport.WithPushHandler(func(u []update.Descriptor) {
			mu.Lock()
			pushed = append(pushed, u...)
			mu.Unlock()
			got <- struct{}{}
		}))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	resp, err := ws.Write(ctx, api.Request{ID: "w1", Command: api.CommandConnectPolicyToSageIntacct, Params: map[string]any{"policyID": "p1"}})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !resp.OK() || len(resp.Updates) != 1 || resp.Updates[0].Key != keys.Policy.Member("p1") {
		t.Errorf("unexpected response %+v", resp)
	}

	resp, err = ws.Write(ctx, api.Request{ID: "w2", Command: api.CommandDeletePaymentBankAccount})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if resp.JSONCode != FailureCode {
		t.Errorf("expected failure code, got %d", resp.JSONCode)
	}

	if n := s.Clients(); n != 1 {
		t.Fatalf("expected 1 client, got %d", n)
	}
	if n := s.Push([]update.Descriptor{update.Merge(keys.Network, map[string]any{"isOffline": false})}); n != 1 {
		t.Errorf("expected push to reach 1 client, got %d", n)
	}
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("push not received")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(pushed) != 1 || pushed[0].Key != keys.Network {
		t.Errorf("unexpected push %+v", pushed)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	tr, _ := transport.NewHTTP(ts.URL)
	tr.Write(context.Background(), api.Request{ID: "m1", Command: api.CommandDeletePaymentBankAccount})

	res, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	want := `spendsync_mockapi_requests_total{command="DeletePaymentBankAccount",outcome="success",transport="http"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("expected %s in metrics output:\n%s", want, body)
	}
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"1234":      "1234",
		"123456789": "XXXXX6789",
	}
	for in, want := range tests {
		if got := mask(in); got != want {
			t.Errorf("mask(%q) = %q, want %q", in, got, want)
		}
	}
}
