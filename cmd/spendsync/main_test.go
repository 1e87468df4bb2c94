package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/spendsync/internal/app"
	"github.com/vango-dev/spendsync/internal/logging"
	"github.com/vango-dev/spendsync/internal/mockapi"
	"github.com/vango-dev/spendsync/pkg/api"
	"github.com/vango-dev/spendsync/pkg/keys"
)

func TestMarkupCommands(t *testing.T) {
	tests := []struct {
		args   []string
		input  string
		expect string
	}{
		{[]string{"html"}, "*hi*", "<p><em>hi</em></p>\n"},
		{[]string{"markdown"}, "<strong>hi</strong>", "*hi*\n"},
		{[]string{"text", "--report", "42=#admins"}, `<mention-report reportID="42"></mention-report>`, "#admins\n"},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			cmd := markupCmd()
			var out bytes.Buffer
			cmd.SetIn(strings.NewReader(tt.input))
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("execute: %v", err)
			}
			if out.String() != tt.expect {
				t.Errorf("expected %q, got %q", tt.expect, out.String())
			}
		})
	}
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spendsync.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: error\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigOverrides(t *testing.T) {
	f := &globalFlags{configPath: writeConfig(t), baseURL: "http://api.test", transport: "ws", locale: "es"}
	cfg, err := f.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.API.BaseURL != "http://api.test" || cfg.API.Transport != "ws" || cfg.Locale != "es" {
		t.Errorf("flags not applied: %+v %q", cfg.API, cfg.Locale)
	}
}

func TestWithAppSettlesAgainstMock(t *testing.T) {
	m := mockapi.New(mockapi.WithLogger(logging.Discard()))
	ts := httptest.NewServer(m.Handler())
	defer ts.Close()

	f := &globalFlags{configPath: writeConfig(t), baseURL: ts.URL, wait: 5 * time.Second}
	var value any
	err := f.withApp(context.Background(), func(a *app.App) error {
		if err := f.settle(context.Background(), a, a.Bank.DeletePaymentBankAccount(5), keys.BankAccountList); err != nil {
			return err
		}
		value, _ = a.Store.Get(keys.BankAccountList)
		return nil
	})
	if err != nil {
		t.Fatalf("withApp: %v", err)
	}
	if list, _ := value.(map[string]any); list["5"] != nil {
		t.Errorf("expected deleted account to be gone, got %v", value)
	}
	if len(m.Calls()) != 1 {
		t.Errorf("expected 1 call, got %d", len(m.Calls()))
	}
}

func TestBankCommandsSendRequests(t *testing.T) {
	tests := []struct {
		args    []string
		command api.Command
		check   func(t *testing.T, params map[string]any)
	}{
		{
			args:    []string{"add", "--name", "Checking", "--routing", "011000015", "--account", "1234567", "--password", "pw"},
			command: api.CommandAddPersonalBankAccount,
			check: func(t *testing.T, params map[string]any) {
				if params["routingNumber"] != "011000015" || params["password"] != "pw" {
					t.Errorf("unexpected params %v", params)
				}
			},
		},
		{
			args:    []string{"company", "--name", "Acme", "--savings", "--setup-type", "manual"},
			command: api.CommandUpdateCompanyInformationForBankAccount,
			check: func(t *testing.T, params map[string]any) {
				if params["companyName"] != "Acme" || params["isSavings"] != true || params["setupType"] != "manual" {
					t.Errorf("unexpected params %v", params)
				}
				if _, ok := params["hasNoConnectionToCannabis"]; ok {
					t.Error("expected unset boolean to be omitted")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			m := mockapi.New(mockapi.WithLogger(logging.Discard()))
			ts := httptest.NewServer(m.Handler())
			defer ts.Close()

			f := &globalFlags{configPath: writeConfig(t), baseURL: ts.URL, wait: 5 * time.Second}
			cmd := bankCmd(f)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("execute: %v", err)
			}

			calls := m.Calls()
			if len(calls) != 1 {
				t.Fatalf("expected 1 call, got %d", len(calls))
			}
			if calls[0].Command != tt.command {
				t.Errorf("expected %s, got %s", tt.command, calls[0].Command)
			}
			tt.check(t, calls[0].Params)
		})
	}
}
