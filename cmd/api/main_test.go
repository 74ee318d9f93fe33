package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"shegymz/internal/config"
	"shegymz/internal/core"
	"shegymz/internal/payfast"
	"shegymz/internal/telemetry"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "local",
		LogLevel:    "error",
		PayFast: config.PayFastConfig{
			MerchantID:      "10000100",
			MerchantKey:     "46f1a4d8763a1d7949020a2628a7e2d7",
			Passphrase:      config.SecretString("jt7NOE43FZPn"),
			Sandbox:         true,
			ReturnURL:       "https://shegymz.test/payment-success",
			CancelURL:       "https://shegymz.test/payment-cancelled",
			NotifyURL:       "https://shegymz.test/api/webhook/payfast",
			Amount:          "399.00",
			ItemName:        "SheGymZ Monthly Membership",
			ItemDescription: "Private women's wellness club",
		},
		Security: config.SecurityConfig{CorsAllowedOrigins: []string{"*"}},
		Build:    config.BuildInfo{Version: "test"},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingCloudWatch implements telemetry.CloudWatchClient.
type countingCloudWatch struct {
	mu     sync.Mutex
	datums int
}

func (c *countingCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.datums += len(in.MetricData)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestBuildServer_Health(t *testing.T) {
	srv, err := buildServer(testConfig(), quietLogger(), nil)
	if err != nil {
		t.Fatalf("buildServer: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"version":"test"`) {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestBuildServer_SubscribeThenNotify(t *testing.T) {
	srv, err := buildServer(testConfig(), quietLogger(), nil)
	if err != nil {
		t.Fatalf("buildServer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/subscribe",
		strings.NewReader(`{"name":"Jane Doe","email":"jane@example.com","phone":"0821234567"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("subscribe status: got %d, body %s", rec.Code, rec.Body.String())
	}

	var sub struct {
		RedirectURL string `json:"redirectUrl"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatalf("subscribe body: %v", err)
	}
	if !strings.HasPrefix(sub.RedirectURL, payfast.SandboxProcessURL+"?") {
		t.Errorf("redirect should target the sandbox: %s", sub.RedirectURL)
	}

	fields := map[string]string{
		"pf_payment_id":  "1089250",
		"payment_status": "COMPLETE",
		"merchant_id":    "10000100",
		"email_address":  "jane@example.com",
		"amount_gross":   "399.00",
	}
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	form.Set("signature", payfast.NewSigner("jt7NOE43FZPn").Sign(fields))

	req = httptest.NewRequest(http.MethodPost, "/api/webhook/payfast", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("webhook status: got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"success":true}` {
		t.Errorf("webhook body: %s", rec.Body.String())
	}
}

func TestLambdaEntry_FlushesMetrics(t *testing.T) {
	client := &countingCloudWatch{}
	metrics := telemetry.NewCloudWatchMetrics(client, "SheGymZ", quietLogger())

	srv, err := buildServer(testConfig(), quietLogger(), metrics)
	if err != nil {
		t.Fatalf("buildServer: %v", err)
	}

	entry := newLambdaEntry(core.NewLambdaHandler(srv.Handler()), metrics, quietLogger())

	resp, err := entry(context.Background(), events.APIGatewayV2HTTPRequest{
		RawPath: "/api/webhook/payfast",
		Headers: map[string]string{"content-type": "application/x-www-form-urlencoded"},
		Body:    "payment_status=COMPLETE",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodPost},
		},
	})
	if err != nil {
		t.Fatalf("entry: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(resp.Body, "Signature verification failed") {
		t.Errorf("body: %s", resp.Body)
	}
	if metrics.Pending() != 0 {
		t.Errorf("metrics should be flushed after the invocation, %d pending", metrics.Pending())
	}
	// Request count, latency and the notification outcome.
	if client.datums != 3 {
		t.Errorf("datums published: got %d, want 3", client.datums)
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(tt.level)
			if !logger.Enabled(context.Background(), tt.want) {
				t.Errorf("level %s should be enabled", tt.want)
			}
			if tt.want > slog.LevelDebug && logger.Enabled(context.Background(), tt.want-1) {
				t.Errorf("level below %s should be disabled", tt.want)
			}
		})
	}
}

func TestIsLambdaEnvironment(t *testing.T) {
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "")
	if !isLambdaEnvironment() {
		t.Error("AWS_LAMBDA_RUNTIME_API presence should select Lambda mode")
	}
}
