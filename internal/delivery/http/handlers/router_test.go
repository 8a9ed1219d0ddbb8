package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/stripe"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const eventBody = `{"id":"evt_1","object":"event","type":"charge.succeeded","data":{"object":{"id":"ch_1","customer":"cus_1"}}}`

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(queue *MockQueue, syncer *MockSyncer, secret string, ready bool) *gin.Engine {
	return NewRouter(
		NewWebhookHandler(queue, stripe.Verifier{Secret: secret}, discardLogger()),
		NewSyncHandler(syncer, discardLogger()),
		func() bool { return ready },
		prometheus.NewRegistry(),
	)
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookHandler_Stripe(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		queueErr error
		want     int
	}{
		{name: "queued", want: http.StatusOK},
		{name: "bad signature", secret: "whsec_test", want: http.StatusBadRequest},
		{name: "queue full", queueErr: domain.ErrQueueFull, want: http.StatusServiceUnavailable},
		{name: "broker unavailable", queueErr: &domain.TransientError{Op: "kafka", Err: errors.New("dial")}, want: http.StatusServiceUnavailable},
		{name: "unexpected failure", queueErr: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			queue := &MockQueue{Err: tt.queueErr}
			r := newTestRouter(queue, &MockSyncer{}, tt.secret, true)

			// When
			w := serve(r, http.MethodPost, "/webhooks/stripe", eventBody)

			// Then
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want == http.StatusOK && (len(queue.Keys) != 1 || queue.Keys[0] != "cus_1") {
				t.Errorf("expected event queued under cus_1, got %v", queue.Keys)
			}
		})
	}
}

func TestSyncHandler_Sync(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		syncErr error
		want    int
	}{
		{name: "synced", path: "/sync/contact/con_1", want: http.StatusOK},
		{name: "unknown kind", path: "/sync/lead/l_1", want: http.StatusBadRequest},
		{name: "crm unreachable", path: "/sync/donation/don_1", syncErr: &domain.TransientError{Op: "crm", Err: errors.New("timeout")}, want: http.StatusBadGateway},
		{name: "other failure", path: "/sync/account/acc_1", syncErr: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &MockSyncer{Err: tt.syncErr}
			w := serve(newTestRouter(&MockQueue{}, syncer, "", true), http.MethodPost, tt.path, "")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	t.Run("passes kind and id through", func(t *testing.T) {
		syncer := &MockSyncer{}
		serve(newTestRouter(&MockQueue{}, syncer, "", true), http.MethodPost, "/sync/recurring_donation/rd_1", "")
		if syncer.Kind != domain.EntityRecurringDonation || syncer.PrimaryID != "rd_1" {
			t.Errorf("unexpected sync call %+v", syncer)
		}
	})
}

func TestHealthAndMetrics(t *testing.T) {
	if w := serve(newTestRouter(&MockQueue{}, &MockSyncer{}, "", true), http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", w.Code)
	}
	if w := serve(newTestRouter(&MockQueue{}, &MockSyncer{}, "", false), http.MethodGet, "/healthz", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz while draining = %d, want 503", w.Code)
	}
	if w := serve(newTestRouter(&MockQueue{}, &MockSyncer{}, "", true), http.MethodGet, "/metrics", ""); w.Code != http.StatusOK {
		t.Errorf("metrics = %d, want 200", w.Code)
	}
}
