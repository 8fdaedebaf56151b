package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycgate/internal/platform/config"
	"kycgate/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReadiness(t *testing.T) {
	healthy := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") })

	t.Run("all dependencies reachable", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handleReadiness(map[string]pinger{"database": healthy}, discardLogger())(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		body := testutil.UnmarshalResponse[map[string]string](t, rr)
		assert.Equal(t, "ready", (*body)["status"])
		assert.Equal(t, "ok", (*body)["database"])
	})

	t.Run("one dependency down", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handleReadiness(map[string]pinger{"database": healthy, "redis": down}, discardLogger())(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		body := testutil.UnmarshalResponse[map[string]string](t, rr)
		assert.Equal(t, "unavailable", (*body)["redis"])
	})
}

func TestInMemoryWiring(t *testing.T) {
	cfg := &config.Config{
		Screening: config.Screening{Denylist: []string{"john"}},
		Risk:      config.Risk{HighRiskCountries: []string{"KP"}},
		Identity:  config.Identity{EnforceSAIDChecksum: true},
		KYC:       config.KYC{ListMaxLimit: 100},
	}
	deps, err := buildDependencies(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer deps.Close()
	assert.Equal(t, "memory", deps.storeKind)
	assert.Nil(t, deps.relay)

	router := newRouter(deps, discardLogger())

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(t, rr)

	rr = testutil.DoRequest(router, testutil.WithRequestID(testutil.NewJSONRequest(t, http.MethodPost, "/kyc/verifications", map[string]string{
		"accountId":        "0.0.42",
		"network":          "hedera",
		"verificationType": "individual",
		"bvn":              "12345678901",
		"documentType":     "bvn",
	}), "req-wiring-1"))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	assert.Equal(t, "req-wiring-1", rr.Header().Get("X-Request-ID"))

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/compliance/flags", map[string]string{
		"entityType": "account",
		"entityId":   "0.0.42",
		"network":    "hedera",
		"flagType":   "kyc",
		"severity":   "high",
		"reason":     "document mismatch",
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	created := testutil.UnmarshalResponse[map[string]any](t, rr)

	flagID, _ := (*created)["flagId"].(string)
	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/compliance/flags/"+flagID))
	testutil.AssertStatusOK(t, rr)
	details := testutil.UnmarshalResponse[map[string]any](t, rr)
	entityInfo, _ := (*details)["entityInfo"].(map[string]any)
	assert.Equal(t, "verified", entityInfo["kycStatus"])
}
