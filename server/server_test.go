package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/auth"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/export"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func postSamples(t *testing.T, h http.Handler, token string, samples []sdr.Sample) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(samples)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, collectEndpoint, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCollect(t *testing.T) {
	samples := make(chan sdr.Sample, 10)
	s := &SpectreServer{samples: samples}
	start := time.UnixMilli(1700000000000).UTC()
	sent := []sdr.Sample{
		{Identifier: "a", Source: "spectran", FreqCenter: 2441500000, DBHigh: -60, SampleCount: 3, Start: start, End: start},
		{Identifier: "a", Source: "spectran", FreqCenter: 2442500000, DBHigh: -99, SampleCount: 3, Start: start, End: start},
	}

	w := postSamples(t, s.router(), "", sent)
	if w.Code != http.StatusOK {
		t.Fatalf("POST = %d: %s", w.Code, w.Body)
	}
	var resp export.CollectResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unable to parse response %q: %s", w.Body, err)
	}
	if resp.Status != "ok" || resp.SampleCount != 2 {
		t.Errorf("response = %+v", resp)
	}
	if len(samples) != 2 {
		t.Fatalf("queued %d samples, want 2", len(samples))
	}
	got := <-samples
	if got.FreqCenter != 2441500000 || !got.Start.Equal(start) {
		t.Errorf("first sample = %+v", got)
	}
}

func TestCollectBadBody(t *testing.T) {
	s := &SpectreServer{samples: make(chan sdr.Sample, 1)}
	req := httptest.NewRequest(http.MethodPost, collectEndpoint, bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	s.router().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST garbage = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCollectAuth(t *testing.T) {
	secret := []byte("server-secret")
	samples := make(chan sdr.Sample, 10)
	h := (&SpectreServer{samples: samples, secret: secret}).router()
	one := []sdr.Sample{{Identifier: "a", FreqCenter: 1}}

	if w := postSamples(t, h, "", one); w.Code != http.StatusUnauthorized {
		t.Errorf("POST without token = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	forged, err := auth.Sign([]byte("other-secret"), "a", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if w := postSamples(t, h, forged, one); w.Code != http.StatusUnauthorized {
		t.Errorf("POST with forged token = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if len(samples) != 0 {
		t.Errorf("rejected requests queued %d samples", len(samples))
	}

	token, err := auth.Sign(secret, "a", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if w := postSamples(t, h, token, one); w.Code != http.StatusOK {
		t.Errorf("POST with valid token = %d: %s", w.Code, w.Body)
	}
	if len(samples) != 1 {
		t.Errorf("queued %d samples, want 1", len(samples))
	}
}

func TestHealth(t *testing.T) {
	h := (&SpectreServer{secret: []byte("x")}).router()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, healthEndpoint, nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET %s = %d, want %d", healthEndpoint, w.Code, http.StatusOK)
	}
}
