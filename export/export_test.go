package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/auth"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdr"
)

func testSamples(n int) []sdr.Sample {
	t0 := time.UnixMilli(1700000000000)
	var samples []sdr.Sample
	for i := 0; i < n; i++ {
		low := int64(2400000000 + i*1000000)
		samples = append(samples, sdr.Sample{
			Identifier:  "test",
			Source:      "spectran",
			FreqCenter:  low + 500000,
			FreqLow:     low,
			FreqHigh:    low + 1000000,
			DBHigh:      -60,
			DBLow:       -100,
			DBAvg:       -90.5,
			SampleCount: 3,
			Start:       t0,
			End:         t0.Add(60 * time.Millisecond),
		})
	}
	return samples
}

func feed(samples []sdr.Sample) <-chan sdr.Sample {
	c := make(chan sdr.Sample, len(samples))
	for _, s := range samples {
		c <- s
	}
	close(c)
	return c
}

func TestCSV(t *testing.T) {
	file := filepath.Join(t.TempDir(), "samples.csv")
	e := &CSV{File: file, MaxSizeMB: 1}
	if err := e.Write(context.Background(), feed(testSamples(2))); err != nil {
		t.Fatalf("Write() = %s", err)
	}

	f, err := os.Open(file)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("unable to read CSV: %s", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d CSV records, want header and 2 samples", len(records))
	}
	if records[0][0] != "Source" {
		t.Errorf("header = %v", records[0])
	}
	want := []string{"spectran", "test", "2400500000", "2400000000", "2401000000", "1700000000000", "1700000000060", "-100.000000", "-60.000000", "-90.500000", "3"}
	if strings.Join(records[1], ",") != strings.Join(want, ",") {
		t.Errorf("record = %v, want %v", records[1], want)
	}
}

func TestSQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "spectre.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	e := &SQLite{DB: db}
	if err := e.Write(context.Background(), feed(testSamples(5))); err != nil {
		t.Fatalf("Write() = %s", err)
	}
	// A second run reuses the existing table.
	if err := e.Write(context.Background(), feed(testSamples(1))); err != nil {
		t.Fatalf("second Write() = %s", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM spectre`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 6 {
		t.Errorf("stored %d rows, want 6", count)
	}
	var center, start, end int64
	var avg float64
	if err := db.QueryRow(`SELECT FreqCenter, DBAvg, Start, "End" FROM spectre WHERE ID = 2`).Scan(&center, &avg, &start, &end); err != nil {
		t.Fatal(err)
	}
	if center != 2401500000 || avg != -90.5 || start != 1700000000000 || end != 1700000000060 {
		t.Errorf("row 2 = %d %f %d %d", center, avg, start, end)
	}
}

func TestMySQLTemplates(t *testing.T) {
	if strings.Contains(mysqlInsertSampleTmpl, `"`) {
		t.Errorf("MySQL insert contains double quotes: %s", mysqlInsertSampleTmpl)
	}
	if !strings.Contains(mysqlInsertSampleTmpl, "`End`") {
		t.Errorf("MySQL insert does not quote End: %s", mysqlInsertSampleTmpl)
	}
}

func TestSpectreServer(t *testing.T) {
	secret := "test-secret"
	var mu sync.Mutex
	var received []sdr.Sample
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if r.URL.Path != "/spectre/v1/collect" {
			http.NotFound(w, r)
			return
		}
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		if sub, err := auth.Verify([]byte(secret), token); err != nil || sub != "collector-1" {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		// Fail the very first request to exercise the retry.
		if calls == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		var batch []sdr.Sample
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		received = append(received, batch...)
		json.NewEncoder(w).Encode(CollectResponse{Status: "ok", SampleCount: len(batch)})
	}))
	defer ts.Close()

	e := &SpectreServer{
		Server:            ts.URL + "/",
		SendSamplesAmount: 4,
		Secret:            secret,
		Identifier:        "collector-1",
		BackOff:           &backoff.ZeroBackOff{},
	}
	if err := e.Write(context.Background(), feed(testSamples(10))); err != nil {
		t.Fatalf("Write() = %s", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 10 {
		t.Fatalf("server received %d samples, want 10", len(received))
	}
	// Batches of 4, 4 and the remaining 2, plus one retry.
	if calls != 4 {
		t.Errorf("server saw %d requests, want 4", calls)
	}
	if !received[9].Start.Equal(time.UnixMilli(1700000000000)) || received[9].FreqCenter != 2409500000 {
		t.Errorf("last sample = %+v", received[9])
	}
}

func TestSpectreServerRejected(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no token", http.StatusUnauthorized)
	}))
	defer ts.Close()

	e := &SpectreServer{Server: ts.URL, BackOff: &backoff.ZeroBackOff{}}
	err := e.send(context.Background(), testSamples(1))
	if err == nil {
		t.Fatal("send() succeeded against a rejecting server")
	}
	if _, wrapped := err.(*backoff.PermanentError); wrapped {
		t.Errorf("send() = %#v, want the unwrapped server error", err)
	}
	if !strings.Contains(err.Error(), "401 Unauthorized") || !strings.Contains(err.Error(), "no token") {
		t.Errorf("send() = %q, want the status and body of the rejection", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("rejected request was sent %d times, want 1", n)
	}
}
