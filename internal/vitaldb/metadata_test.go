package vitaldb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hemodyn-data/ioh.report/internal/monitoring"
)

const casesCSV = `caseid,age,sex,ane_type,opname
1,45,M,General,Cholecystectomy
2,17,F,General,Appendectomy
3,62,M,Spinal,Hip replacement
`

const trksCSV = `caseid,tname,tid
1,SNUADC/ART,aaa
1,SNUADC/ECG_II,bbb
1,BIS/EEG1_WAV,ccc
2,SNUADC/ART,ddd
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/cases", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(casesCSV))
	})
	mux.HandleFunc("/trks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(trksCSV))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestMetadataClientCases(t *testing.T) {
	defer monitoring.Quiet()()
	srv := newTestServer(t)

	c := NewMetadataClient(t.TempDir())
	c.BaseURL = srv.URL

	got, err := c.Cases(context.Background())
	if err != nil {
		t.Fatalf("Cases: %v", err)
	}
	want := []Case{
		{ID: 1, Age: 45, AnesthesiaType: "General", OperationName: "Cholecystectomy"},
		{ID: 2, Age: 17, AnesthesiaType: "General", OperationName: "Appendectomy"},
		{ID: 3, Age: 62, AnesthesiaType: "Spinal", OperationName: "Hip replacement"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cases mismatch (-want +got):\n%s", diff)
	}
}

func TestMetadataClientTracks(t *testing.T) {
	defer monitoring.Quiet()()
	srv := newTestServer(t)

	c := NewMetadataClient(t.TempDir())
	c.BaseURL = srv.URL

	got, err := c.Tracks(context.Background())
	if err != nil {
		t.Fatalf("Tracks: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d tracks, want 4", len(got))
	}
	if got[0].CaseID != 1 || got[0].Name != ARTTrackName {
		t.Errorf("first track = %+v", got[0])
	}
}

func TestMetadataClientUsesCache(t *testing.T) {
	defer monitoring.Quiet()()
	srv := newTestServer(t)

	c := NewMetadataClient(t.TempDir())
	c.BaseURL = srv.URL

	if _, err := c.Cases(context.Background()); err != nil {
		t.Fatalf("first Cases: %v", err)
	}

	// the second read must come from the on-disk cache
	srv.Close()
	got, err := c.Cases(context.Background())
	if err != nil {
		t.Fatalf("cached Cases: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d cached cases, want 3", len(got))
	}
}

func TestMetadataClientHTTPError(t *testing.T) {
	defer monitoring.Quiet()()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewMetadataClient(t.TempDir())
	c.BaseURL = srv.URL

	if _, err := c.Cases(context.Background()); err == nil {
		t.Error("expected error on HTTP 500")
	}
}
