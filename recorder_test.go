package pcidio

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hubertat/pcidio/bitcodec"
)

func TestRecorder(t *testing.T) {
	var body, query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/write" {
			http.NotFound(w, r)
			return
		}
		query = r.URL.RawQuery
		buf, _ := io.ReadAll(r.Body)
		body = string(buf)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	rec := &Recorder{Host: server.URL, Organization: "home", Bucket: "io", Token: "secret"}
	err := rec.Init()
	if err != nil {
		t.Fatalf("Init returned err: %v", err)
	}
	defer rec.Close()

	if rec.Measurement != defaultMeasurement {
		t.Errorf("default measurement got %q", rec.Measurement)
	}

	err = rec.Record(context.Background(), "pci2724", bitcodec.Bits{1, 0}, bitcodec.Bits{0, 1})
	if err != nil {
		t.Fatalf("Record returned err: %v", err)
	}

	if !strings.HasPrefix(body, "dio,board=pci2724 ") {
		t.Errorf("unexpected line: %q", body)
	}
	for _, field := range []string{"in1=1i", "in2=0i", "out1=0i", "out2=1i"} {
		if !strings.Contains(body, field) {
			t.Errorf("field %s missing in %q", field, body)
		}
	}
	if !strings.Contains(query, "bucket=io") || !strings.Contains(query, "org=home") {
		t.Errorf("unexpected query: %q", query)
	}
}

func TestRecorderNotReady(t *testing.T) {
	rec := &Recorder{}
	if err := rec.Init(); err == nil {
		t.Error("Init without host should fail")
	}
	if err := rec.Record(context.Background(), "x", nil, nil); err == nil {
		t.Error("Record before Init should fail")
	}
}
