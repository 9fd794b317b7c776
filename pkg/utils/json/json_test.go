package json

import (
	"bytes"
	stdjson "encoding/json"
	"runtime"
	"testing"
)

type latency struct {
	P50 float64 `json:"p50"`
	P99 float64 `json:"p99"`
}

type report struct {
	RunID   string           `json:"run_id"`
	Errors  map[string]int64 `json:"errors"`
	Latency latency          `json:"latency"`
}

func TestMarshalMatchesStdlib(t *testing.T) {
	r := report{
		RunID:   "01HZX",
		Errors:  map[string]int64{"1001002": 2, "1012001": 1, "driver": 3},
		Latency: latency{P50: 1.5, P99: 9.25},
	}

	got, err := Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want, _ := stdjson.Marshal(r)
	if !bytes.Equal(got, want) {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestUnmarshal(t *testing.T) {
	var r report
	if err := Unmarshal([]byte(`{"run_id":"x","errors":{"a":1},"latency":{"p50":2}}`), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if r.RunID != "x" || r.Errors["a"] != 1 || r.Latency.P50 != 2 {
		t.Errorf("Unmarshal() = %+v", r)
	}
}

func TestEncoderIndent(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]int{"b": 2, "a": 1}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := "{\n  \"a\": 1,\n  \"b\": 2\n}\n"
	if buf.String() != want {
		t.Errorf("Encode() = %q, want %q", buf.String(), want)
	}
}

func TestIsUsingSonic(t *testing.T) {
	want := runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64"
	if IsUsingSonic() != want {
		t.Errorf("IsUsingSonic() = %v on %s", IsUsingSonic(), runtime.GOARCH)
	}
}
