package observability

import "testing"

func TestEnabledFlag(t *testing.T) {
	cases := map[string]bool{
		"":      false,
		"0":     false,
		"false": false,
		"1":     true,
		"true":  true,
		"YES":   true,
		"on":    true,
	}
	for raw, want := range cases {
		t.Setenv("OTEL_ENABLED", raw)
		if got := enabled(); got != want {
			t.Fatalf("enabled(%q): want=%v got=%v", raw, want, got)
		}
	}
}

func TestSampleRatioClamps(t *testing.T) {
	t.Setenv("OTEL_SAMPLER_RATIO", "")
	if got := sampleRatio(); got != 0.1 {
		t.Fatalf("default ratio: %v", got)
	}
	t.Setenv("OTEL_SAMPLER_RATIO", "2.5")
	if got := sampleRatio(); got != 1 {
		t.Fatalf("ratio above one must clamp: %v", got)
	}
	t.Setenv("OTEL_SAMPLER_RATIO", "-1")
	if got := sampleRatio(); got != 0 {
		t.Fatalf("negative ratio must clamp: %v", got)
	}
	t.Setenv("OTEL_SAMPLER_RATIO", "not-a-number")
	if got := sampleRatio(); got != 0.1 {
		t.Fatalf("garbage ratio must fall back: %v", got)
	}
}

func TestHeadersFromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-api-key=abc, team=graph ,broken,=empty")
	headers := headersFromEnv()
	if len(headers) != 2 || headers["x-api-key"] != "abc" || headers["team"] != "graph" {
		t.Fatalf("headers: %v", headers)
	}

	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
	if headersFromEnv() != nil {
		t.Fatalf("empty env must yield nil headers")
	}
}
