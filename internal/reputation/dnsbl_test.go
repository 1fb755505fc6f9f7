package reputation

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"cidrscout/internal/domain"
)

type fakeResolver struct {
	answers map[string][]string
	failAll bool
	queries []string
}

func (f *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	f.queries = append(f.queries, host)
	if f.failAll {
		return nil, errors.New("dial udp: network unreachable")
	}
	if addrs, ok := f.answers[host]; ok {
		return addrs, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func TestZenBackendSeverityMapping(t *testing.T) {
	cases := []struct {
		name string
		code string
		want float64
	}{
		{"exploits", "127.0.0.16", 100},
		{"spam source", "127.0.0.2", 95},
		{"snowshoe", "127.0.0.4", 90},
		{"policy", "127.0.0.8", 85},
		{"unknown bit", "127.0.0.1", 80},
		{"combined prefers worst", "127.0.0.18", 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := NewZenBackend("zen.example.org", 3*time.Second)
			backend.resolver = &fakeResolver{answers: map[string][]string{
				"4.3.2.1.zen.example.org": {tc.code},
			}}

			result := backend.Probe(context.Background(), "1.2.3.4")
			if result.Verdict != domain.VerdictListed {
				t.Fatalf("verdict = %v, want listed", result.Verdict)
			}
			if result.Confidence != tc.want {
				t.Fatalf("confidence = %v, want %v", result.Confidence, tc.want)
			}
		})
	}
}

func TestZenBackendCleanOnNoRecord(t *testing.T) {
	backend := NewZenBackend("zen.example.org", 3*time.Second)
	backend.resolver = &fakeResolver{}

	result := backend.Probe(context.Background(), "1.2.3.4")
	if result.Verdict != domain.VerdictClean || result.Confidence != 0 {
		t.Fatalf("result = %+v, want clean/0", result)
	}
}

func TestZenBackendUnknownOnTransportFailure(t *testing.T) {
	backend := NewZenBackend("zen.example.org", 3*time.Second)
	backend.resolver = &fakeResolver{failAll: true}

	result := backend.Probe(context.Background(), "1.2.3.4")
	if result.Verdict != domain.VerdictUnknown {
		t.Fatalf("verdict = %v, want unknown", result.Verdict)
	}
	if result.Confidence != 50 {
		t.Fatalf("fallback confidence = %v, want 50", result.Confidence)
	}
}

func TestZenBackendUnparsableCodeStillListed(t *testing.T) {
	backend := NewZenBackend("zen.example.org", 3*time.Second)
	backend.resolver = &fakeResolver{answers: map[string][]string{
		"4.3.2.1.zen.example.org": {"10.0.0.1"},
	}}

	result := backend.Probe(context.Background(), "1.2.3.4")
	if result.Verdict != domain.VerdictListed || result.Confidence != 90 {
		t.Fatalf("result = %+v, want listed/90", result)
	}
}

func TestMultiZoneBackendFirstHitWins(t *testing.T) {
	backend := NewMultiZoneBackend("sorbs", []string{"a.example", "b.example", "c.example"}, 2*time.Second)
	resolver := &fakeResolver{answers: map[string][]string{
		"4.3.2.1.b.example": {"127.0.0.6"},
	}}
	backend.resolver = resolver

	result := backend.Probe(context.Background(), "1.2.3.4")
	if result.Verdict != domain.VerdictListed || result.Confidence != 85 {
		t.Fatalf("result = %+v, want listed/85", result)
	}
	if len(resolver.queries) != 2 {
		t.Fatalf("queried %d zones, want 2 (stop at first hit)", len(resolver.queries))
	}
}

func TestMultiZoneBackendAllMissesIsClean(t *testing.T) {
	backend := NewMultiZoneBackend("sorbs", []string{"a.example", "b.example"}, 2*time.Second)
	backend.resolver = &fakeResolver{}

	result := backend.Probe(context.Background(), "1.2.3.4")
	if result.Verdict != domain.VerdictClean || result.Confidence != 0 {
		t.Fatalf("result = %+v, want clean/0", result)
	}
}

func TestMultiZoneBackendFailuresAreCleanNotFatal(t *testing.T) {
	backend := NewMultiZoneBackend("sorbs", []string{"a.example"}, 2*time.Second)
	backend.resolver = &fakeResolver{failAll: true}

	result := backend.Probe(context.Background(), "1.2.3.4")
	if result.Verdict != domain.VerdictClean {
		t.Fatalf("verdict = %v, want clean (zone errors are skipped)", result.Verdict)
	}
}

func TestSingleZoneBackendVerdicts(t *testing.T) {
	listed := &fakeResolver{answers: map[string][]string{
		"4.3.2.1.bl.example": {"127.0.0.2"},
	}}

	backend := NewSingleZoneBackend("barracuda", "bl.example", 2*time.Second)
	backend.resolver = listed
	if r := backend.Probe(context.Background(), "1.2.3.4"); r.Verdict != domain.VerdictListed || r.Confidence != 80 {
		t.Fatalf("listed result = %+v, want listed/80", r)
	}

	backend.resolver = &fakeResolver{}
	if r := backend.Probe(context.Background(), "1.2.3.4"); r.Verdict != domain.VerdictClean {
		t.Fatalf("clean result = %+v, want clean", r)
	}

	backend.resolver = &fakeResolver{failAll: true}
	if r := backend.Probe(context.Background(), "1.2.3.4"); r.Verdict != domain.VerdictUnknown || r.Confidence != 25 {
		t.Fatalf("failure result = %+v, want unknown/25", r)
	}
}

func TestBackendsRejectNonIPv4Input(t *testing.T) {
	zen := NewZenBackend("zen.example.org", time.Second)
	zen.resolver = &fakeResolver{}

	result := zen.Probe(context.Background(), "not-an-ip")
	if result.Verdict != domain.VerdictUnknown {
		t.Fatalf("verdict = %v, want unknown for bad input", result.Verdict)
	}
}
