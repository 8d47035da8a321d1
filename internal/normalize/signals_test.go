package normalize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractSourceSignals_SourceAndSignals(t *testing.T) {
	body := "<em>ServiceA</em> <code>sig1: desc</code> <code>sig2: desc</code>"

	result := ExtractSourceSignals(body)
	if result == nil {
		t.Fatal("Expected extraction result, got nil")
	}

	if result.Source != "ServiceA" {
		t.Errorf("Expected source ServiceA, got %q", result.Source)
	}
	if diff := cmp.Diff([]string{"sig1", "sig2"}, result.Signals); diff != "" {
		t.Errorf("Signals mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSourceSignals_MarkdownDialect(t *testing.T) {
	body := "Alert fired on _ServiceA_\n`cpu_load: five minute average` `disk_free: bytes remaining`"

	result := ExtractSourceSignals(body)
	if result == nil {
		t.Fatal("Expected extraction result, got nil")
	}

	if result.Source != "ServiceA" {
		t.Errorf("Expected source ServiceA, got %q", result.Source)
	}
	if diff := cmp.Diff([]string{"cpu_load", "disk_free"}, result.Signals); diff != "" {
		t.Errorf("Signals mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSourceSignals_LastEmphasisWins(t *testing.T) {
	body := "<em>ignored</em> then <em>ServiceB</em> <code>latency: p99</code>"

	result := ExtractSourceSignals(body)
	if result == nil {
		t.Fatal("Expected extraction result, got nil")
	}

	if result.Source != "ServiceB" {
		t.Errorf("Expected last emphasised span as source, got %q", result.Source)
	}
}

func TestExtractSourceSignals_NoCodeSpans(t *testing.T) {
	result := ExtractSourceSignals("<em>ServiceA</em> nothing structured here")
	if result != nil {
		t.Errorf("Expected nil without code spans, got %+v", result)
	}
}

func TestExtractSourceSignals_NoSource(t *testing.T) {
	result := ExtractSourceSignals("<code>sig1: desc</code>")
	if result != nil {
		t.Errorf("Expected nil without a source span, got %+v", result)
	}
}

func TestExtractSourceSignals_EmptySourceSpan(t *testing.T) {
	result := ExtractSourceSignals("<em> </em> <code>sig1: desc</code>")
	if result != nil {
		t.Errorf("Expected nil for blank source, got %+v", result)
	}
}

func TestExtractSourceSignals_SignalWithoutColon(t *testing.T) {
	result := ExtractSourceSignals("<em>ServiceA</em> <code>heartbeat</code>")
	if result == nil {
		t.Fatal("Expected extraction result, got nil")
	}

	if diff := cmp.Diff([]string{"heartbeat"}, result.Signals); diff != "" {
		t.Errorf("Signals mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkupFromMarkdown_Conversion(t *testing.T) {
	input := "check _ServiceA_ and `cpu: load`"
	expected := "check <em>ServiceA</em> and <code>cpu: load</code>"

	result := MarkupFromMarkdown(input)
	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}
