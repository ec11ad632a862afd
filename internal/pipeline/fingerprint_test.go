package pipeline

import "testing"

func TestFingerprintArticle_IgnoresWhitespaceAndCase(t *testing.T) {
	t.Parallel()

	left := FingerprintArticle(Article{Body: "La tasa   sube\nal 5,5% anual."})
	right := FingerprintArticle(Article{Body: "  la tasa sube al 5,5% ANUAL.  "})
	if !left.Equal(right) {
		t.Fatalf("expected formatting-only variants to fingerprint identically")
	}

	other := FingerprintArticle(Article{Body: "La tasa baja al 5,0% anual."})
	if left.Equal(other) {
		t.Fatalf("did not expect different bodies to fingerprint identically")
	}
}

func TestFingerprintArticle_EmptyBodySentinelMatchesNothing(t *testing.T) {
	t.Parallel()

	empty := FingerprintArticle(Article{Body: "   \n\t "})
	if !empty.Empty {
		t.Fatalf("expected sentinel fingerprint for blank body")
	}

	otherEmpty := FingerprintArticle(Article{})
	if empty.Equal(otherEmpty) {
		t.Fatalf("sentinel fingerprints must never match each other")
	}
	if empty.Equal(empty) {
		t.Fatalf("sentinel fingerprint must not match itself")
	}

	full := FingerprintArticle(Article{Body: "texto real"})
	if empty.Equal(full) || full.Equal(empty) {
		t.Fatalf("sentinel fingerprint must never match a real fingerprint")
	}
}
