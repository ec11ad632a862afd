package pipeline

import "crypto/sha256"

// Fingerprint is a fixed-width digest of an article's substantive text. The
// Empty sentinel marks articles without usable body text; a sentinel never
// equals any other fingerprint, including another sentinel.
type Fingerprint struct {
	Hash  [sha256.Size]byte
	Empty bool
}

// Equal reports content equivalence. Sentinel fingerprints match nothing.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if f.Empty || other.Empty {
		return false
	}
	return f.Hash == other.Hash
}

// FingerprintArticle digests the normalized body (lowercased, control runes
// stripped, whitespace collapsed) so that formatting-only differences
// fingerprint identically. Pure and total.
func FingerprintArticle(a Article) Fingerprint {
	return fingerprintText(a.Body)
}

func fingerprintText(body string) Fingerprint {
	normalized := normalizeText(body)
	if normalized == "" {
		return Fingerprint{Empty: true}
	}
	return Fingerprint{Hash: sha256.Sum256([]byte(normalized))}
}
