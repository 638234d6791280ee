package crawler

import "testing"

// TestFingerprint tests content fingerprint canonicalization.
func TestFingerprint(t *testing.T) {
	t.Parallel()

	t.Run("ignores case and whitespace differences", func(t *testing.T) {
		t.Parallel()

		a := Fingerprint("Hello   World\n\nfoo")
		b := Fingerprint("hello world foo")
		if a != b {
			t.Errorf("expected equal fingerprints, got %q and %q", a, b)
		}
	})

	t.Run("ignores Unicode normalization form", func(t *testing.T) {
		t.Parallel()

		// "é" composed vs. "e" + combining acute accent.
		composed := Fingerprint("café")
		decomposed := Fingerprint("café")
		if composed != decomposed {
			t.Errorf("expected equal fingerprints, got %q and %q", composed, decomposed)
		}
	})

	t.Run("distinguishes different content", func(t *testing.T) {
		t.Parallel()

		if Fingerprint("page one") == Fingerprint("page two") {
			t.Error("expected different fingerprints for different content")
		}
	})

	t.Run("is a hex SHA-256 digest", func(t *testing.T) {
		t.Parallel()

		fp := Fingerprint("content")
		if len(fp) != 64 {
			t.Errorf("expected 64 hex characters, got %d", len(fp))
		}
	})
}

func TestDedupIndexSeen(t *testing.T) {
	t.Parallel()

	idx := newDedupIndex()
	fp := Fingerprint("some page")

	if idx.Seen(fp) {
		t.Error("expected first sighting to report false")
	}
	if !idx.Seen(fp) {
		t.Error("expected second sighting to report true")
	}
	if idx.Seen(Fingerprint("another page")) {
		t.Error("expected unrelated fingerprint to report false")
	}
}
