package sha256

import "testing"

func TestHasherHashDeterministic(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.Hash([]byte("hello world"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if again := Sum("hello world"); again != got {
		t.Fatalf("expected Sum to match Hash, got %s vs %s", again, got)
	}
}

func TestSumDistinguishesLinks(t *testing.T) {
	t.Parallel()

	a := Sum("https://news.detik.com/berita/d-1/satu")
	b := Sum("https://news.detik.com/berita/d-2/dua")
	if a == b {
		t.Fatal("expected distinct digests for distinct links")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}
