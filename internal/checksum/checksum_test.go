package checksum

import "testing"

func TestSum(t *testing.T) {
	// SHA-256 of the empty input.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different inputs share a digest")
	}
}

func TestETag(t *testing.T) {
	got := ETag([]byte(`[]`))
	if len(got) != 66 || got[0] != '"' || got[65] != '"' {
		t.Errorf("ETag = %s", got)
	}
}
