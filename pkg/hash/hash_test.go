package hash

import "testing"

func TestSum256(t *testing.T) {
	got := Sum256([]byte("hello"))
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got.String() != want {
		t.Errorf("Sum256(\"hello\") = %s, want %s", got.String(), want)
	}
}

func TestSum256MultiArg(t *testing.T) {
	a := Sum256([]byte("foo"), []byte("bar"))
	b := Sum256([]byte("foobar"))
	if a != b {
		t.Errorf("Sum256 over split args = %s, want %s", a, b)
	}
}

func TestZeroIsDefault(t *testing.T) {
	var h Hash
	if !h.IsZero() {
		t.Error("zero-value Hash should report IsZero")
	}
	if !Zero.IsZero() {
		t.Error("Zero should report IsZero")
	}
}

func TestLessOrEqual(t *testing.T) {
	small := Hash{0x00, 0x01}
	big := Hash{0x01, 0x00}
	if !small.LessOrEqual(big) {
		t.Error("small should be <= big")
	}
	if big.LessOrEqual(small) {
		t.Error("big should not be <= small")
	}
	if !small.LessOrEqual(small) {
		t.Error("a hash should be <= itself")
	}
}

func TestHashFromBytesRejectsWrongLength(t *testing.T) {
	if _, ok := HashFromBytes([]byte{1, 2, 3}); ok {
		t.Error("expected HashFromBytes to reject a short slice")
	}
}

func TestHashFromHexRoundTrip(t *testing.T) {
	h := Sum256([]byte("round trip"))
	parsed, err := HashFromHex(h.String())
	if err != nil {
		t.Fatalf("HashFromHex: %v", err)
	}
	if parsed != h {
		t.Errorf("round trip mismatch: %s != %s", parsed, h)
	}
}
