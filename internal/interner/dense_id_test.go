package interner

import (
	"testing"

	"github.com/standardbeagle/codeir/internal/types"
)

func TestEncodeDecodeDenseRoundTrip(t *testing.T) {
	cases := []struct {
		fileID  types.FileID
		localID uint32
	}{
		{1, 1},
		{42, 7},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{0, 1},
	}
	for _, c := range cases {
		encoded := EncodeDense(c.fileID, c.localID)
		gotFile, gotLocal, err := DecodeDense(encoded)
		if err != nil {
			t.Fatalf("DecodeDense(%q) error: %v", encoded, err)
		}
		if gotFile != c.fileID || gotLocal != c.localID {
			t.Fatalf("round trip mismatch: got (%d,%d) want (%d,%d)", gotFile, gotLocal, c.fileID, c.localID)
		}
	}
}

func TestEncodeDenseZeroIsEmpty(t *testing.T) {
	if got := EncodeDense(0, 0); got != "" {
		t.Fatalf("expected empty string for zero value, got %q", got)
	}
}

func TestDecodeDenseInvalidCharacter(t *testing.T) {
	if _, _, err := DecodeDense("abc!"); err == nil {
		t.Fatal("expected error for invalid base-63 character")
	}
}

func TestDecodeDenseEmpty(t *testing.T) {
	if _, _, err := DecodeDense(""); err == nil {
		t.Fatal("expected error decoding empty string")
	}
}
