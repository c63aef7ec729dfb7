package word_test

import (
	"testing"

	"github.com/chazu/rrvm/internal/word"
)

func TestParseTypeTagRoundTrip(t *testing.T) {
	for _, tag := range []word.TypeTag{
		word.I8, word.U8, word.I16, word.U16, word.I32, word.U32,
		word.I64, word.U64, word.F32, word.F64, word.Bool, word.Ptr, word.Void,
	} {
		got, ok := word.ParseTypeTag(tag.String())
		if !ok {
			t.Fatalf("ParseTypeTag(%q) not found", tag.String())
		}
		if got != tag {
			t.Fatalf("ParseTypeTag(%q) = %v, want %v", tag.String(), got, tag)
		}
	}
}

func TestParseTypeTagUnknownName(t *testing.T) {
	if _, ok := word.ParseTypeTag("nope"); ok {
		t.Fatal("expected ParseTypeTag to reject an unrecognized name")
	}
}

func TestTypeTagStringUnknownValue(t *testing.T) {
	tag := word.TypeTag(200)
	if got, want := tag.String(), "TypeTag(200)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestIsFloat(t *testing.T) {
	for _, tag := range []word.TypeTag{word.F32, word.F64} {
		if !tag.IsFloat() {
			t.Fatalf("%v.IsFloat() = false, want true", tag)
		}
	}
	for _, tag := range []word.TypeTag{word.I8, word.U64, word.Bool, word.Ptr, word.Void, word.Unknown} {
		if tag.IsFloat() {
			t.Fatalf("%v.IsFloat() = true, want false", tag)
		}
	}
}
