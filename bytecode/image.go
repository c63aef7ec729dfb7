package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/rrvm/internal/word"
)

// cborEncMode is a canonical (deterministic) CBOR encoder: two images
// built from the same Program must serialize to byte-identical output,
// which TestImageEncodingIsDeterministic checks.
var cborEncMode cbor.EncMode

func init() {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: building canonical CBOR encoder: %v", err))
	}
	cborEncMode = mode
}

// image is the on-disk representation of a Program. Functions is
// persisted as it stands; an image written straight after assembly (as
// cmd/rrvm does) holds only unresolved (-1) slots, which the interpreter
// fills as it runs each `function` opcode.
type image struct {
	Code      []int64 `cbor:"code"`
	Functions []int   `cbor:"functions"`
}

// MarshalImage encodes p as a canonical CBOR bytecode image (§6.2).
func MarshalImage(p *Program) ([]byte, error) {
	img := image{
		Code:      make([]int64, len(p.Code)),
		Functions: append([]int(nil), p.Functions...),
	}
	for i, w := range p.Code {
		img.Code[i] = int64(w)
	}
	data, err := cborEncMode.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal image: %w", err)
	}
	return data, nil
}

// UnmarshalImage decodes a CBOR bytecode image previously written by
// MarshalImage.
func UnmarshalImage(data []byte) (*Program, error) {
	var img image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal image: %w", err)
	}
	p := &Program{
		Code:      make([]word.Word, len(img.Code)),
		Functions: img.Functions,
	}
	for i, w := range img.Code {
		p.Code[i] = word.Word(w)
	}
	return p, nil
}
