package model

import (
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

var feltPattern = regexp.MustCompile(`^0x(0|[a-fA-F1-9][a-fA-F0-9]{0,62})$`)

// Felt is a Starknet field element, an integer in [0, p) where p is the
// Stark prime 2^251 + 17*2^192 + 1.
type Felt struct {
	e fp.Element
}

// ParseFelt parses the canonical hex form used on the wire.
func ParseFelt(s string) (Felt, error) {
	if !feltPattern.MatchString(s) {
		return Felt{}, fmt.Errorf("invalid felt %q", s)
	}
	v, ok := new(big.Int).SetString(s[2:], 16)
	if !ok {
		return Felt{}, fmt.Errorf("invalid felt %q", s)
	}
	if v.Cmp(fp.Modulus()) >= 0 {
		return Felt{}, fmt.Errorf("felt %q out of range", s)
	}

	var f Felt
	f.e.SetBigInt(v)
	return f, nil
}

// MustFelt is ParseFelt for constants; it panics on bad input.
func MustFelt(s string) Felt {
	f, err := ParseFelt(s)
	if err != nil {
		panic(err)
	}
	return f
}

func (f Felt) String() string {
	return "0x" + f.e.Text(16)
}

func (f Felt) Equal(other Felt) bool {
	return f.e.Equal(&other.e)
}

func (f Felt) IsZero() bool {
	return f.e.IsZero()
}

func (f Felt) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Felt) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("felt must be a string: %w", err)
	}
	v, err := ParseFelt(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}
