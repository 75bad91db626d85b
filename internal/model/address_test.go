package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseAddressRoundtrip(t *testing.T) {
	var a Address
	for i := range a {
		a[i] = byte(i * 7)
	}

	parsed, err := ParseAddress(a.String())
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if parsed != a {
		t.Errorf("ParseAddress = %s, want %s", parsed, a)
	}
}

func TestParseAddressRejects(t *testing.T) {
	cases := map[string]string{
		"not hex":   strings.Repeat("zz", 32),
		"too short": strings.Repeat("ab", 31),
		"too long":  strings.Repeat("ab", 33),
		"empty":     "",
	}
	for name, input := range cases {
		if _, err := ParseAddress(input); err == nil {
			t.Errorf("%s: ParseAddress(%q) succeeded, want error", name, input)
		}
	}
}

func TestAddressJSON(t *testing.T) {
	meta := AccountMeta{Address: Address{1, 2, 3}, IsSigner: true}

	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"address":"010203`) {
		t.Errorf("address not hex encoded: %s", data)
	}

	var decoded AccountMeta
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != meta {
		t.Errorf("roundtrip = %+v, want %+v", decoded, meta)
	}
}

func TestSystemProgramIDIsZero(t *testing.T) {
	if !SystemProgramID.IsZero() {
		t.Errorf("SystemProgramID = %s, want zero address", SystemProgramID)
	}
}
