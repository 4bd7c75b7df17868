package evm

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"testing"
)

func w(v uint64) []byte {
	out := make([]byte, 32)
	binary.BigEndian.PutUint64(out[24:], v)
	return out
}

func TestEncodeGetProxyListSlice(t *testing.T) {
	data := EncodeGetProxyListSlice(big.NewInt(0), big.NewInt(7))
	if len(data) != 4+64 {
		t.Fatalf("len = %d, want 68", len(data))
	}
	if !bytes.Equal(data[:4], SelectorGetProxyListSlice) {
		t.Error("wrong selector")
	}
	if !bytes.Equal(data[4:36], w(0)) || !bytes.Equal(data[36:], w(7)) {
		t.Error("wrong argument encoding")
	}
}

func TestEncodeAddressRoundTrip(t *testing.T) {
	addr := "0x794a61358d6845594f94dc1db02a252b5b4814ad"
	encoded := EncodeAddress(addr)
	if len(encoded) != 32 {
		t.Fatalf("len = %d, want 32", len(encoded))
	}

	got, err := NewWords(encoded).Address(0)
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	if got != addr {
		t.Errorf("round trip = %q, want %q", got, addr)
	}
}

func TestDecodeAddressArray(t *testing.T) {
	a1 := "0x00000000000000000000000000000000000000aa"
	a2 := "0x00000000000000000000000000000000000000bb"

	var data []byte
	data = append(data, w(0x20)...)
	data = append(data, w(2)...)
	data = append(data, EncodeAddress(a1)...)
	data = append(data, EncodeAddress(a2)...)

	got, err := DecodeAddressArray(data)
	if err != nil {
		t.Fatalf("DecodeAddressArray: %v", err)
	}
	if len(got) != 2 || got[0] != a1 || got[1] != a2 {
		t.Errorf("got %v, want [%s %s]", got, a1, a2)
	}
}

func TestDecodeAddressArrayTruncated(t *testing.T) {
	var data []byte
	data = append(data, w(0x20)...)
	data = append(data, w(5)...) // claims 5 elements, provides none

	if _, err := DecodeAddressArray(data); err == nil {
		t.Fatal("expected error for truncated array")
	}
}

func TestWordsString(t *testing.T) {
	// One head slot pointing at a 5-byte string.
	var data []byte
	data = append(data, w(0x20)...)
	data = append(data, w(5)...)
	data = append(data, []byte("hello")...)
	data = append(data, make([]byte, 27)...)

	got, err := NewWords(data).String(0)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got != "hello" {
		t.Errorf("String = %q, want %q", got, "hello")
	}
}

func TestWordsOutOfRange(t *testing.T) {
	words := NewWords(w(1))
	if _, err := words.Uint(1); err == nil {
		t.Error("Uint out of range should error")
	}
	if _, err := words.Tuple(5); err == nil {
		t.Error("Tuple out of range should error")
	}
	if _, err := NewWords(w(9999)).Tuple(0); err == nil {
		t.Error("Tuple with offset past the data should error")
	}
}

func TestDecodeUint256(t *testing.T) {
	got, err := DecodeUint256(w(123456))
	if err != nil {
		t.Fatalf("DecodeUint256: %v", err)
	}
	if got.Int64() != 123456 {
		t.Errorf("got %s, want 123456", got)
	}
}
