package evm

import (
	"encoding/hex"
	"fmt"
	"math/big"
)

const wordSize = 32

// Pre-computed function selectors (first 4 bytes of keccak256 of signature).
var (
	// Euler vault factory
	SelectorGetProxyListLength = mustDecodeHex("0a68b7ba") // getProxyListLength()
	SelectorGetProxyListSlice  = mustDecodeHex("c0e96df6") // getProxyListSlice(uint256,uint256)

	// Euler lens (vault info aggregator)
	SelectorGetVaultInfoFull = mustDecodeHex("116e1d2e") // getVaultInfoFull(address)
)

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("invalid hex: %s", s))
	}
	return b
}

// EncodeAddress pads a 20-byte address to a 32-byte ABI word.
func EncodeAddress(addr string) []byte {
	if len(addr) >= 2 && addr[0] == '0' && (addr[1] == 'x' || addr[1] == 'X') {
		addr = addr[2:]
	}
	b, _ := hex.DecodeString(addr)
	padded := make([]byte, wordSize)
	copy(padded[wordSize-len(b):], b)
	return padded
}

// EncodeUint256 encodes a big.Int as a 32-byte left-padded value.
func EncodeUint256(n *big.Int) []byte {
	padded := make([]byte, wordSize)
	b := n.Bytes()
	copy(padded[wordSize-len(b):], b)
	return padded
}

// EncodeGetProxyListLength builds calldata for factory.getProxyListLength().
func EncodeGetProxyListLength() []byte {
	return SelectorGetProxyListLength
}

// EncodeGetProxyListSlice builds calldata for
// factory.getProxyListSlice(start, end).
func EncodeGetProxyListSlice(start, end *big.Int) []byte {
	data := make([]byte, 0, 4+2*wordSize)
	data = append(data, SelectorGetProxyListSlice...)
	data = append(data, EncodeUint256(start)...)
	data = append(data, EncodeUint256(end)...)
	return data
}

// EncodeGetVaultInfoFull builds calldata for lens.getVaultInfoFull(vault).
func EncodeGetVaultInfoFull(vault string) []byte {
	data := make([]byte, 0, 4+wordSize)
	data = append(data, SelectorGetVaultInfoFull...)
	data = append(data, EncodeAddress(vault)...)
	return data
}

// Words is a bounds-checked reader over an ABI-encoded tuple body. Slot i
// is the i-th 32-byte word; dynamic fields hold byte offsets relative to
// the start of the tuple, followed with Tuple/Array/String.
type Words struct {
	data []byte
}

func NewWords(data []byte) Words {
	return Words{data: data}
}

// Len returns the number of complete words available.
func (w Words) Len() int {
	return len(w.data) / wordSize
}

func (w Words) word(i int) ([]byte, error) {
	start := i * wordSize
	if i < 0 || start+wordSize > len(w.data) {
		return nil, fmt.Errorf("abi: word %d out of range (%d words)", i, w.Len())
	}
	return w.data[start : start+wordSize], nil
}

// Uint reads slot i as an unsigned big integer.
func (w Words) Uint(i int) (*big.Int, error) {
	b, err := w.word(i)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

// Address reads slot i as a 0x-prefixed lower-case hex address.
func (w Words) Address(i int) (string, error) {
	b, err := w.word(i)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b[12:]), nil
}

// Tuple follows the dynamic offset at slot i and returns a reader over the
// referenced tuple body.
func (w Words) Tuple(i int) (Words, error) {
	off, err := w.Uint(i)
	if err != nil {
		return Words{}, err
	}
	if !off.IsInt64() || off.Int64() < 0 || off.Int64() > int64(len(w.data)) {
		return Words{}, fmt.Errorf("abi: offset at word %d out of range", i)
	}
	return Words{data: w.data[off.Int64():]}, nil
}

// String follows the dynamic offset at slot i and reads a length-prefixed
// byte string.
func (w Words) String(i int) (string, error) {
	body, err := w.Tuple(i)
	if err != nil {
		return "", err
	}
	length, err := body.Uint(0)
	if err != nil {
		return "", err
	}
	if !length.IsInt64() || length.Int64() < 0 || wordSize+length.Int64() > int64(len(body.data)) {
		return "", fmt.Errorf("abi: string at word %d truncated", i)
	}
	return string(body.data[wordSize : wordSize+length.Int64()]), nil
}

// ArrayLen reads the element count of the array body w points at.
func (w Words) ArrayLen() (int, error) {
	n, err := w.Uint(0)
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() || n.Int64() < 0 {
		return 0, fmt.Errorf("abi: bad array length")
	}
	return int(n.Int64()), nil
}

// ArrayElem returns a reader positioned at element i of a dynamic-element
// array body (length word, then per-element offsets relative to the element
// area).
func (w Words) ArrayElem(i int) (Words, error) {
	n, err := w.ArrayLen()
	if err != nil {
		return Words{}, err
	}
	if i < 0 || i >= n {
		return Words{}, fmt.Errorf("abi: array index %d out of range (%d elements)", i, n)
	}
	elems := Words{data: w.data[wordSize:]}
	return elems.Tuple(i)
}

// StaticArrayElem returns a reader positioned at element i of a
// static-element array body (length word, then elements inline).
func (w Words) StaticArrayElem(i, elemWords int) (Words, error) {
	n, err := w.ArrayLen()
	if err != nil {
		return Words{}, err
	}
	if i < 0 || i >= n {
		return Words{}, fmt.Errorf("abi: array index %d out of range (%d elements)", i, n)
	}
	start := (1 + i*elemWords) * wordSize
	if start > len(w.data) {
		return Words{}, fmt.Errorf("abi: array element %d truncated", i)
	}
	return Words{data: w.data[start:]}, nil
}

// DecodeAddressArray decodes a return value that is a single dynamic array
// of addresses.
func DecodeAddressArray(data []byte) ([]string, error) {
	outer := NewWords(data)
	body, err := outer.Tuple(0)
	if err != nil {
		return nil, fmt.Errorf("decode address array: %w", err)
	}
	n, err := body.ArrayLen()
	if err != nil {
		return nil, fmt.Errorf("decode address array: %w", err)
	}
	addrs := make([]string, n)
	for i := 0; i < n; i++ {
		addr, err := body.Address(1 + i)
		if err != nil {
			return nil, fmt.Errorf("decode address array: %w", err)
		}
		addrs[i] = addr
	}
	return addrs, nil
}

// DecodeUint256 decodes a return value that is a single uint256.
func DecodeUint256(data []byte) (*big.Int, error) {
	return NewWords(data).Uint(0)
}
