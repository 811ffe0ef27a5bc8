package digestcodec

import (
	"bytes"
	"testing"
)

func TestSortedMapIgnoresInsertionOrderAndZeros(t *testing.T) {
	var a, b bytes.Buffer
	var tmp [8]byte
	WriteSortedNonZeroIntMap(&a, &tmp, map[string]int{"furnaces": 2, "composters": 1, "empty": 0})
	WriteSortedNonZeroIntMap(&b, &tmp, map[string]int{"composters": 1, "furnaces": 2})
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("encodings differ")
	}
}

func TestWriteStringIsLengthPrefixed(t *testing.T) {
	var a, b bytes.Buffer
	var tmp [8]byte
	WriteString(&a, &tmp, "ab")
	WriteString(&a, &tmp, "c")
	WriteString(&b, &tmp, "a")
	WriteString(&b, &tmp, "bc")
	if bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("adjacent strings alias")
	}
}
