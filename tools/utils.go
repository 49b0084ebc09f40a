package tools

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"
	"strings"
)

func FmtJSONString(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "marshal data fail"
	}
	return string(data)
}

// Converts an int to its 4 bytes little endian representation
func ConvertIntToByteArray(value int) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(value))
	return b
}

// Converts the given values to float32 and returns their little endian representation
func ConvertTruncateFloat64ToFloat32ByteArray(values []float64) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(float32(v)))
	}
	return b
}

// PaddedLength returns the length the content starting at offset must reach to end on the alignment
func PaddedLength(offset, length, alignment int) int {
	if rem := (offset + length) % alignment; rem != 0 {
		return length + alignment - rem
	}
	return length
}

// MarshalPaddedJSON encodes v and pads it with trailing spaces so that, written at offset,
// it ends on the alignment boundary
func MarshalPaddedJSON(v interface{}, offset, alignment int) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	content := bytes.TrimRight(buf.Bytes(), "\n")
	padded := PaddedLength(offset, len(content), alignment)
	return append(content, []byte(strings.Repeat(" ", padded-len(content)))...), nil
}

// PadZero appends zero bytes so that, written at offset, the content ends on the alignment boundary
func PadZero(content []byte, offset, alignment int) []byte {
	padded := PaddedLength(offset, len(content), alignment)
	return append(content, make([]byte, padded-len(content))...)
}
