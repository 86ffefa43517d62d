package protocol

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestVarintEncoding(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		want  []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"one", 1, []byte{0x01}},
		{"seven bit max", 127, []byte{0x7F}},
		{"two byte min", 128, []byte{0x80, 0x01}},
		{"fourteen bit max", 16383, []byte{0xFF, 0x7F}},
		{"three byte min", 16384, []byte{0x80, 0x80, 0x01}},
		{"thirty five bit max", 1<<35 - 1, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x7F}},
		{"uint64 max", math.MaxUint64, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := EncodeVarint(tt.value)
			if !bytes.Equal(encoded, tt.want) {
				t.Fatalf("EncodeVarint(%d) = %x, want %x", tt.value, encoded, tt.want)
			}

			value, consumed, err := DecodeVarint(encoded)
			if err != nil {
				t.Fatalf("DecodeVarint() error = %v", err)
			}
			if value != tt.value {
				t.Errorf("round-trip value = %d, want %d", value, tt.value)
			}
			if consumed != len(encoded) {
				t.Errorf("consumed = %d, want %d", consumed, len(encoded))
			}

			// Trailing bytes must not affect the decode
			value, consumed, err = DecodeVarint(append(encoded, 0xDE, 0xAD))
			if err != nil || value != tt.value || consumed != len(encoded) {
				t.Errorf("decode with trailing bytes = (%d, %d, %v), want (%d, %d, nil)",
					value, consumed, err, tt.value, len(encoded))
			}
		})
	}
}

func TestDecodeVarintInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"continuation then end", []byte{0x80}},
		{"two continuations then end", []byte{0x80, 0x80}},
		{"eleven byte encoding", bytes.Repeat([]byte{0x80}, 11)},
		{"tenth byte overflows", append(bytes.Repeat([]byte{0xFF}, 9), 0xFF, 0x00)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeVarint(tt.data)
			if !errors.Is(err, ErrTruncatedInput) {
				t.Errorf("DecodeVarint() error = %v, want ErrTruncatedInput", err)
			}
		})
	}
}

func TestAppendFieldHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want []byte
	}{
		{
			name: "varint field low number",
			got:  AppendVarintField(nil, 1, 5),
			want: []byte{0x08, 0x05},
		},
		{
			name: "varint field needs two tag bytes",
			got:  AppendVarintField(nil, 16, 1),
			want: []byte{0x80, 0x01, 0x01},
		},
		{
			name: "string field",
			got:  AppendStringField(nil, 7, "hi"),
			want: []byte{0x3A, 0x02, 'h', 'i'},
		},
		{
			name: "empty bytes field",
			got:  AppendBytesField(nil, 13, nil),
			want: []byte{0x6A, 0x00},
		},
		{
			name: "fixed32 field",
			got:  AppendFixed32Field(nil, 2, 0x01020304),
			want: []byte{0x15, 0x04, 0x03, 0x02, 0x01},
		},
		{
			name: "fixed64 field",
			got:  AppendFixed64Field(nil, 3, 0x0102030405060708),
			want: []byte{0x19, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.got, tt.want) {
				t.Errorf("got %x, want %x", tt.got, tt.want)
			}
		})
	}
}

func TestDecodeFields(t *testing.T) {
	tests := []struct {
		name       string
		payload    []byte
		wantErr    bool
		wantFields int
		verify     func(t *testing.T, fields []Field)
	}{
		{
			name: "mixed field types",
			payload: func() []byte {
				p := AppendVarintField(nil, 1, 5)
				p = AppendStringField(p, 7, "hello")
				p = AppendFixed32Field(p, 9, math.Float32bits(1.5))
				p = AppendFixed64Field(p, 11, math.Float64bits(2.5))
				return p
			}(),
			wantFields: 4,
			verify: func(t *testing.T, fields []Field) {
				if fields[0].Number != 1 || fields[0].Uint != 5 {
					t.Errorf("field 0 = %v, want #1:5", fields[0])
				}
				if fields[1].Number != 7 || string(fields[1].Bytes) != "hello" {
					t.Errorf("field 1 = %v, want #7:hello", fields[1])
				}
				if fields[2].Float32() != 1.5 {
					t.Errorf("field 2 float = %v, want 1.5", fields[2].Float32())
				}
				if fields[3].Float64() != 2.5 {
					t.Errorf("field 3 float = %v, want 2.5", fields[3].Float64())
				}
			},
		},
		{
			name: "nested message decodes recursively",
			payload: func() []byte {
				inner := AppendVarintField(nil, 1, 1)
				inner = AppendVarintField(inner, 2, 4)
				return AppendBytesField(nil, 3, inner)
			}(),
			wantFields: 1,
			verify: func(t *testing.T, fields []Field) {
				inner, err := DecodeFields(fields[0].Bytes)
				if err != nil {
					t.Fatalf("inner decode error = %v", err)
				}
				if len(inner) != 2 || inner[0].Uint != 1 || inner[1].Uint != 4 {
					t.Errorf("inner = %v, want #1:1 #2:4", inner)
				}
			},
		},
		{
			name:       "empty payload",
			payload:    nil,
			wantFields: 0,
		},
		{
			name: "unknown wire type stops without error",
			payload: append(
				AppendVarintField(nil, 1, 1),
				0x0B, 0xFF, 0xFF, // field 1 wire 3 (group start), never emitted
			),
			wantFields: 1,
		},
		{
			name:       "zero field number stops without error",
			payload:    append(AppendVarintField(nil, 1, 1), 0x00, 0x00),
			wantFields: 1,
		},
		{
			name:       "bytes field longer than payload",
			payload:    []byte{0x0A, 0x05, 0x01},
			wantErr:    true,
			wantFields: 0,
		},
		{
			name:       "varint field cut short",
			payload:    append(AppendVarintField(nil, 2, 3), 0x08, 0x80),
			wantErr:    true,
			wantFields: 1,
		},
		{
			name:       "fixed32 cut short",
			payload:    []byte{0x15, 0x01, 0x02},
			wantErr:    true,
			wantFields: 0,
		},
		{
			name:       "fixed64 cut short",
			payload:    []byte{0x19, 0x01, 0x02, 0x03, 0x04},
			wantErr:    true,
			wantFields: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := DecodeFields(tt.payload)

			if tt.wantErr && !errors.Is(err, ErrTruncatedInput) {
				t.Errorf("DecodeFields() error = %v, want ErrTruncatedInput", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("DecodeFields() error = %v", err)
			}
			if len(fields) != tt.wantFields {
				t.Fatalf("decoded %d fields, want %d", len(fields), tt.wantFields)
			}
			if tt.verify != nil {
				tt.verify(t, fields)
			}
		})
	}
}

func TestFieldByNumber(t *testing.T) {
	payload := AppendVarintField(nil, 1, 5)
	payload = AppendVarintField(payload, 2, 20)
	payload = AppendVarintField(payload, 2, 21)

	fields, err := DecodeFields(payload)
	if err != nil {
		t.Fatalf("DecodeFields() error = %v", err)
	}

	f, ok := FieldByNumber(fields, 2)
	if !ok || f.Uint != 20 {
		t.Errorf("FieldByNumber(2) = (%v, %v), want first occurrence 20", f, ok)
	}

	if _, ok := FieldByNumber(fields, 9); ok {
		t.Error("FieldByNumber(9) found a field that does not exist")
	}
}

func BenchmarkAppendVarint(b *testing.B) {
	var buf [maxVarintLen]byte
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		AppendVarint(buf[:0], uint64(i)*2654435761)
	}
}

func BenchmarkDecodeFields(b *testing.B) {
	payload := AppendVarintField(nil, 1, 5)
	payload = AppendVarintField(payload, 2, 0x14)
	payload = AppendBytesField(payload, 7, AppendStringField(nil, 1, "navigate to the next waypoint"))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeFields(payload); err != nil {
			b.Fatal(err)
		}
	}
}
