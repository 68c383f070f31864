package protocol

import (
	"bytes"
	"errors"
	"testing"
)

// Helper function to build a valid response frame for testing
func buildTestResponse(t *testing.T, payload []byte) []byte {
	t.Helper()
	frame, err := BuildResponse(payload)
	if err != nil {
		t.Fatalf("BuildResponse() error: %v", err)
	}
	return frame
}

func TestValidateResponse(t *testing.T) {
	payload := []byte{0x52, 0x49, 0x46, 0x46, 0x2C, 0x00, 0x00, 0x00}

	tests := []struct {
		name      string
		mutate    func(f []byte) []byte
		count     int
		wantField Field
		wantNAK   bool
		wantErr   bool
	}{
		{
			name:  "valid frame",
			count: len(payload),
		},
		{
			name:    "NAK",
			mutate:  func(f []byte) []byte { f[len(f)-1] = NAK; return f },
			count:   len(payload),
			wantNAK: true,
			wantErr: true,
		},
		{
			name: "NAK takes precedence over corruption",
			mutate: func(f []byte) []byte {
				f[0] = 0xFF
				f[len(f)-2] ^= 0xFF
				f[len(f)-1] = NAK
				return f
			},
			count:   len(payload),
			wantNAK: true,
			wantErr: true,
		},
		{
			name:      "bad ACK",
			mutate:    func(f []byte) []byte { f[len(f)-1] = 0x00; return f },
			count:     len(payload),
			wantField: FieldACK,
			wantErr:   true,
		},
		{
			name:      "bad STX",
			mutate:    func(f []byte) []byte { f[0] = 0x03; return f },
			count:     len(payload),
			wantField: FieldSTX,
			wantErr:   true,
		},
		{
			name:      "bad MsgID",
			mutate:    func(f []byte) []byte { f[1] = 0x02; return f },
			count:     len(payload),
			wantField: FieldMsgID,
			wantErr:   true,
		},
		{
			name:      "bad count",
			mutate:    func(f []byte) []byte { f[2] = 7; return f },
			count:     len(payload),
			wantField: FieldCount,
			wantErr:   true,
		},
		{
			name:      "bad CRC",
			mutate:    func(f []byte) []byte { f[3] ^= 0x01; return f },
			count:     len(payload),
			wantField: FieldCRC,
			wantErr:   true,
		},
		{
			name:      "truncated frame",
			mutate:    func(f []byte) []byte { return f[:len(f)-1] },
			count:     len(payload),
			wantField: FieldLength,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := buildTestResponse(t, payload)
			if tt.mutate != nil {
				frame = tt.mutate(frame)
			}

			got, err := ValidateResponse(frame, tt.count)

			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !bytes.Equal(got, payload) {
					t.Errorf("payload = % X, want % X", got, payload)
				}
				return
			}

			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantNAK {
				if !errors.Is(err, ErrNAK) {
					t.Errorf("error = %v, want ErrNAK", err)
				}
				if IsValidationError(err) {
					t.Error("NAK must not be reported as a validation error")
				}
				return
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %T, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %v, want %v", ve.Field, tt.wantField)
			}
		})
	}
}

func TestBuildNAKResponse(t *testing.T) {
	frame := BuildNAKResponse(128)
	if len(frame) != ResponseSize(128) {
		t.Fatalf("length = %d, want %d", len(frame), ResponseSize(128))
	}
	if _, err := ValidateResponse(frame, 128); !IsNAK(err) {
		t.Errorf("ValidateResponse() error = %v, want NAK", err)
	}
}

func TestBuildResponseLimits(t *testing.T) {
	if _, err := BuildResponse(nil); err == nil {
		t.Error("expected error for empty payload")
	}
	if _, err := BuildResponse(make([]byte, MaxPayloadSize+1)); err == nil {
		t.Error("expected error for oversized payload")
	}
	frame, err := BuildResponse(make([]byte, MaxPayloadSize))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame) != MaxResponseSize {
		t.Errorf("length = %d, want %d", len(frame), MaxResponseSize)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: FieldCRC, Got: byte(0x12), Want: byte(0x34)}
	want := "invalid checksum: got 0x12, expected 0x34"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func BenchmarkValidateResponse(b *testing.B) {
	payload := make([]byte, MaxPayloadSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	frame, _ := BuildResponse(payload)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ValidateResponse(frame, MaxPayloadSize)
	}
}
