package postgres

import (
	"errors"
	"math"
	"testing"

	hwdomain "github.com/hacklabs/hwlib/services/hardware/domain"
)

func TestNarrowing(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(int) (int32, error)
		in      int
		want    int32
		wantErr error
	}{
		{"quantity", quantity32, 3, 3, nil},
		{"zero quantity", quantity32, 0, 0, hwdomain.ErrInvalidQuantity},
		{"quantity past 32 bits", quantity32, 4294967301, 0, hwdomain.ErrInvalidQuantity},
		{"stock at limit", stock32, math.MaxInt32, math.MaxInt32, nil},
		{"empty stock", stock32, 0, 0, nil},
		{"negative stock", stock32, -1, 0, hwdomain.ErrInvalidItem},
		{"stock past 32 bits", stock32, 4294967301, 0, hwdomain.ErrInvalidItem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %d, %v; want %v", got, err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("got %d, %v; want %d", got, err, tt.want)
			}
		})
	}
}
