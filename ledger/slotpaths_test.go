package ledger

import (
	"testing"
)

func TestLedgerSlotPrefix(t *testing.T) {
	type args struct {
		ledgerIdentity string
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{args: args{"1234"}, want: "v1/slots/1234/0/slots/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LedgerSlotPrefix(tt.args.ledgerIdentity); got != tt.want {
				t.Errorf("LedgerSlotPrefix() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlotBlobPath(t *testing.T) {
	addr := MustAddressFromHex("0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20")
	want := "v1/slots/1234/0/slots/0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20.slot"
	got := SlotBlobPath("1234", addr)
	if got != want {
		t.Errorf("SlotBlobPath() = %v, want %v", got, want)
	}
	back, err := SlotAddressFromPath(got)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if back != addr {
		t.Errorf("SlotAddressFromPath() = %v, want %v", back, addr)
	}
	if _, err := SlotAddressFromPath("v1/slots/1234/0/slots/other.log"); err == nil {
		t.Errorf("expected an error for a non slot blob")
	}
}
