// internal/device/device_test.go
package device

import (
	"fmt"
	"testing"
)

func TestAsChannels(t *testing.T) {
	tests := map[string]struct {
		in     Snapshot
		wantOK bool
		wantBT any
	}{
		"channels":       {Channels{"BT": 21.5}, true, 21.5},
		"decoded object": {map[string]any{"BT": 180.5}, true, 180.5},
		"array":          {[]any{1.0, 2.0}, false, nil},
		"number":         {42.0, false, nil},
		"nil":            {nil, false, nil},
	}

	for name, tc := range tests {
		ch, ok := AsChannels(tc.in)
		if ok != tc.wantOK {
			t.Fatalf("%s: ok=%v want %v", name, ok, tc.wantOK)
		}
		if ch["BT"] != tc.wantBT {
			t.Fatalf("%s: BT=%v want %v", name, ch["BT"], tc.wantBT)
		}
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(fmt.Errorf("%w: open COM3", ErrConstruction)) {
		t.Fatalf("construction error must be fatal")
	}
	if !IsFatal(ErrConfiguration) {
		t.Fatalf("configuration error must be fatal")
	}
	if IsFatal(fmt.Errorf("%w: crc", ErrProtocol)) {
		t.Fatalf("protocol error must not be fatal")
	}
}
