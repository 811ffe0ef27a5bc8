package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrWorldBusy,
		ErrWorldNotFound,
		ErrBadRequest,
		ErrNotNow,
		ErrInvalidTarget,
		ErrRateLimit,
		ErrStale,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestDecodeBaseAndIsAction(t *testing.T) {
	m, err := DecodeBase([]byte(`{"type":"SLEEP","protocol_version":"1.0"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Type != TypeSleep || m.ProtocolVersion != Version {
		t.Fatalf("base = %+v", m)
	}
	if !IsAction(TypeMove) || IsAction(TypeHello) || IsAction(TypeTimeSync) {
		t.Fatalf("action routing")
	}
	if _, err := DecodeBase([]byte(`{"type":`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
