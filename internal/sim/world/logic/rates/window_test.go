package rates

import "testing"

func TestWindowAllow(t *testing.T) {
	var w Window
	for i := 0; i < 3; i++ {
		if ok, _ := w.Allow(100, 20, 3); !ok {
			t.Fatalf("event %d should be allowed", i)
		}
	}
	ok, cooldown := w.Allow(105, 20, 3)
	if ok || cooldown != 15 {
		t.Fatalf("ok=%v cooldown=%d", ok, cooldown)
	}
	if ok, _ := w.Allow(120, 20, 3); !ok {
		t.Fatalf("new window should reset")
	}
	var off Window
	for i := 0; i < 10; i++ {
		if ok, _ := off.Allow(1, 0, 0); !ok {
			t.Fatalf("disabled limit refused")
		}
	}
}
