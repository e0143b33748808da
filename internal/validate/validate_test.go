package validate

import "testing"

func TestAmount(t *testing.T) {
	if c, ok := Amount("12.50"); !ok || c != 1250 {
		t.Fatalf("want 1250, got %d ok=%v", c, ok)
	}
	for _, bad := range []string{"0", "-1", "1.999", "abc", ""} {
		if _, ok := Amount(bad); ok {
			t.Errorf("Amount(%q) should be rejected", bad)
		}
	}
}

func TestQty(t *testing.T) {
	if n, ok := Qty(" 3 "); !ok || n != 3 {
		t.Fatalf("want 3, got %d ok=%v", n, ok)
	}
	for _, bad := range []string{"0", "-2", "1.5", "many"} {
		if _, ok := Qty(bad); ok {
			t.Errorf("Qty(%q) should be rejected", bad)
		}
	}
}

func TestItemName(t *testing.T) {
	if _, ok := ItemName("Flux Capacitor"); !ok {
		t.Error("want valid")
	}
	for _, bad := range []string{"", " ", "x\ny", "<script>"} {
		if _, ok := ItemName(bad); ok {
			t.Errorf("ItemName(%q) should be rejected", bad)
		}
	}
}

func TestUserID(t *testing.T) {
	if _, ok := UserID("alice_01"); !ok {
		t.Error("want valid")
	}
	if _, ok := UserID("no spaces"); ok {
		t.Error("want rejected")
	}
}
