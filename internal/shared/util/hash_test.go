package util

import "testing"

func TestUserKey(t *testing.T) {
	got := UserKey("google:12345")
	if got != UserKey("google:12345") {
		t.Fatalf("expected stable key, got %s", got)
	}
	if len(got) != userKeyLength {
		t.Fatalf("expected %d characters, got %d", userKeyLength, len(got))
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("key contains non-hex character: %c", ch)
		}
	}
	if UserKey("guest:1") == UserKey("guest:2") {
		t.Fatalf("expected distinct users to get distinct keys")
	}
}
