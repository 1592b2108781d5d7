package pipeline

import "testing"

func TestExtractSiteCode(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"code after paren", "(INC001) SITE42 link down", "SITE42", true},
		{"no whitespace", "(INC001)SITE42 down", "SITE42", true},
		{"extra whitespace", "(INC001)   North_07 outage", "North_07", true},
		{"underscore and digits", "(x) AB_12_c rest", "AB_12_c", true},
		{"no closing paren", "SITE42 link down", "", false},
		{"paren then nothing alnum", "(INC001) ???", "", false},
		{"empty text", "", "", false},
		{"first match wins", "(a) ONE then (b) TWO", "ONE", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractSiteCode(tc.text)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractSiteCodeIsDeterministic(t *testing.T) {
	const text = "(INC001) SITE42 link down"
	first, _ := ExtractSiteCode(text)
	for i := 0; i < 10; i++ {
		got, _ := ExtractSiteCode(text)
		if got != first {
			t.Fatalf("extraction not deterministic: %q vs %q", got, first)
		}
	}
}
