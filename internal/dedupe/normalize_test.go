package dedupe

import "testing"

func TestNormalizeCompanyName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Pvt Ltd", "acme"},
		{"ACME", "acme"},
		{"Acme Private Limited", "acme private"},
		{"Sharma & Sons Co.", "sharma sons"},
		{"  Global   Traders LLP ", "global traders"},
		{"Costco", "costco"}, // "co" only strips as a whole word
		{"Pvt Ltd", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := NormalizeCompanyName(tc.in); got != tc.want {
			t.Fatalf("NormalizeCompanyName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeCompanyNameIdempotent(t *testing.T) {
	inputs := []string{"Acme Pvt Ltd", "Sharma & Sons Co.", "Global Traders LLP"}
	for _, in := range inputs {
		once := NormalizeCompanyName(in)
		if twice := NormalizeCompanyName(once); twice != once {
			t.Fatalf("not idempotent on %q: %q then %q", in, once, twice)
		}
	}
}
