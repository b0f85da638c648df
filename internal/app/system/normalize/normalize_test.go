package normalize

import "testing"

func TestNormalizers(t *testing.T) {
	tests := []struct {
		fn    string
		apply func(string) string
		in    string
		want  string
	}{
		{"Email", Email, "  Asha.Nair@Example.ORG ", "asha.nair@example.org"},
		{"Email", Email, "   ", ""},
		{"Name", Name, "  Asha   Nair ", "Asha Nair"},
		{"Name", Name, "ASHA NAIR", "ASHA NAIR"},
		{"Phone", Phone, " +91 98765-43210 ", "+91 98765-43210"},
		{"PhoneDigits", PhoneDigits, "+91 98765-43210", "919876543210"},
		{"PhoneDigits", PhoneDigits, " (987) 654 3210 ", "9876543210"},
		{"PhoneDigits", PhoneDigits, "n/a", ""},
		{"MembershipID", MembershipID, " mh-2026-00001 ", "MH-2026-00001"},
		{"Region", Region, " Tamil   Nadu", "Tamil Nadu"},
		{"QueryParam", QueryParam, "  Kerala  ", "Kerala"},
		{"Label", Label, "Annual\tSummit\n", "Annual Summit"},
		{"Label", Label, "Youth\x00Meet", "Youth Meet"},
	}
	for _, tt := range tests {
		if got := tt.apply(tt.in); got != tt.want {
			t.Errorf("%s(%q) = %q, want %q", tt.fn, tt.in, got, tt.want)
		}
	}
}

// Lookups by phone must match however the number was typed.
func TestPhoneDigits_EquivalentForms(t *testing.T) {
	forms := []string{"+91 98765 43210", "91-98765-43210", "919876543210"}
	want := PhoneDigits(forms[0])
	for _, f := range forms[1:] {
		if got := PhoneDigits(f); got != want {
			t.Errorf("PhoneDigits(%q) = %q, want %q", f, got, want)
		}
	}
}
