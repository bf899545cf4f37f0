package inquiry

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"0879 146 134":     "+359879146134",
		"+359 87 914 6134": "+359879146134",
		"359879146134":     "+359879146134",
		"00359879146134":   "+359879146134",
		"+44 20 7946 0958": "+442079460958",
		"(087) 914-61-34":  "+359879146134",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidPhone(t *testing.T) {
	valid := []string{"0879146134", "+359 2 981 1234", "+44 20 7946 0958"}
	for _, p := range valid {
		if !ValidPhone(p) {
			t.Errorf("ValidPhone(%q) = false, want true", p)
		}
	}

	invalid := []string{"12", "879146134", "+359123456789", "abc"}
	for _, p := range invalid {
		if ValidPhone(p) {
			t.Errorf("ValidPhone(%q) = true, want false", p)
		}
	}
}

func TestFormatPhone(t *testing.T) {
	if got := FormatPhone("+359879146134"); got != "+359 87 914 6134" {
		t.Errorf("FormatPhone = %q", got)
	}
	if got := FormatPhone("+442079460958"); got != "+442079460958" {
		t.Errorf("FormatPhone = %q", got)
	}
}
