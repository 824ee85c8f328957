package answer

import "testing"

func TestIsCorrect(t *testing.T) {
	tests := []struct {
		user, correct string
		want          bool
	}{
		{"Ge libre roçe", "Ge libre roçe", true},
		{"ge LIBRE roçe", "Ge libre roçe", true},
		{"  Ge   libre\troçe. ", "Ge libre roçe", true},
		{"Salave! Graçi.", "Salave Graçi", true},
		{"Ge\u00a0libre\u3000roçe", "Ge libre roçe", true},
		{"\ufeffSalave\u2028Graçi\u2009", "Salave Graçi", true},
		{"Li amere'lam ge frutes", "Li ma amere'lam ge frutes", true},
		{"Li ma amere'lam ge frutes", "Li amere'lam ge frutes", true},
		{"la Li tames Nalibone", "Li tames Nalibone", true},
		{"Ge libre blu", "Ge libre roçe", false},
		{"Li tames", "Li tames Nalibone", false},
		{"", "Salave", false},
		{"", "", true},
	}

	for _, tc := range tests {
		got := IsCorrect(tc.user, tc.correct)
		if got != tc.want {
			t.Errorf("IsCorrect(%q, %q) = %v, want %v", tc.user, tc.correct, got, tc.want)
		}
	}
}

func TestIsCorrect_Reflexive(t *testing.T) {
	inputs := []string{"", " ", "ma", "la ma", "Li'on libreji", "!!", "Des xune", "ÄÖ ü"}
	for _, s := range inputs {
		if !IsCorrect(s, s) {
			t.Errorf("IsCorrect(%q, %q) = false, want true", s, s)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Salave!", "salave"},
		{"  a  b  ", "a b"},
		{"x-y_z", "xyz"},
		{"Li'on", "li'on"},
		{"(Ge) {libre}", "ge libre"},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
