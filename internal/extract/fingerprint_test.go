package extract

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Dentistas", "dentistas"},
		{"trims and collapses whitespace", "  cafeterias   madrid  ", "cafeterias madrid"},
		{"strips diacritics", "Cafeterías MÁLAGA", "cafeterias malaga"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeVariants(t *testing.T) {
	got := NormalizeVariants([]string{"Clínica Dental", "  ", "clinica dental", "Abogados"})
	want := []string{"abogados", "clinica dental"}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("variant %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFingerprintDeterminism(t *testing.T) {
	// Variant order must not matter once normalized.
	a := Fingerprint(7, "dentistas", "madrid", NormalizeVariants([]string{"A", "B"}), 3)
	b := Fingerprint(7, "dentistas", "madrid", NormalizeVariants([]string{"B", "A"}), 3)

	if a != b {
		t.Errorf("fingerprints differ for reordered variants: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Fingerprint(7, "dentistas", "madrid", []string{"a"}, 3)

	if got := Fingerprint(8, "dentistas", "madrid", []string{"a"}, 3); got == base {
		t.Error("different tenants must produce different fingerprints")
	}
	if got := Fingerprint(7, "dentistas", "barcelona", []string{"a"}, 3); got == base {
		t.Error("different geos must produce different fingerprints")
	}
	if got := Fingerprint(7, "dentistas", "madrid", []string{"a"}, 5); got == base {
		t.Error("different page counts must produce different fingerprints")
	}
}
