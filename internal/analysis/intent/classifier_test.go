package intent

import "testing"

func TestClassifyTriggerWords(t *testing.T) {
	cases := []struct {
		text string
		want Route
	}{
		{"buscar filtro de aire", RouteCatalog},
		{"decime el precio del filtro", RouteCatalog},
		{"dónde comprar una bujía", RouteCatalog},
		{"BUSCAR FILTRO", RouteCatalog},
		{"where to buy a spark plug", RouteCatalog},
		{"hola, ¿cómo estás?", RouteGenerative},
		{"mi moto hace un ruido raro", RouteGenerative},
		{"", RouteGenerative},
	}

	for _, tc := range cases {
		if got := Classify(tc.text); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

// Trigger words match inside unrelated words; this is intentional
// behavior, not a bug to fix.
func TestClassifySubstringQuirk(t *testing.T) {
	if got := Classify("qué moto tan preciosa"); got != RouteCatalog {
		t.Fatalf("expected substring trigger to route to catalog, got %s", got)
	}
}

func TestCleanQuery(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"buscar filtro de aire", "filtro de aire"},
		{"buscar bujía NGK", "bujía ngk"},
		{`precio "cadena dorada"`, "cadena dorada"},
		{"dónde comprar amortiguador", "amortiguador"},
		{"   buscar   ", ""},
	}

	for _, tc := range cases {
		if got := CleanQuery(tc.raw); got != tc.want {
			t.Errorf("CleanQuery(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
