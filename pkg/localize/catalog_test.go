package localize

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/language"
)

func TestDefaultCatalog(t *testing.T) {
	tr := Default().Translator("en")
	got := tr.Translate("paymentsPage.addBankAccountFailure")
	if got == "" || got == "paymentsPage.addBankAccountFailure" {
		t.Errorf("expected a translation, got %q", got)
	}
}

func TestNegotiation(t *testing.T) {
	tests := []struct {
		locale string
		want   language.Tag
	}{
		{"es", language.Spanish},
		{"es-MX", language.Spanish},
		{"en-GB", language.English},
		{"fr", language.English},
		{"", language.English},
		{"not a locale!", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			tag := Default().Translator(tt.locale).Language()
			base, _ := tag.Base()
			wantBase, _ := tt.want.Base()
			if base != wantBase {
				t.Errorf("expected %v, got %v", tt.want, tag)
			}
		})
	}
}

func TestFallbacks(t *testing.T) {
	c := NewCatalog(language.English)
	c.Add(language.English, map[string]string{"a": "A", "b": "B"})
	c.Add(language.Spanish, map[string]string{"a": "A-es"})

	tr := c.Translator("es")
	if got := tr.Translate("a"); got != "A-es" {
		t.Errorf("expected A-es, got %q", got)
	}
	if got := tr.Translate("b"); got != "B" {
		t.Errorf("expected fallback B, got %q", got)
	}
	if got := tr.Translate("missing.key"); got != "missing.key" {
		t.Errorf("expected key echo, got %q", got)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "de.json"), []byte(`{"common":{"please":"Bitte"}}`), 0o644)
	os.WriteFile(filepath.Join(dir, "en.yml"), []byte("common:\n  please: Please\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644)

	c := NewCatalog(language.English)
	if err := c.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if got := c.Translator("de").Translate("common.please"); got != "Bitte" {
		t.Errorf("expected Bitte, got %q", got)
	}
	if len(c.Languages()) != 2 {
		t.Errorf("expected 2 languages, got %v", c.Languages())
	}
}

func TestLoadFileBadName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "12345.yaml")
	os.WriteFile(path, []byte("a: b\n"), 0o644)

	if err := NewCatalog(language.English).LoadFile(path); err == nil {
		t.Error("expected error for non-language file name")
	}
}

func TestTranslatorFunc(t *testing.T) {
	var tr Translator = TranslatorFunc(func(key string) string { return "x:" + key })
	if tr.Translate("k") != "x:k" {
		t.Error("TranslatorFunc did not delegate")
	}
}
