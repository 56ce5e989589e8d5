package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "SMAP Practice" {
		t.Errorf("T(AppTitle) = %q, want 'SMAP Practice'", got)
	}

	got = T(ctx, "InvalidRequestBody")
	if got != "The request body is not valid JSON." {
		t.Errorf("T(InvalidRequestBody) = %q", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "AppTitle")
	if got != "Практика SMAP" {
		t.Errorf("T(AppTitle) = %q, want 'Практика SMAP'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "SectionsAvailable", 1)
	if got1 != "1 section available." {
		t.Errorf("Tp(SectionsAvailable, 1) = %q, want '1 section available.'", got1)
	}

	got9 := Tp(ctx, "SectionsAvailable", 9)
	if got9 != "9 sections available." {
		t.Errorf("Tp(SectionsAvailable, 9) = %q, want '9 sections available.'", got9)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "GradeAnnouncement", map[string]any{"Score": 88, "Grade": "B"})
	if got != "You scored 88 (B)." {
		t.Errorf("Td(GradeAnnouncement) = %q, want 'You scored 88 (B).'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}
