package textnorm

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Arda Güler", "arda guler"},
		{"N'Golo Kanté", "ngolo kante"},
		{"Sardar Azmoun", "sardar azmoun"},
		{"  Kerem Aktürkoğlu  ", "kerem akturkoglu"},
		{"Jean-Philippe Mateta", "jeanphilippe mateta"},
		{"ÇAĞLAR SÖYÜNCÜ", "caglar soyuncu"},
		{"IRFAN", "ırfan"},
		{"İrfan", "irfan"},
		{"İLKAY GÜNDOĞAN", "ilkay gundogan"},
		{"KAHVECİ", "kahveci"},
		{"Ñoño", "nono"},
		{"snake_case", "snake_case"},
		{"#10", "10"},
		{"'!?.", ""},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		got := Normalize(tt.input)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeTurkishCasing(t *testing.T) {
	// A plain ASCII fold would turn "I" into "i"; Turkish casing keeps it dotless.
	if got := Normalize("I"); got != "ı" {
		t.Errorf("Normalize(%q) = %q, want %q", "I", got, "ı")
	}
	if got := Normalize("i"); got != "i" {
		t.Errorf("Normalize(%q) = %q, want %q", "i", got, "i")
	}
}

func TestNormalizeKeepsDottedAndDotlessIApart(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"İlkay", "ilkay"},
		{"Ilkay", "ılkay"},
		{"ilkay", "ilkay"},
		{"ılkay", "ılkay"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
	if Normalize("İlkay") == Normalize("Ilkay") {
		t.Error("İ and I fold to the same letter")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Arda Güler", "IRFAN CAN KAHVECİ", "N'Golo Kanté", "Ødegaard", "Łukasz Fabiański",
		"Son Heung-min", "손흥민", "Σωκράτης", "\xff\xfe broken", "_-_", "", "...",
	}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Arda Güler", []string{"Arda", "Güler"}},
		{"Jean-Philippe  Mateta", []string{"Jean", "Philippe", "Mateta"}},
		{"Son Heung--min", []string{"Son", "Heung", "min"}},
		{"   ", []string{}},
	}
	for _, tt := range tests {
		got := Tokens(tt.input)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokens(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
