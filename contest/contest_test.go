package contest

import "testing"

func TestBandIDForLabel(t *testing.T) {
	cases := []struct {
		label string
		want  int
	}{
		{"1.8", 1},
		{"3.5", 2},
		{"7", 3},
		{"14", 4},
		{"21", 5},
		{"28", 6},
		{"50", 7},
		{"144", 8},
		{"432", 9},
		{"20m", 4},
		{"70CM", 9},
		{"", UnknownBandID},
		{"10.1", UnknownBandID},
		{"24", UnknownBandID},
		{"junk", UnknownBandID},
	}
	for _, tc := range cases {
		if got := BandIDForLabel(tc.label); got != tc.want {
			t.Fatalf("BandIDForLabel(%q)=%d, want %d", tc.label, got, tc.want)
		}
	}
}

func TestBandIndexAndTitle(t *testing.T) {
	if BandIndex(UnknownBandID) != -1 {
		t.Fatalf("expected unknown band to have no index")
	}
	if BandIndex(4) != 3 {
		t.Fatalf("expected 20m at index 3, got %d", BandIndex(4))
	}
	if BandTitle(99) != "N/A" {
		t.Fatalf("expected N/A title for unknown band")
	}
	if BandName(9) != "70cm" || BandName(0) != "N/A" {
		t.Fatalf("unexpected band names %q/%q", BandName(9), BandName(0))
	}
	if BandCount() != len(Bands()) {
		t.Fatalf("band count mismatch")
	}
}

func TestSimpleModeGrouping(t *testing.T) {
	cases := map[string]SimpleMode{
		"cw":   SimpleCW,
		"USB":  SimplePhone,
		"LSB":  SimplePhone,
		"FM":   SimplePhone,
		"FT8":  SimpleData,
		"RTTY": SimpleData,
		"WAT":  SimpleOther,
	}
	for name, want := range cases {
		if got := SimpleModeOf(ModeID(name)); got != want {
			t.Fatalf("mode %s grouped as %s, want %s", name, got, want)
		}
	}
	if SimpleOther.Column() != -1 || SimpleData.Column() != 2 {
		t.Fatalf("unexpected simple mode columns")
	}
}

func TestSectionsFromCodes(t *testing.T) {
	got := SectionsFromCodes([]string{" ct", "CT", "", "xx"})
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %+v", got)
	}
	if got[0].Code != "CT" || got[0].Area != "1" {
		t.Fatalf("unexpected first section %+v", got[0])
	}
	if got[1].Code != "XX" || got[1].Area != "DX" {
		t.Fatalf("unexpected unknown section %+v", got[1])
	}
	if len(DefaultSections()) < 80 {
		t.Fatalf("expected full default section set, got %d", len(DefaultSections()))
	}
}
