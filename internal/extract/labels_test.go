package extract

import "testing"

func TestLabels_Label(t *testing.T) {
	ls := Labels{
		{StartIndex: 0, Style: "r", First: 1},
		{StartIndex: 4, Style: "D", First: 1},
		{StartIndex: 10, Style: "D", Prefix: "A-", First: 8},
	}
	tests := []struct {
		page int
		want string
	}{
		{1, "i"},
		{4, "iv"},
		{5, "1"},
		{10, "6"},
		{11, "A-8"},
		{13, "A-10"},
	}
	for _, tt := range tests {
		got, ok := ls.Label(tt.page)
		if !ok {
			t.Errorf("Label(%d) not found", tt.page)
			continue
		}
		if got != tt.want {
			t.Errorf("Label(%d) = %q, want %q", tt.page, got, tt.want)
		}
	}
}

func TestLabels_LabelUncovered(t *testing.T) {
	ls := Labels{{StartIndex: 2, Style: "D", First: 1}}
	if _, ok := ls.Label(1); ok {
		t.Error("page before first range should not have a label")
	}
	var none Labels
	if _, ok := none.Label(1); ok {
		t.Error("nil labels should not produce a label")
	}
}

func TestFormatLabel(t *testing.T) {
	tests := []struct {
		style string
		n     int
		want  string
	}{
		{"D", 12, "12"},
		{"r", 9, "ix"},
		{"R", 14, "XIV"},
		{"r", 1994, "mcmxciv"},
		{"a", 1, "a"},
		{"a", 26, "z"},
		{"a", 27, "aa"},
		{"A", 53, "AAA"},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := formatLabel(tt.style, tt.n); got != tt.want {
			t.Errorf("formatLabel(%q, %d) = %q, want %q", tt.style, tt.n, got, tt.want)
		}
	}
}
