package extract

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// LabelRange is one entry of a PDF /PageLabels number tree. It applies from
// page index StartIndex (0-based) until the next range.
type LabelRange struct {
	StartIndex int
	// Style is one of D, R, r, A, a, or empty for prefix-only labels.
	Style  string
	Prefix string
	First  int
}

// Labels holds the page label ranges of a document, sorted by StartIndex.
type Labels []LabelRange

// PageLabels reads the /PageLabels number tree from the document catalog.
// It returns nil when the document defines no labels.
func PageLabels(r *pdf.Reader) Labels {
	root := r.Trailer().Key("Root").Key("PageLabels")
	if root.IsNull() {
		return nil
	}
	var out Labels
	collectLabelRanges(root, &out, 0)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartIndex < out[j].StartIndex })
	return out
}

const maxLabelTreeDepth = 32

func collectLabelRanges(node pdf.Value, out *Labels, depth int) {
	if depth > maxLabelTreeDepth {
		return
	}
	nums := node.Key("Nums")
	for i := 0; i+1 < nums.Len(); i += 2 {
		dict := nums.Index(i + 1)
		lr := LabelRange{
			StartIndex: int(nums.Index(i).Int64()),
			Style:      dict.Key("S").Name(),
			Prefix:     dict.Key("P").Text(),
			First:      1,
		}
		if st := dict.Key("St"); st.Kind() == pdf.Integer && st.Int64() > 0 {
			lr.First = int(st.Int64())
		}
		*out = append(*out, lr)
	}
	kids := node.Key("Kids")
	for i := 0; i < kids.Len(); i++ {
		collectLabelRanges(kids.Index(i), out, depth+1)
	}
}

// Label returns the label of the 1-based page. ok is false when no range covers it.
func (ls Labels) Label(page int) (string, bool) {
	idx := page - 1
	pos := -1
	for i, lr := range ls {
		if lr.StartIndex > idx {
			break
		}
		pos = i
	}
	if pos < 0 {
		return "", false
	}
	lr := ls[pos]
	return lr.Prefix + formatLabel(lr.Style, lr.First+idx-lr.StartIndex), true
}

func formatLabel(style string, n int) string {
	switch style {
	case "D":
		return strconv.Itoa(n)
	case "R":
		return strings.ToUpper(roman(n))
	case "r":
		return roman(n)
	case "A":
		return strings.ToUpper(letters(n))
	case "a":
		return letters(n)
	default:
		return ""
	}
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
	{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
	{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
}

func roman(n int) string {
	if n <= 0 {
		return strconv.Itoa(n)
	}
	var b strings.Builder
	for _, e := range romanTable {
		for n >= e.value {
			b.WriteString(e.symbol)
			n -= e.value
		}
	}
	return b.String()
}

// letters follows the PDF convention: a..z, then aa..zz, then aaa..zzz.
func letters(n int) string {
	if n <= 0 {
		return strconv.Itoa(n)
	}
	ch := byte('a' + (n-1)%26)
	return strings.Repeat(string(ch), (n-1)/26+1)
}
