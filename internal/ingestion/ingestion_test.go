package ingestion

import (
	"strings"
	"testing"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
)

func TestDetectFormat(t *testing.T) {
	if f := DetectFormat("<p>hello</p>"); f != FormatHTML {
		t.Fatalf("format: want=html got=%s", f)
	}
	if f := DetectFormat("# Title\nbody"); f != FormatMarkdown {
		t.Fatalf("format: want=markdown got=%s", f)
	}
	if f := DetectFormat("just text"); f != FormatPlain {
		t.Fatalf("format: want=plain got=%s", f)
	}
}

func TestParseHTML(t *testing.T) {
	got, format := Parse("<p>a &amp; b &lt;c&gt; &quot;d&quot; &#39;e&#39;</p>")
	if format != FormatHTML {
		t.Fatalf("format: want=html got=%s", format)
	}
	want := `a & b <c> "d" 'e'`
	if got != want {
		t.Fatalf("html parse: want=%q got=%q", want, got)
	}
}

func TestParseMarkdown(t *testing.T) {
	raw := "# Intro\nSee [the paper](https://example.com) and ![diagram](img.png).\nUse `make build`."
	got, format := Parse(raw)
	if format != FormatMarkdown {
		t.Fatalf("format: want=markdown got=%s", format)
	}
	if !strings.Contains(got, "[Intro]") {
		t.Fatalf("heading must become a bracket marker: %q", got)
	}
	if strings.Contains(got, "https://example.com") || !strings.Contains(got, "the paper") {
		t.Fatalf("link syntax must keep text only: %q", got)
	}
	if !strings.Contains(got, "diagram") || strings.Contains(got, "img.png") {
		t.Fatalf("image syntax must keep alt text only: %q", got)
	}
	if strings.Contains(got, "`") {
		t.Fatalf("backticks must be stripped: %q", got)
	}
}

func TestChunkTextWindows(t *testing.T) {
	text := strings.Repeat("x", 1000)
	spans := ChunkText(text, 512, 100)
	if len(spans) != 3 {
		t.Fatalf("chunks: want=3 got=%d", len(spans))
	}
	wantLens := []int{512, 512, 176}
	for i, span := range spans {
		if len(span.Content) != wantLens[i] {
			t.Fatalf("chunk %d length: want=%d got=%d", i, wantLens[i], len(span.Content))
		}
	}
	// Every full-length chunk shares exactly overlap chars with its successor.
	for i := 0; i+1 < len(spans); i++ {
		tail := spans[i].Content[len(spans[i].Content)-100:]
		head := spans[i+1].Content[:100]
		if tail != head {
			t.Fatalf("chunk %d overlap mismatch", i)
		}
	}
}

func TestChunkTextEdgeCases(t *testing.T) {
	spans := ChunkText("short document", 512, 100)
	if len(spans) != 1 || spans[0].Content != "short document" {
		t.Fatalf("short input must yield one full chunk: %+v", spans)
	}
	spans = ChunkText("", 512, 100)
	if len(spans) != 1 || spans[0].Content != "" {
		t.Fatalf("empty input must yield one empty chunk: %+v", spans)
	}
	exact := strings.Repeat("y", 512)
	spans = ChunkText(exact, 512, 100)
	if len(spans) != 1 {
		t.Fatalf("input of exactly chunk size must yield one chunk, got %d", len(spans))
	}
}

func TestSectionAt(t *testing.T) {
	text := "preamble\n# Setup\ndetails here\n## Tuning\nmore details"
	if s := SectionAt(text, 0); s != "introduction" {
		t.Fatalf("before any heading: want=introduction got=%s", s)
	}
	if s := SectionAt(text, strings.Index(text, "details here")); s != "Setup" {
		t.Fatalf("after first heading: want=Setup got=%s", s)
	}
	if s := SectionAt(text, len(text)); s != "Tuning" {
		t.Fatalf("after second heading: want=Tuning got=%s", s)
	}
	parsed := "intro\n[Methods]\nbody"
	if s := SectionAt(parsed, len(parsed)); s != "Methods" {
		t.Fatalf("bracket marker: want=Methods got=%s", s)
	}
}

func TestClassifyClaimLadder(t *testing.T) {
	cases := []struct {
		content string
		want    domain.ClaimType
	}{
		{"A cache is defined as a fast lookup layer", domain.ClaimDefinition},
		{"is a weighted mixing operation over tokens", domain.ClaimDefinition},
		{"This algorithm shows how to calculate the gradient", domain.ClaimMethod},
		{"The results showed a large improvement", domain.ClaimResult},
		{"A key limitation is memory usage", domain.ClaimLimitation},
		{"Nothing notable here", domain.ClaimUnknown},
		// definition outranks method when both match
		{"The algorithm is defined as how to calculate averages", domain.ClaimDefinition},
	}
	for _, tc := range cases {
		if got := ClassifyClaim(tc.content); got != tc.want {
			t.Fatalf("classify(%q): want=%s got=%s", tc.content, tc.want, got)
		}
	}
}

func TestExtractConceptsAppearLiterally(t *testing.T) {
	vocab := DefaultConceptVocabulary()
	content := "We train with gradient descent and apply dropout to avoid overfitting."
	got := ExtractConcepts(content, vocab)
	if len(got) == 0 {
		t.Fatalf("expected concept hits")
	}
	lower := strings.ToLower(content)
	for _, c := range got {
		if !strings.Contains(lower, strings.ToLower(c)) {
			t.Fatalf("concept %q does not appear in content", c)
		}
	}
	if got := ExtractConcepts("completely unrelated prose", vocab); got != nil {
		t.Fatalf("no hits expected, got %v", got)
	}
}
