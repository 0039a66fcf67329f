package chunker

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n"} {
		if got := Split(in, 100, 10); len(got) != 0 {
			t.Errorf("Split(%q) = %v, want no chunks", in, got)
		}
	}
}

func TestSplit_ShorterThanMax(t *testing.T) {
	text := "# Title\n\nFirst paragraph.\n\nSecond paragraph."
	got := Split(text, 1000, 150)
	if len(got) != 1 || got[0] != text {
		t.Errorf("expected one chunk equal to input, got %v", got)
	}
}

func TestSplit_ExactlyMax(t *testing.T) {
	text := strings.Repeat("b", 50)
	got := Split(text, 50, 10)
	if len(got) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(got))
	}
}

func TestSplit_FixedWindowFallback(t *testing.T) {
	text := strings.Repeat("A", 2500)
	got := Split(text, 1000, 150)

	want := []int{1000, 1000, 800}
	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(got))
	}
	for i, n := range want {
		if len(got[i]) != n {
			t.Errorf("chunk %d: expected %d runes, got %d", i, n, len(got[i]))
		}
	}
}

func TestWindow_Overlap(t *testing.T) {
	got := Window("0123456789ABCDEFGHIJ", 10, 3)
	want := []string{"0123456789", "789ABCDEFG", "EFGHIJ"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Window() = %v, want %v", got, want)
	}
}

func TestWindow_NoOverlap(t *testing.T) {
	got := Window(strings.Repeat("a", 100), 50, 0)
	if len(got) != 2 {
		t.Errorf("expected 2 chunks, got %d", len(got))
	}
}

func TestWindow_CountsRunes(t *testing.T) {
	got := Window(strings.Repeat("é", 1500), 1000, 150)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if n := utf8.RuneCountInString(got[0]); n != 1000 {
		t.Errorf("expected 1000 runes, got %d", n)
	}
	if n := utf8.RuneCountInString(got[1]); n != 650 {
		t.Errorf("expected 650 runes, got %d", n)
	}
	for _, c := range got {
		if !utf8.ValidString(c) {
			t.Error("chunk split a multi-byte rune")
		}
	}
}

func TestWindow_DropsBlankWindows(t *testing.T) {
	text := "abc" + strings.Repeat(" ", 20) + "xyz"
	for _, c := range Window(text, 5, 0) {
		if strings.TrimSpace(c) == "" {
			t.Error("blank chunk not dropped")
		}
	}
}

func TestSplit_PacksParagraphs(t *testing.T) {
	p1 := strings.Repeat("a", 30)
	p2 := strings.Repeat("b", 30)
	p3 := strings.Repeat("c", 30)
	p4 := strings.Repeat("d", 30)
	text := strings.Join([]string{p1, p2, p3, p4}, "\n\n")

	t.Run("without overlap", func(t *testing.T) {
		got := Split(text, 70, 0)
		want := []string{p1 + "\n\n" + p2, p3 + "\n\n" + p4}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Split() = %q, want %q", got, want)
		}
	})

	t.Run("with overlap", func(t *testing.T) {
		got := Split(text, 70, 30)
		want := []string{p1 + "\n\n" + p2, p2 + "\n\n" + p3, p3 + "\n\n" + p4}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Split() = %q, want %q", got, want)
		}
	})
}

func TestSplit_HeadingBoundaries(t *testing.T) {
	text := "# Intro\n" + strings.Repeat("x", 40) + "\n## Details\n" + strings.Repeat("y", 40)
	got := Split(text, 60, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(got), got)
	}
	if !strings.HasPrefix(got[0], "# Intro") {
		t.Errorf("first chunk should start with the first heading, got %q", got[0])
	}
	if !strings.HasPrefix(got[1], "## Details") {
		t.Errorf("second chunk should start with the second heading, got %q", got[1])
	}
}

func TestSplit_OversizedBlockWindowed(t *testing.T) {
	text := "short intro\n\n" + strings.Repeat("z", 250)
	got := Split(text, 100, 0)
	if got[0] != "short intro" {
		t.Errorf("expected intro as its own chunk, got %q", got[0])
	}
	for i, c := range got {
		if n := utf8.RuneCountInString(c); n > 100 {
			t.Errorf("chunk %d has %d runes, exceeds max", i, n)
		}
	}
	if len(got) != 4 {
		t.Errorf("expected 4 chunks, got %d", len(got))
	}
}

func TestSplit_RespectsMaxSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString(strings.Repeat("w", 10+i*3))
		b.WriteString("\n\n")
	}
	for _, c := range Split(b.String(), 120, 40) {
		if n := utf8.RuneCountInString(c); n > 120 {
			t.Errorf("chunk has %d runes, exceeds max", n)
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("Lorem ipsum dolor sit amet.\n\n", 80)
	first := Split(text, 200, 50)
	for i := 0; i < 5; i++ {
		if !reflect.DeepEqual(first, Split(text, 200, 50)) {
			t.Fatal("Split is not deterministic")
		}
	}
}
