package textproc

import "testing"

func TestEncodeEntities(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"bare ampersand", "Tom & Jerry", "Tom &amp; Jerry"},
		{"already encoded", "Tom &amp; Jerry", "Tom &amp; Jerry"},
		{"numeric entity", "price: 10 &#36; today", "price: 10 &#36; today"},
		{"tag untouched", "<p>R&D works</p>", "<p>R&amp;D works</p>"},
		{"attr untouched text encoded", `<a href="/a&b">A & B</a>`, `<a href="/a&b">A &amp; B</a>`},
		{"named entity lt", "1 &lt; 2 & 3 &gt; 0", "1 &lt; 2 &amp; 3 &gt; 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeEntities(tt.in)
			if got != tt.want {
				t.Errorf("EncodeEntities(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeEntities_Idempotent(t *testing.T) {
	inputs := []string{
		"Tom & Jerry & <b>friends</b> & co.",
		"<p>already &amp; encoded &amp; fully</p>",
		"no ampersands here at all",
	}
	for _, in := range inputs {
		once := EncodeEntities(in)
		twice := EncodeEntities(once)
		if once != twice {
			t.Errorf("EncodeEntities not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestStripDashes(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"em dash between words", "AI—a revolution", "AI - a revolution"},
		{"en dash range", "2020–2024", "2020-2024"},
		{"em dash with spaces", "fast — reliable — cheap", "fast - reliable - cheap"},
		{"no dash", "nothing special here", "nothing special here"},
		{"existing hyphen preserved", "state-of-the-art", "state-of-the-art"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripDashes(tt.in)
			if got != tt.want {
				t.Errorf("StripDashes(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripDashes_Idempotent(t *testing.T) {
	inputs := []string{"AI—a revolution — today", "2020–2024 growth", "plain text"}
	for _, in := range inputs {
		once := StripDashes(in)
		twice := StripDashes(once)
		if once != twice {
			t.Errorf("StripDashes not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestHasDash(t *testing.T) {
	if !HasDash("a—b") {
		t.Error("expected HasDash to detect em dash")
	}
	if !HasDash("a–b") {
		t.Error("expected HasDash to detect en dash")
	}
	if HasDash("a-b") {
		t.Error("plain hyphen must not be reported as a dash")
	}
}

func TestHasHTMLTag(t *testing.T) {
	if !HasHTMLTag("has a <b>tag</b>") {
		t.Error("expected tag to be detected")
	}
	if HasHTMLTag("no tags here") {
		t.Error("plain text falsely flagged")
	}
}

func TestStripHTMLTags(t *testing.T) {
	got := StripHTMLTags("<p>Hello <b>world</b>.</p>")
	want := "Hello world."
	if got != want {
		t.Errorf("StripHTMLTags = %q, want %q", got, want)
	}
}
