package browser

import (
	"strings"
	"testing"
)

const careersPage = `<html><head><title>Careers</title><style>body{color:red}</style></head>
<body>
<h1>Open roles</h1>
<script>var tracking = "secret";</script>
<ul>
  <li><a href="/jobs/1">Protocol Engineer</a> Zug, Switzerland</li>
  <li><a href="https://jobs.example.org/2">Designer</a> Remote</li>
  <li><a href="#top">Back to top</a></li>
</ul>
</body></html>`

func TestPageText_StripsNoiseAndResolvesLinks(t *testing.T) {
	text, err := PageText(careersPage, "https://acme.example/careers", 0)
	if err != nil {
		t.Fatalf("PageText: %v", err)
	}

	for _, want := range []string{
		"Open roles",
		"Protocol Engineer (https://acme.example/jobs/1) Zug, Switzerland",
		"Designer (https://jobs.example.org/2) Remote",
		"Back to top",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}
	for _, noise := range []string{"#top", "tracking", "color:red"} {
		if strings.Contains(text, noise) {
			t.Errorf("text contains %q:\n%s", noise, text)
		}
	}
}

func TestPageText_OneLinePerBlock(t *testing.T) {
	text, err := PageText(careersPage, "https://acme.example/careers", 0)
	if err != nil {
		t.Fatalf("PageText: %v", err)
	}

	for _, line := range strings.Split(text, "\n") {
		if line == "" || strings.TrimSpace(line) != line {
			t.Errorf("untrimmed or empty line %q", line)
		}
	}
	if n := strings.Count(text, "\n"); n < 3 {
		t.Errorf("expected at least 4 lines, got %d", n+1)
	}
}

func TestPageText_Truncates(t *testing.T) {
	text, err := PageText(careersPage, "https://acme.example/careers", 10)
	if err != nil {
		t.Fatalf("PageText: %v", err)
	}
	if n := len([]rune(text)); n != 10 {
		t.Errorf("got %d runes, want 10", n)
	}
}
