package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30.0s"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.d); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(0.9375); got != "93.75%" {
		t.Errorf("FormatPercent = %q", got)
	}
}

func TestTableRender(t *testing.T) {
	tbl := NewTable("stage", "loss", "accuracy")
	tbl.AddRow("valid", "0.31", "91.00%")
	tbl.AddRow("test", "0.35", "89.50%")
	out := tbl.Render()

	for _, want := range []string{"stage", "valid", "test", "91.00%", "╭", "╰"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "\n"); got != 5 {
		t.Errorf("table has %d line breaks, want 5", got)
	}
}

func TestOutputJSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{"loss": 0.5}

	if err := Output(v, OutputOptions{Format: FormatJSON, Writer: &buf}); err != nil {
		t.Fatalf("Output json: %v", err)
	}
	if !strings.Contains(buf.String(), `"loss"`) {
		t.Errorf("json output = %q", buf.String())
	}

	buf.Reset()
	if err := Output(v, OutputOptions{Format: FormatYAML, Writer: &buf}); err != nil {
		t.Fatalf("Output yaml: %v", err)
	}
	if !strings.Contains(buf.String(), "loss:") {
		t.Errorf("yaml output = %q", buf.String())
	}

	if err := Output(v, OutputOptions{Format: "xml", Writer: &buf}); err == nil {
		t.Error("expected error for unsupported format")
	}
}
