package protocol

import (
	"errors"
	"strings"
	"testing"
)

// feedString feeds every byte of s and returns the lines emitted plus any
// overflow errors seen along the way.
func feedString(a *Assembler, s string) (lines []string, errs []error) {
	for i := 0; i < len(s); i++ {
		line, ok, err := a.Feed(s[i])
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			lines = append(lines, line)
		}
	}
	return lines, errs
}

func TestAssembler_Framing(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lf terminated",
			input: "{\"type\":\"servo\",\"servo1\":90}\n",
			want:  []string{`{"type":"servo","servo1":90}`},
		},
		{
			name:  "crlf does not emit a blank line",
			input: "hello\r\nworld\r\n",
			want:  []string{"hello", "world"},
		},
		{
			name:  "bare cr framing",
			input: "one\rtwo\r",
			want:  []string{"one", "two"},
		},
		{
			name:  "leading terminators ignored",
			input: "\n\r\n\rdata\n",
			want:  []string{"data"},
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "   padded line \t\n",
			want:  []string{"padded line"},
		},
		{
			name:  "whitespace-only buffer emits nothing",
			input: "    \n",
			want:  nil,
		},
		{
			name:  "control bytes dropped",
			input: "ab\x00\x01c\n",
			want:  []string{"abc"},
		},
		{
			name:  "unterminated tail stays buffered",
			input: "first\nsecond",
			want:  []string{"first"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssembler()
			got, errs := feedString(a, tt.input)
			if len(errs) != 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines %q, want %d %q", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAssembler_Overflow(t *testing.T) {
	a := NewAssembler()

	// 600 printable bytes with no terminator: the 513th byte overflows.
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	var overflows int
	for _, b := range long {
		_, ok, err := a.Feed(b)
		if ok {
			t.Fatal("oversized buffer was emitted as a line")
		}
		if err != nil {
			if !errors.Is(err, ErrLineTooLong) {
				t.Fatalf("unexpected error: %v", err)
			}
			overflows++
		}
	}
	if overflows != 1 {
		t.Fatalf("got %d overflow signals, want 1", overflows)
	}

	// Recovery: the 87 junk bytes left after the discard prefix the next
	// line, but the next terminated servo command still parses because
	// field extraction scans by substring.
	lines, errs := feedString(a, "{\"type\":\"servo\",\"servo2\":45}\n")
	if len(errs) != 0 {
		t.Fatalf("errors after overflow: %v", errs)
	}
	want := strings.Repeat("x", 87) + `{"type":"servo","servo2":45}`
	if len(lines) != 1 || lines[0] != want {
		t.Fatalf("post-overflow lines = %q, want [%q]", lines, want)
	}
	cmd, err := ParseCommand(lines[0])
	if err != nil {
		t.Fatalf("post-overflow line does not parse: %v", err)
	}
	if !cmd.Present[1] || cmd.Angles[1] != 45 {
		t.Errorf("servo2 = (%d, %v), want (45, true)", cmd.Angles[1], cmd.Present[1])
	}
}

func TestAssembler_ExactCapFits(t *testing.T) {
	a := NewAssemblerSize(8)

	if _, errs := feedString(a, "12345678"); len(errs) != 0 {
		t.Fatalf("cap-sized line raised overflow: %v", errs)
	}
	lines, errs := feedString(a, "\n")
	if len(errs) != 0 || len(lines) != 1 || lines[0] != "12345678" {
		t.Fatalf("lines = %q, errs = %v", lines, errs)
	}
}

func TestAssembler_Reset(t *testing.T) {
	a := NewAssembler()
	feedString(a, "partial")
	if a.Pending() == 0 {
		t.Fatal("expected pending bytes")
	}
	a.Reset()
	if a.Pending() != 0 {
		t.Fatal("reset did not clear the buffer")
	}
	lines, _ := feedString(a, "fresh\n")
	if len(lines) != 1 || lines[0] != "fresh" {
		t.Fatalf("lines after reset = %q", lines)
	}
}
