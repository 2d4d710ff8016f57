package protocol

import (
	"errors"
	"testing"

	"github.com/robocleaner/armd/internal/servo"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr error
		verify  func(t *testing.T, cmd *Command)
	}{
		{
			name: "all four fields",
			line: `{"type":"servo","servo1":10,"servo2":20,"servo3":30,"servo4":40}`,
			verify: func(t *testing.T, cmd *Command) {
				want := [servo.NumChannels]int{10, 20, 30, 40}
				for ch := 0; ch < servo.NumChannels; ch++ {
					if !cmd.Present[ch] || cmd.Angles[ch] != want[ch] {
						t.Errorf("channel %d = (%d, %v), want (%d, true)",
							ch, cmd.Angles[ch], cmd.Present[ch], want[ch])
					}
				}
			},
		},
		{
			name: "partial command",
			line: `{"type":"servo","servo2":45}`,
			verify: func(t *testing.T, cmd *Command) {
				if cmd.NumPresent() != 1 {
					t.Fatalf("NumPresent = %d, want 1", cmd.NumPresent())
				}
				if !cmd.Present[1] || cmd.Angles[1] != 45 {
					t.Errorf("servo2 = (%d, %v), want (45, true)", cmd.Angles[1], cmd.Present[1])
				}
			},
		},
		{
			name: "fields out of order",
			line: `{"type":"servo","servo4":4,"servo1":1}`,
			verify: func(t *testing.T, cmd *Command) {
				if !cmd.Present[0] || cmd.Angles[0] != 1 {
					t.Errorf("servo1 not parsed: %+v", cmd)
				}
				if !cmd.Present[3] || cmd.Angles[3] != 4 {
					t.Errorf("servo4 not parsed: %+v", cmd)
				}
			},
		},
		{
			name: "marker with space after colon",
			line: `{"type": "servo","servo1":90}`,
			verify: func(t *testing.T, cmd *Command) {
				if !cmd.Present[0] || cmd.Angles[0] != 90 {
					t.Errorf("servo1 = (%d, %v), want (90, true)", cmd.Angles[0], cmd.Present[0])
				}
			},
		},
		{
			name: "value with space after colon",
			line: `{"type":"servo","servo3": 77}`,
			verify: func(t *testing.T, cmd *Command) {
				if !cmd.Present[2] || cmd.Angles[2] != 77 {
					t.Errorf("servo3 = (%d, %v), want (77, true)", cmd.Angles[2], cmd.Present[2])
				}
			},
		},
		{
			name: "missing closing brace parses to end of line",
			line: `{"type":"servo","servo4":180`,
			verify: func(t *testing.T, cmd *Command) {
				if !cmd.Present[3] || cmd.Angles[3] != 180 {
					t.Errorf("servo4 = (%d, %v), want (180, true)", cmd.Angles[3], cmd.Present[3])
				}
			},
		},
		{
			name: "malformed field drops only that field",
			line: `{"type":"servo","servo1":abc,"servo2":90}`,
			verify: func(t *testing.T, cmd *Command) {
				if cmd.Present[0] {
					t.Error("servo1 should be absent")
				}
				if !cmd.Present[1] || cmd.Angles[1] != 90 {
					t.Errorf("servo2 = (%d, %v), want (90, true)", cmd.Angles[1], cmd.Present[1])
				}
			},
		},
		{
			name: "empty value window is absent",
			line: `{"type":"servo","servo1":,"servo2":5}`,
			verify: func(t *testing.T, cmd *Command) {
				if cmd.Present[0] {
					t.Error("servo1 should be absent")
				}
				if !cmd.Present[1] || cmd.Angles[1] != 5 {
					t.Errorf("servo2 = (%d, %v), want (5, true)", cmd.Angles[1], cmd.Present[1])
				}
			},
		},
		{
			name: "signed value rejected",
			line: `{"type":"servo","servo1":-5,"servo2":7}`,
			verify: func(t *testing.T, cmd *Command) {
				if cmd.Present[0] {
					t.Error("servo1 should be absent, sign is not in the value domain")
				}
				if !cmd.Present[1] {
					t.Error("servo2 should be present")
				}
			},
		},
		{
			name: "decimal point rejected",
			line: `{"type":"servo","servo1":90.5,"servo2":7}`,
			verify: func(t *testing.T, cmd *Command) {
				if cmd.Present[0] {
					t.Error("servo1 should be absent")
				}
			},
		},
		{
			name: "out of range value parses, clamping is downstream",
			line: `{"type":"servo","servo1":999}`,
			verify: func(t *testing.T, cmd *Command) {
				if !cmd.Present[0] || cmd.Angles[0] != 999 {
					t.Errorf("servo1 = (%d, %v), want (999, true)", cmd.Angles[0], cmd.Present[0])
				}
			},
		},
		{
			name: "unknown keys ignored",
			line: `{"type":"servo","speed":3,"servo2":12}`,
			verify: func(t *testing.T, cmd *Command) {
				if cmd.NumPresent() != 1 || !cmd.Present[1] {
					t.Errorf("want only servo2 present, got %s", cmd)
				}
			},
		},
		{
			name:    "non-servo type",
			line:    `{"type":"other","servo1":90}`,
			wantErr: ErrNotServoCommand,
		},
		{
			name:    "no type marker",
			line:    `{"servo1":90}`,
			wantErr: ErrNotServoCommand,
		},
		{
			name:    "plain text line",
			line:    "hello arm",
			wantErr: ErrNotServoCommand,
		},
		{
			name:    "servo marker but zero fields",
			line:    `{"type":"servo"}`,
			wantErr: ErrNoFields,
		},
		{
			name:    "servo marker, all fields malformed",
			line:    `{"type":"servo","servo1":x,"servo2":}`,
			wantErr: ErrNoFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand(tt.line)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseCommand() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCommand() error = %v", err)
			}
			tt.verify(t, cmd)
		})
	}
}

func TestParseCommand_Reparse(t *testing.T) {
	// Parsing is pure: the same line always yields the same command.
	line := `{"type":"servo","servo1":90,"servo3":45}`
	first, err := ParseCommand(line)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	second, err := ParseCommand(line)
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if *first != *second {
		t.Errorf("re-parse differs: %s vs %s", first, second)
	}
}

func TestCommand_String(t *testing.T) {
	cmd := &Command{}
	cmd.Angles[0] = 90
	cmd.Present[0] = true
	cmd.Angles[2] = 45
	cmd.Present[2] = true

	if got, want := cmd.String(), "Command{servo1:90, servo3:45}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestEncodeCommand(t *testing.T) {
	cmd := &Command{}
	cmd.Angles[1] = 45
	cmd.Present[1] = true
	cmd.Angles[3] = 500 // clamped on encode
	cmd.Present[3] = true

	line := EncodeCommand(cmd)
	if want := `{"type":"servo","servo2":45,"servo4":180}`; line != want {
		t.Fatalf("EncodeCommand() = %q, want %q", line, want)
	}

	back, err := ParseCommand(line)
	if err != nil {
		t.Fatalf("encoded command does not parse: %v", err)
	}
	if !back.Present[1] || back.Angles[1] != 45 || !back.Present[3] || back.Angles[3] != 180 {
		t.Errorf("round trip mismatch: %s", back)
	}
}
