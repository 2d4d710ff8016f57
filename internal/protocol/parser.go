package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robocleaner/armd/internal/servo"
)

// The wire schema is a loose, flat JSON object. Existing clients omit
// fields freely, reorder them, and occasionally drop the closing brace, so
// classification and field extraction are substring scans rather than a
// grammar. See ParseCommand for the exact tolerance rules.
const (
	typeMarker       = `"type":"servo"`
	typeMarkerSpaced = `"type": "servo"`
)

// fieldKeys maps channel index to the wire key for that channel's angle.
var fieldKeys = [servo.NumChannels]string{`"servo1"`, `"servo2"`, `"servo3"`, `"servo4"`}

// Classification results. Both are expected traffic, not faults: a non-servo
// line is ignored outright, a servo line without a single usable field is
// logged and dropped.
var (
	ErrNotServoCommand = errors.New("line is not a servo command")
	ErrNoFields        = errors.New("servo command has no extractable fields")
)

// Command is one line's worth of angle updates. Fields are independent: an
// absent field means that channel keeps its previous position.
type Command struct {
	Angles  [servo.NumChannels]int
	Present [servo.NumChannels]bool
}

// NumPresent returns how many fields the command carries.
func (c *Command) NumPresent() int {
	n := 0
	for _, p := range c.Present {
		if p {
			n++
		}
	}
	return n
}

// String renders the present fields in channel order, for logging.
func (c *Command) String() string {
	var sb strings.Builder
	sb.WriteString("Command{")
	first := true
	for ch := 0; ch < servo.NumChannels; ch++ {
		if !c.Present[ch] {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "servo%d:%d", ch+1, c.Angles[ch])
	}
	sb.WriteString("}")
	return sb.String()
}

// IsServoCommand reports whether the line carries the servo type marker.
// Clients emit both the compact and the space-after-colon form.
func IsServoCommand(line string) bool {
	return strings.Contains(line, typeMarker) || strings.Contains(line, typeMarkerSpaced)
}

// ParseCommand classifies a line and extracts its angle fields.
//
// A line without the servo marker returns ErrNotServoCommand. Otherwise each
// of the four field keys is searched independently, in any order; a found
// key's value is the text between the colon and the next comma, closing
// brace, or end of line, which must be a plain unsigned decimal. A missing
// key, an empty window, or a non-numeric window makes that one field absent
// without affecting the others. A servo line where every field comes up
// absent returns ErrNoFields.
//
// Range checking is not done here: out-of-range angles are clamped at the
// mapping stage, per the calibration contract.
func ParseCommand(line string) (*Command, error) {
	if !IsServoCommand(line) {
		return nil, ErrNotServoCommand
	}

	cmd := &Command{}
	for ch := 0; ch < servo.NumChannels; ch++ {
		if v, ok := extractField(line, fieldKeys[ch]); ok {
			cmd.Angles[ch] = v
			cmd.Present[ch] = true
		}
	}
	if cmd.NumPresent() == 0 {
		return nil, ErrNoFields
	}
	return cmd, nil
}

// extractField locates key in line and parses its value window. The window
// runs from just after the colon to the next comma or closing brace; for the
// last field of a truncated line it runs to the end of the string.
func extractField(line, key string) (int, bool) {
	idx := strings.Index(line, key)
	if idx < 0 {
		return 0, false
	}
	rest := line[idx+len(key):]

	rest = strings.TrimLeft(rest, " \t")
	if len(rest) == 0 || rest[0] != ':' {
		return 0, false
	}
	rest = rest[1:]

	if end := strings.IndexAny(rest, ",}"); end >= 0 {
		rest = rest[:end]
	}
	window := strings.TrimSpace(rest)
	if window == "" || !allDigits(window) {
		return 0, false
	}

	v, err := strconv.Atoi(window)
	if err != nil {
		// Digits that overflow int are as useless as letters.
		return 0, false
	}
	return v, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
