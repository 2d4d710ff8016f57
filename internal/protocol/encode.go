package protocol

import (
	"fmt"
	"strings"

	"github.com/robocleaner/armd/internal/servo"
)

// EncodeCommand renders a command as a wire line, without the trailing
// newline. Present fields appear in channel order and angles are clamped to
// the valid range, so an encoded command always round-trips through
// ParseCommand.
func EncodeCommand(cmd *Command) string {
	var sb strings.Builder
	sb.WriteString(`{"type":"servo"`)
	for ch := 0; ch < servo.NumChannels; ch++ {
		if !cmd.Present[ch] {
			continue
		}
		fmt.Fprintf(&sb, `,"servo%d":%d`, ch+1, servo.ClampAngle(cmd.Angles[ch]))
	}
	sb.WriteString("}")
	return sb.String()
}
