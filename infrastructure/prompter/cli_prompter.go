// Package prompter asks the operator before disruptive probes run.
package prompter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/ports"
)

// CliPrompter implements ports.HazardPrompter on a terminal.
type CliPrompter struct {
	in  io.Reader
	out io.Writer
}

// NewCliPrompter creates a new CliPrompter.
func NewCliPrompter(in io.Reader, out io.Writer) *CliPrompter {
	return &CliPrompter{in: in, out: out}
}

// IsInteractive checks if the input is a terminal.
func (p *CliPrompter) IsInteractive() bool {
	f, ok := p.in.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

// ConfirmHazards lists the hazards and reads a yes/no answer. Anything but an
// explicit yes declines.
func (p *CliPrompter) ConfirmHazards(hazards []entities.Hazard) (bool, error) {
	if len(hazards) == 0 {
		return true, nil
	}

	_, _ = fmt.Fprintf(p.out, "The following probes may disrupt the device if the call is not blocked:\n")
	for _, h := range hazards {
		_, _ = fmt.Fprintf(p.out, "- %s: %s\n", h.Capability, h.Reason)
	}
	_, _ = fmt.Fprintf(p.out, "Run them even though the capability is granted? [y/N]: ")

	scanner := bufio.NewScanner(p.in)
	if scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, err
	}
	return false, io.EOF
}

var _ ports.HazardPrompter = (*CliPrompter)(nil)
