package audio

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/mrdg/dbsynth/midi"
)

// Controller actions that are not parameters.
const (
	ActionAllSoundOff = "all-sound-off"
	ActionAllNotesOff = "all-notes-off"
)

// ControllerMap assigns MIDI controller numbers to parameter keys or actions.
type ControllerMap map[uint8]string

var DefaultControllers = ControllerMap{
	3:                KeyWaveform,
	9:                KeyEnvelopeType,
	14:               KeyFilterType,
	72:               KeyRelease,
	73:               KeyAttack,
	74:               KeyCutoff,
	75:               KeyDecay,
	79:               KeySustain,
	midi.AllSoundOff: ActionAllSoundOff,
	midi.AllNotesOff: ActionAllNotesOff,
}

// ParseControllerMap reads lines of the form
//
//	<controller> <parameter or action>
//
// Controller numbers may be written in decimal or with a 0x prefix. Blank
// lines and lines starting with # are ignored.
func ParseControllerMap(r io.Reader) (ControllerMap, error) {
	m := make(ControllerMap)
	scanner := bufio.NewScanner(r)
	var line int
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected controller and target, got %q", line, text)
		}
		cc, err := strconv.ParseUint(fields[0], 0, 8)
		if err != nil || cc >= 0x80 {
			return nil, fmt.Errorf("line %d: invalid controller number %q", line, fields[0])
		}
		if !validTarget(fields[1]) {
			return nil, fmt.Errorf("line %d: unknown target %q", line, fields[1])
		}
		m[uint8(cc)] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func validTarget(s string) bool {
	if s == ActionAllSoundOff || s == ActionAllNotesOff {
		return true
	}
	for _, k := range paramKeys {
		if k == s {
			return true
		}
	}
	return false
}

// String lists the mapping one controller per line.
func (m ControllerMap) String() string {
	ccs := make([]int, 0, len(m))
	for cc := range m {
		ccs = append(ccs, int(cc))
	}
	sort.Ints(ccs)
	var b strings.Builder
	for _, cc := range ccs {
		fmt.Fprintf(&b, "%d %s\n", cc, m[uint8(cc)])
	}
	return b.String()
}

// band maps a 7-bit controller value onto n equal bands.
func band(v uint8, n int) int {
	i := int(v) / (0x80 / n)
	if i >= n {
		i = n - 1
	}
	return i
}
