package altimetry

import (
	"fmt"
	"regexp"
	"strings"
)

var granuleFilenameRx = regexp.MustCompile(`ATL06_(\d{8,})_(\d{4})(\d{2})(\d{2})_(\d{3})_(\d{2})\.h5`)

// A Granule is the metadata encoded in an ATL06 granule filename.
type Granule struct {
	RGT      string // Reference ground track, leading zeros stripped.
	Cycle    string // Leading zeros stripped.
	Time     string // yyyy-mm-dd.
	DateTime string // Raw date digits.
	Region   string
	Release  string
	Version  string
}

// ParseGranuleFilename parses the ATL06 granule filename name. The pattern
// may appear anywhere in name, so paths are accepted. The date is sliced, not
// validated.
func ParseGranuleFilename(name string) (*Granule, error) {
	m := granuleFilenameRx.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrPatternMismatch)
	}
	date := m[1]
	return &Granule{
		RGT:      strings.TrimLeft(m[2], "0"),
		Cycle:    strings.TrimLeft(m[3], "0"),
		Time:     date[0:4] + "-" + date[4:6] + "-" + date[6:8],
		DateTime: date,
		Region:   m[4],
		Release:  m[5],
		Version:  m[6],
	}, nil
}
