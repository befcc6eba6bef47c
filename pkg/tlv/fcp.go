package tlv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/simcheck/pkg/bits"
)

// FCPTag is the File Control Parameters template a UICC returns to SELECT with P2 = 04.
const FCPTag = 0x62

// ErrNotFCP is returned for SELECT responses that are not an FCP template, such as the
// proprietary GSM 11.11 layout returned to class A0.
var ErrNotFCP = errors.New("response is not an FCP template")

// FCP holds the File Control Parameters of a selected file.
type FCP struct {
	FileSize      []byte `tlv:"80"`
	TotalFileSize []byte `tlv:"81"`
	Descriptor    []byte `tlv:"82"`
	FileID        []byte `tlv:"83"`
	DFName        []byte `tlv:"84"`
	SFI           []byte `tlv:"88"`
	LifeCycle     []byte `tlv:"8A"`
	Proprietary   []byte `tlv:"A5"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseFCP decodes the response data of a SELECT.
func ParseFCP(data []byte) (*FCP, error) {
	if len(data) == 0 || data[0] != FCPTag {
		return nil, ErrNotFCP
	}
	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("fcp: bertlv decode: %w", err)
	}
	if len(packets) == 0 {
		return nil, ErrNotFCP
	}
	fcp := &FCP{}
	if err := UnmarshalPackets(packets[0].TLVs, fcp); err != nil {
		return nil, fmt.Errorf("fcp: %w", err)
	}
	return fcp, nil
}

// ID returns the file identifier in upper-case hex, "" when absent.
func (f *FCP) ID() string {
	return fmt.Sprintf("%X", f.FileID)
}

// Size returns the data size of an EF (tag 80), or its total size (tag 81) for a DF.
func (f *FCP) Size() (int, bool) {
	if len(f.FileSize) > 0 {
		return bigEndian(f.FileSize), true
	}
	if len(f.TotalFileSize) > 0 {
		return bigEndian(f.TotalFileSize), true
	}
	return 0, false
}

// IsDF reports a dedicated file (descriptor byte 0x38).
func (f *FCP) IsDF() bool {
	return len(f.Descriptor) > 0 && f.Descriptor[0]&0x3F == 0x38
}

// Structure names the EF structure coded in bits 3 to 1 of the descriptor byte.
func (f *FCP) Structure() string {
	if len(f.Descriptor) == 0 {
		return "unknown"
	}
	if f.IsDF() {
		return "DF"
	}
	switch bits.GetRange(f.Descriptor[0], 3, 1) {
	case 1:
		return "transparent"
	case 2:
		return "linear fixed"
	case 6:
		return "cyclic"
	default:
		return "unknown"
	}
}

// Records returns the record length and count of a record based EF.
func (f *FCP) Records() (length, count int, ok bool) {
	if len(f.Descriptor) < 5 || f.IsDF() {
		return 0, 0, false
	}
	return bigEndian(f.Descriptor[2:4]), int(f.Descriptor[4]), true
}

// State decodes the life cycle status byte (tag 8A).
func (f *FCP) State() string {
	if len(f.LifeCycle) == 0 {
		return "unknown"
	}
	b := f.LifeCycle[0]
	switch {
	case b == 0x01:
		return "creation"
	case b == 0x03:
		return "initialisation"
	case bits.GetRange(b, 8, 3) == 0x01:
		if bits.IsSet(b, 1) {
			return "operational (activated)"
		}
		return "operational (deactivated)"
	case bits.GetRange(b, 8, 3) == 0x03:
		return "terminated"
	default:
		return "proprietary"
	}
}

// String summarizes the FCP on one line for logs.
func (f *FCP) String() string {
	var parts []string
	if id := f.ID(); id != "" {
		parts = append(parts, "id="+id)
	}
	parts = append(parts, "type="+f.Structure())
	if size, ok := f.Size(); ok {
		parts = append(parts, fmt.Sprintf("size=%d", size))
	}
	if rl, n, ok := f.Records(); ok {
		parts = append(parts, fmt.Sprintf("records=%dx%d", n, rl))
	}
	if len(f.LifeCycle) > 0 {
		parts = append(parts, "state="+f.State())
	}
	return strings.Join(parts, " ")
}

func bigEndian(b []byte) int {
	n := 0
	for _, x := range b {
		n = n<<8 | int(x)
	}
	return n
}
