package fields

// Target is the source file a machine log value is compared against.
type Target int

const (
	PCOM Target = iota
	CNUM
	SCM
	SIMODA
	CPS
)

func (t Target) String() string {
	switch t {
	case PCOM:
		return "PCOM"
	case CNUM:
		return "CNUM"
	case SCM:
		return "SCM"
	case SIMODA:
		return "SIM_ODA"
	case CPS:
		return "cps"
	default:
		return "UNKNOWN"
	}
}

// Requirement is one cell of the rule matrix.
type Requirement int

const (
	// NotRequired means the field is never compared against that source.
	NotRequired Requirement = iota
	// FromValue means the comparison is mandatory whenever the source was supplied.
	FromValue
)

func (r Requirement) String() string {
	if r == FromValue {
		return "from_value"
	}
	return "NR"
}

// Status is the outcome of one comparison.
type Status int

const (
	Pass Status = iota
	Fail
	NR
	NA
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "Pass"
	case Fail:
		return "Fail"
	case NR:
		return "NR"
	default:
		return "N/A"
	}
}

// Kind selects the comparison function of a field.
type Kind int

const (
	Generic Kind = iota
	ICCID
	IMSI
	ASCIIIMSI
	PUK
)

func (k Kind) String() string {
	switch k {
	case ICCID:
		return "ICCID"
	case IMSI:
		return "IMSI"
	case ASCIIIMSI:
		return "ASCII_IMSI"
	case PUK:
		return "PUK"
	default:
		return "GENERIC"
	}
}

// Result is one (field, target) comparison record.
type Result struct {
	Field   string
	Target  Target
	Status  Status
	Message string
}

// Failed reports whether any result is a Fail.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status == Fail {
			return true
		}
	}
	return false
}

// Spec is the static description of one validated field: how it is compared and against
// which sources.
type Spec struct {
	Name  string
	Kind  Kind
	Rules map[Target]Requirement
}

// Requires reports whether the field must be compared against t.
func (s Spec) Requires(t Target) bool {
	return s.Rules[t] == FromValue
}
