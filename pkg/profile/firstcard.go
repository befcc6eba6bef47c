package profile

import (
	"regexp"

	"github.com/gregLibert/simcheck/pkg/decode"
	"github.com/gregLibert/simcheck/pkg/fields"
	"github.com/gregLibert/simcheck/pkg/sources"
)

// Field names of the first-card profiles. The file ID in parentheses is the EF the value is
// written to.
const (
	PSK        = "PSK (6F2B)"
	DEK1       = "DEK1 (6F2B)"
	GlobalIMSI = "GLOBAL_IMSI (3031)"
	HomeIMSI   = "HOME_IMSI (6F07)"
	GlobalACC  = "GLOBAL_ACC (3037)"
	HomeACC    = "HOME_ACC (6F78)"
	HomeACC37  = "HOME_ACC (3037)"
	DPUK1      = "DPUK1_CARD (6F01)"
	DPUK2      = "DPUK2_CARD (6F81)"
	ADM        = "ADM (6F0A)"
	ICCIDCard  = "ICCID_CARD (2FE2)"
	KIC1       = "KIC1 (6F22)"
	KID1       = "KID1 (6F22)"
	KIK1       = "KIK1 (6F22)"
	KIC2       = "KIC2 (6F22)"
	KID2       = "KID2 (6F22)"
	KIK2       = "KIK2 (6F22)"
	ASCIIIMSI2 = "ASCII_IMSI (6F02)"
	ASCIIIMSI4 = "ASCII_IMSI (6F04)"
)

var (
	pskExpr   = regexp.MustCompile(`SecurityKey\([^,]+, [^,]+, PskTls, ([^,]+),`)
	dekExpr   = regexp.MustCompile(`SecurityKey\([^,]+, [^,]+, Management, ([^,]+),`)
	imsiExpr  = regexp.MustCompile(`Imsi\((\w+)\)`)
	iccidExpr = regexp.MustCompile(`Iccid\(([^,]+),.*\)`)
	encExpr   = regexp.MustCompile(`SecurityKey\(.*, Encryption, (\w+)\)`)
	authExpr  = regexp.MustCompile(`SecurityKey\(.*, Authentication, (\w+)\)`)

	fvAll = []fields.Target{fields.PCOM, fields.CNUM, fields.SCM, fields.SIMODA}
)

func firstCardSpecs() []fields.Spec {
	return []fields.Spec{
		{Name: PSK, Kind: fields.Generic, Rules: rules(fields.SIMODA)},
		{Name: DEK1, Kind: fields.Generic, Rules: rules(fields.SIMODA)},
		{Name: GlobalIMSI, Kind: fields.IMSI, Rules: rules(fvAll...)},
		{Name: HomeIMSI, Kind: fields.IMSI, Rules: rules(fvAll...)},
		{Name: GlobalACC, Kind: fields.Generic, Rules: rules(fields.PCOM)},
		{Name: HomeACC, Kind: fields.Generic, Rules: rules(fields.PCOM)},
		{Name: DPUK1, Kind: fields.PUK, Rules: rules(fields.PCOM, fields.CNUM)},
		{Name: DPUK2, Kind: fields.PUK, Rules: rules(fields.PCOM, fields.CNUM)},
		{Name: ADM, Kind: fields.Generic, Rules: rules(fields.PCOM)},
		{Name: ICCIDCard, Kind: fields.ICCID, Rules: rules(fvAll...)},
		{Name: KIC1, Kind: fields.Generic, Rules: rules(fields.SIMODA)},
		{Name: KID1, Kind: fields.Generic, Rules: rules(fields.SIMODA)},
		{Name: KIC2, Kind: fields.Generic, Rules: rules(fields.SIMODA)},
		{Name: KID2, Kind: fields.Generic, Rules: rules(fields.SIMODA)},
		{Name: ASCIIIMSI2, Kind: fields.ASCIIIMSI, Rules: rules(fvAll...)},
		{Name: ASCIIIMSI4, Kind: fields.ASCIIIMSI, Rules: rules(fvAll...)},
		{Name: HomeACC37, Kind: fields.Generic, Rules: rules(fields.PCOM)},
	}
}

// selectRule builds a lookahead rule whose decoders let a later SELECT override earlier values.
func selectRule(fid string, window int, data ...decode.LineDecoder) decode.SelectRule {
	for i := range data {
		data[i] = data[i].WithPolicy(decode.LastMatch)
	}
	return decode.SelectRule{FileID: fid, Window: window, Data: data}
}

func firstCardSelect() []decode.SelectRule {
	return []decode.SelectRule{
		selectRule("2FE2", DefaultWindow, decode.Hex(ICCIDCard, "00D600000A", 20)),
		selectRule("6F07", DefaultWindow, decode.BCD(HomeIMSI, "00D6000009", 18)),
		selectRule("6F2B", DefaultWindow, decode.Split("00D600002AFE85410110", "FE80410210", 32, PSK, DEK1)),
		selectRule("6F01", DefaultWindow, decode.AfterFiller(DPUK1, "00D6000015F00A0A", pukFiller, 16)),
		selectRule("6F81", DefaultWindow, decode.AfterFiller(DPUK2, "00D6000015E00A0A", pukFiller, 16)),
		selectRule("6F0A", DefaultWindow, decode.Hex(ADM, "00D600000B800A0A", 16)),
		selectRule("6F78", DefaultWindow, decode.Hex(HomeACC, "00D6000002", 4)),
		selectRule("3031", DefaultWindow, decode.BCD(GlobalIMSI, "00D6000009", 18)),
		selectRule("3037", DefaultWindow, decode.Segments("00D60000120000000300000002FFFFFFFF",
			decode.Segment{Field: GlobalACC, Offset: 0, Length: 4},
			decode.Segment{Field: HomeACC37, Offset: 4, Length: 4},
		)),
		selectRule(KeyFileID, DefaultKeyWindow,
			decode.WithoutFiller(KIC1, "00DC01041BFE0150", keyFiller, 32),
			decode.WithoutFiller(KID1, "00DC02041BFE0151", keyFiller, 32),
			decode.WithoutFiller(KIK1, "00DC03041BFE0152", keyFiller, 32),
			decode.WithoutFiller(KIC2, "00DC04041BFE0250", keyFiller, 32),
			decode.WithoutFiller(KID2, "00DC05041BFE0251", keyFiller, 32),
			decode.WithoutFiller(KIK2, "00DC06041BFE0252", keyFiller, 32),
		),
		selectRule("6F02", DefaultWindow, decode.Hex(ASCIIIMSI2, "00D600005F8031", 30)),
		selectRule("6F04", DefaultWindow, decode.Hex(ASCIIIMSI4, "00DC01047880357369703A", 30)),
	}
}

func firstCardCells() (cnum, scm []sources.Cell) {
	cnum = []sources.Cell{
		{Field: GlobalIMSI, Line: 16, Column: 2, FirstToken: true},
		{Field: HomeIMSI, Line: 16, Column: 2, FirstToken: true},
		{Field: ASCIIIMSI2, Line: 16, Column: 2, FirstToken: true},
		{Field: ASCIIIMSI4, Line: 16, Column: 2, FirstToken: true},
		{Field: ICCIDCard, Line: 16, Column: 4},
		{Field: DPUK1, Line: 16, Column: 6},
		{Field: DPUK2, Line: 16, Column: 8},
	}
	scm = []sources.Cell{
		{Field: GlobalIMSI, Line: 2, Column: 3},
		{Field: HomeIMSI, Line: 2, Column: 3},
		{Field: ICCIDCard, Line: 2, Column: 2},
		{Field: ASCIIIMSI2, Line: 2, Column: 3},
		{Field: ASCIIIMSI4, Line: 2, Column: 3},
	}
	return cnum, scm
}

// simODAAnchors places the anchored values relative to the ICCID line of the card block.
func simODAAnchors(iccidLine int) []sources.Anchor {
	imsiLine := iccidLine + 9
	return []sources.Anchor{
		{Field: PSK, Line: iccidLine + 5, Expr: pskExpr},
		{Field: DEK1, Line: iccidLine + 6, Expr: dekExpr},
		{Field: GlobalIMSI, Line: imsiLine, Expr: imsiExpr},
		{Field: HomeIMSI, Line: imsiLine, Expr: imsiExpr},
		{Field: ICCIDCard, Line: iccidLine, Expr: iccidExpr},
		{Field: ASCIIIMSI2, Line: imsiLine, Expr: imsiExpr},
		{Field: ASCIIIMSI4, Line: imsiLine, Expr: imsiExpr},
	}
}

func simODAOrdered() []sources.Ordered {
	return []sources.Ordered{
		{Field: KIC1, Expr: encExpr, Index: 0},
		{Field: KID1, Expr: authExpr, Index: 0},
		{Field: KIC2, Expr: encExpr, Index: 1},
		{Field: KID2, Expr: authExpr, Index: 1},
	}
}

func pcomDefine(field, value string, names ...string) sources.Pattern {
	key := names[len(names)-1]
	return sources.Define(field, value, names[:len(names)-1], key)
}

func firstCard(name string, pcom []sources.Pattern, iccidLine int) Profile {
	cnum, scm := firstCardCells()
	return Profile{
		Name:          name,
		Strategy:      Lookahead,
		Targets:       fvAll,
		Specs:         firstCardSpecs(),
		Select:        firstCardSelect(),
		PCOM:          pcom,
		CNUMCells:     cnum,
		SCMCells:      scm,
		SIMODAAnchors: simODAAnchors(iccidLine),
		SIMODAOrdered: simODAOrdered(),
		StrictLength:  true,
	}
}

// pcomDefines lists the PCOM expressions of MOB and WBIOT. The last name of each call is the
// `KEY =` form.
func pcomDefines() []sources.Pattern {
	return []sources.Pattern{
		pcomDefine(GlobalIMSI, `[0-9]+`, "HOME_IMSI", "IMSI"),
		pcomDefine(HomeIMSI, `[0-9]+`, "HOME_IMSI", "IMSI"),
		pcomDefine(GlobalACC, `[0-9]+`, "HOME_ACC", "ACC"),
		pcomDefine(HomeACC, `[0-9]+`, "HOME_ACC", "ACC"),
		pcomDefine(DPUK1, `[0-9]+`, "PUK1", "DPUK1_CARD", "PUK1"),
		pcomDefine(DPUK2, `[0-9]+`, "PUK2", "DPUK2_CARD", "PUK2"),
		pcomDefine(ADM, `[0-9A-F]+`, "ISC1", "ADM1_CARD", "ADM"),
		pcomDefine(ICCIDCard, `[0-9]+`, "ICCID", "ICCID_CARD", "ICCID"),
		pcomDefine(ASCIIIMSI2, `[0-9]+`, "ASCII_IMSI", "ASCII_IMSI"),
		pcomDefine(ASCIIIMSI4, `[0-9]+`, "ASCII_IMSI", "ASCII_IMSI"),
		pcomDefine(HomeACC37, `[0-9]+`, "HOME_ACC", "ACC"),
	}
}

func nbiotPCOMDefines() []sources.Pattern {
	return []sources.Pattern{
		pcomDefine(HomeIMSI, `[0-9]+`, "IMSI", "HOME_IMSI", "IMSI"),
		pcomDefine(HomeACC, `[0-9]+`, "ACC", "HOME_ACC", "ACC"),
		pcomDefine(DPUK1, `[0-9]+`, "PUK1", "DPUK1_CARD", "PUK1"),
		pcomDefine(DPUK2, `[0-9]+`, "PUK2", "DPUK2_CARD", "PUK2"),
		pcomDefine(ADM, `[0-9A-F]+`, "ISC1", "ADM1_CARD", "ADM"),
		pcomDefine(ICCIDCard, `[0-9]+`, "ICCID", "ICCID_CARD", "ICCID"),
	}
}

// SIM-ODA line of the Iccid statement in the MOB/WBIOT and NBIOT file layouts.
const (
	simODAIccidLine      = 346
	simODAIccidLineNBIoT = 121
)

func mob() Profile {
	return firstCard("MOB", pcomDefines(), simODAIccidLine)
}

func wbiot() Profile {
	return firstCard("WBIOT", pcomDefines(), simODAIccidLine).without(GlobalIMSI, GlobalACC, HomeACC37)
}

func nbiot() Profile {
	return firstCard("NBIOT", nbiotPCOMDefines(), simODAIccidLineNBIoT).
		without(GlobalIMSI, GlobalACC, HomeACC37, ASCIIIMSI2, ASCIIIMSI4)
}
