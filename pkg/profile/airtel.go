package profile

import (
	"github.com/gregLibert/simcheck/pkg/decode"
	"github.com/gregLibert/simcheck/pkg/fields"
	"github.com/gregLibert/simcheck/pkg/sources"
)

const (
	keyFiller = "FFFFFFFFFFFFFFFF"
	pukFiller = "FFFFFFFF0A0A"
)

func airtel() Profile {
	return Profile{
		Name:     "AIRTEL",
		Strategy: Direct,
		Targets:  []fields.Target{fields.PCOM, fields.CNUM, fields.CPS},
		Specs: []fields.Spec{
			{Name: "PSK (6F2B)", Kind: fields.Generic, Rules: rules(fields.CPS)},
			{Name: "DEK1 (6F2B)", Kind: fields.Generic, Rules: rules(fields.CPS)},
			{Name: "IMSI", Kind: fields.IMSI, Rules: rules(fields.PCOM, fields.CNUM, fields.CPS)},
			{Name: "PUK1", Kind: fields.PUK, Rules: rules(fields.PCOM, fields.CNUM)},
			{Name: "PUK2", Kind: fields.PUK, Rules: rules(fields.PCOM, fields.CNUM)},
			{Name: "ADM", Kind: fields.Generic, Rules: rules(fields.PCOM)},
			{Name: "ICCID", Kind: fields.ICCID, Rules: rules(fields.PCOM, fields.CNUM, fields.CPS)},
			{Name: "KIC1 (6F22)", Kind: fields.Generic, Rules: rules(fields.CNUM, fields.CPS)},
			{Name: "KID1 (6F22)", Kind: fields.Generic, Rules: rules(fields.CNUM, fields.CPS)},
			{Name: "KIK1 (6F22)", Kind: fields.Generic, Rules: rules(fields.CPS)},
			{Name: "KIC2 (6F22)", Kind: fields.Generic, Rules: rules(fields.CPS)},
			{Name: "KID2 (6F22)", Kind: fields.Generic, Rules: rules(fields.CPS)},
			{Name: "KIK2 (6F22)", Kind: fields.Generic, Rules: rules(fields.CPS)},
			{Name: "ACC", Kind: fields.Generic, Rules: rules(fields.PCOM)},
		},
		Direct: []decode.LineDecoder{
			decode.BCD("IMSI", "00D6000009", 18),
			decode.Alnum("ICCID", "00D600000A", 20),
			decode.Split("00D600002AFE85400310", "FE80400210", 32, "PSK (6F2B)", "DEK1 (6F2B)"),
			decode.AfterFiller("PUK1", "00D6000015F00303", pukFiller, 16),
			decode.AfterFiller("PUK2", "00D6000015E00303", pukFiller, 16),
			decode.Hex("ADM", "00D600000B800A0A", 16),
			decode.Hex("ACC", "00D6000002", 4).WithPolicy(decode.LastMatch),
			decode.WithoutFiller("KIC1 (6F22)", "00DC01041BFE0110", keyFiller, 32),
			decode.WithoutFiller("KID1 (6F22)", "00DC02041BFE0111", keyFiller, 32),
			decode.WithoutFiller("KIK1 (6F22)", "00DC03041BFE0112", keyFiller, 32),
			decode.WithoutFiller("KIC2 (6F22)", "00DC04041BFE0050", keyFiller, 32),
			decode.WithoutFiller("KID2 (6F22)", "00DC05041BFE0051", keyFiller, 32),
			decode.WithoutFiller("KIK2 (6F22)", "00DC06041BFE0052", keyFiller, 32),
		},
		PCOM: []sources.Pattern{
			sources.Define("IMSI", `[0-9]+`, []string{"IMSI"}, "IMSI"),
			sources.Define("ICCID", `[0-9A-F]{18,20}`, []string{"ICCID"}, "ICCID"),
			sources.Define("PUK1", `[0-9A-F]{16}`, []string{"PUK1"}, "PUK1"),
			sources.Define("PUK2", `[0-9A-F]{16}`, []string{"PUK2"}, "PUK2"),
			sources.Define("ADM", `[0-9A-F]{16}`, []string{"ISC1"}, "ADM"),
			sources.Define("KIC1 (6F22)", `[0-9A-F]{32}`, []string{"KIC1"}, "KIC1"),
			sources.Define("KID1 (6F22)", `[0-9A-F]{32}`, []string{"KID1"}, "KID1"),
			sources.Define("ACC", `[0-9]{4}`, []string{"ACC"}, "ACC"),
		},
	}
}
