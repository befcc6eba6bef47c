package report

import (
	"path/filepath"
	"strings"

	"github.com/gregLibert/simcheck/pkg/normalize"
)

const fileSuffix = "_Validation_Report.txt"

// FileName derives the report name from the machine log path: the file stem without a "Log_"
// prefix, digit pairs swapped. "Log_89911234.txt" gives "98192143_Validation_Report.txt".
func FileName(machineLogPath string) string {
	base := filepath.Base(machineLogPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if len(stem) >= 4 && strings.EqualFold(stem[:4], "log_") {
		stem = stem[4:]
	}
	return normalize.SwapPairs(stem) + fileSuffix
}

// Path places the report for machineLogPath in dir, or next to the machine log when dir is empty.
func Path(dir, machineLogPath string) string {
	if dir == "" {
		dir = filepath.Dir(machineLogPath)
	}
	return filepath.Join(dir, FileName(machineLogPath))
}
