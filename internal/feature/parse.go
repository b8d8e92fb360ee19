package feature

import (
	"carfit/internal/vehicle"
	"regexp"
	"strconv"
	"strings"
)

var (
	reNumber    = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
	reTyreWidth = regexp.MustCompile(`(\d{3})\s*/\s*\d{2}`)
	reRim       = regexp.MustCompile(`(?i)R\s*(\d{2})`)
	reAWD       = regexp.MustCompile(`(?i)4x4|4wd|awd`)

	reTransTokens = regexp.MustCompile(`(?i)\b(?:CVT|A/T|AT|M/T|MT|DCT)\b`)
	reTurbo       = regexp.MustCompile(`(?i)\bturbo\b|\b\d+(?:\.\d+)?\s*T\b|\b(?:TSI|TFSI|T-GDI|GDI-T|EcoBoost|BoosterJet|VTEC\s+Turbo|TwinPower\s+Turbo|D-4T)\b`)
)

// ParseNumber reads the first number in s. Thousands separators in either
// convention are tolerated ("1.497", "1,497 cc", "Rp 250.000.000").
// Returns vehicle.Unknown when no number is present.
func ParseNumber(s string) float64 {
	m := reNumber.FindString(s)
	if m == "" {
		return vehicle.Unknown
	}
	return parseNumberToken(m)
}

func parseNumberToken(m string) float64 {
	dots := strings.Count(m, ".")
	commas := strings.Count(m, ",")

	switch {
	case dots > 0 && commas > 0:
		// the separator that comes last is the decimal one
		if strings.LastIndex(m, ",") > strings.LastIndex(m, ".") {
			m = strings.ReplaceAll(m, ".", "")
			m = strings.Replace(m, ",", ".", 1)
		} else {
			m = strings.ReplaceAll(m, ",", "")
		}
	case dots > 1:
		m = strings.ReplaceAll(m, ".", "")
	case commas > 1:
		m = strings.ReplaceAll(m, ",", "")
	case dots == 1:
		if isThousandsGroup(m, ".") {
			m = strings.ReplaceAll(m, ".", "")
		}
	case commas == 1:
		if isThousandsGroup(m, ",") {
			m = strings.ReplaceAll(m, ",", "")
		} else {
			m = strings.Replace(m, ",", ".", 1)
		}
	}

	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return vehicle.Unknown
	}
	return f
}

// isThousandsGroup treats "1.497" and "12,000" as grouped integers but keeps "1.5" or "4.25" decimal.
func isThousandsGroup(m, sep string) bool {
	i := strings.Index(m, sep)
	return len(m)-i-1 == 3 && i <= 3 && m[0] != '0'
}

// ParseDimensions extracts length, width and height in millimetres from "L x W x H" text.
// Values given in metres (first number below 100) are scaled by 1000.
func ParseDimensions(s string) (length, width, height float64) {
	length, width, height = vehicle.Unknown, vehicle.Unknown, vehicle.Unknown

	normalized := strings.NewReplacer("×", " x ", "*", " x ", "X", " x ").Replace(s)
	var nums []float64
	for _, m := range reNumber.FindAllString(normalized, -1) {
		nums = append(nums, parseDimensionToken(m))
		if len(nums) == 3 {
			break
		}
	}
	if len(nums) < 3 {
		return
	}

	if nums[0] < 100 {
		for i := range nums {
			nums[i] *= 1000
		}
	}
	return nums[0], nums[1], nums[2]
}

// parseDimensionToken keeps decimals as decimals, since "4.425" in a dimension string means metres.
func parseDimensionToken(m string) float64 {
	if strings.Count(m, ".")+strings.Count(m, ",") == 1 {
		f, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
		if err == nil && f < 100 {
			return f
		}
	}
	return parseNumberToken(m)
}

// ParseWheel extracts tyre section width (mm) and rim diameter (inch) from text like "215/60 R17".
func ParseWheel(s string) (tyre, rim float64) {
	tyre, rim = vehicle.Unknown, vehicle.Unknown
	if m := reTyreWidth.FindStringSubmatch(s); m != nil {
		tyre, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := reRim.FindStringSubmatch(s); m != nil {
		rim, _ = strconv.ParseFloat(m[1], 64)
	}
	return
}

// HasAWD scans every text for 4x4, 4wd or awd.
func HasAWD(texts ...string) bool {
	for _, t := range texts {
		if reAWD.MatchString(t) {
			return true
		}
	}
	return false
}

// HasTurbo looks for forced-induction markers in the trim text once gearbox tokens are removed,
// so "1.5 AT" is not read as "1.5 T".
func HasTurbo(model string) bool {
	if model == "" {
		return false
	}
	cleaned := reTransTokens.ReplaceAllString(model, " ")
	return reTurbo.MatchString(cleaned)
}
