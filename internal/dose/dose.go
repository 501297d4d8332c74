// Package dose provides the caffeine dose arithmetic shared by the API and
// the client library. All functions are pure and safe for concurrent use.
package dose

import "math"

const (
	// DefaultDailyLimitMg is the recommended daily caffeine ceiling for adults.
	DefaultDailyLimitMg = 400
	// MaxConcentrationPer100ml bounds user-supplied concentrations (mg/100ml).
	MaxConcentrationPer100ml = 500
)

// Band classifies a daily total relative to the limit.
type Band string

const (
	BandNone     Band = "none"
	BandGood     Band = "good"
	BandModerate Band = "moderate"
	BandWarning  Band = "warning"
	BandCaution  Band = "caution"
	BandExceeded Band = "exceeded"
)

// Status pairs a band with its display message. The message is product copy;
// only the band is contractual.
type Status struct {
	Band    Band   `json:"band"`
	Message string `json:"message"`
}

// FromConcentration converts a concentration in mg per 100ml and a volume in
// ml into a whole-milligram dose. Rounding is half-away-from-zero. Callers
// are expected to clamp the concentration with ClampConcentration first; the
// function computes on whatever it receives.
func FromConcentration(mgPer100ml, volumeMl float64) int {
	return int(math.Round(mgPer100ml / 100 * volumeMl))
}

// FromPerMl converts a concentration in mg per ml and a volume in ml into a
// whole-milligram dose, rounding half-away-from-zero.
func FromPerMl(mgPerMl, volumeMl float64) int {
	return int(math.Round(mgPerMl * volumeMl))
}

// ClampConcentration restricts a mg/100ml value to [0, MaxConcentrationPer100ml].
func ClampConcentration(mgPer100ml float64) float64 {
	if mgPer100ml < 0 {
		return 0
	}
	if mgPer100ml > MaxConcentrationPer100ml {
		return MaxConcentrationPer100ml
	}
	return mgPer100ml
}

// ProgressPercent maps a running daily total onto [0, 100]. Totals at or
// beyond the limit saturate at 100. A non-positive limit falls back to
// DefaultDailyLimitMg.
func ProgressPercent(totalMg, limitMg int) float64 {
	if limitMg <= 0 {
		limitMg = DefaultDailyLimitMg
	}
	percent := float64(totalMg) / float64(limitMg) * 100
	if percent > 100 {
		return 100
	}
	if percent < 0 {
		return 0
	}
	return percent
}

// StatusBand maps a daily total onto one of six ordered bands. The cascade is
// evaluated top-down and the first matching band wins. A non-positive limit
// falls back to DefaultDailyLimitMg.
func StatusBand(totalMg, limitMg int) Status {
	if limitMg <= 0 {
		limitMg = DefaultDailyLimitMg
	}
	ratio := float64(totalMg) / float64(limitMg)

	switch {
	case totalMg == 0:
		return Status{Band: BandNone, Message: "No caffeine yet today - fresh start!"}
	case ratio < 0.25:
		return Status{Band: BandGood, Message: "Good start! You are well within the green zone."}
	case ratio < 0.50:
		return Status{Band: BandModerate, Message: "Moderate intake - still within bounds."}
	case ratio < 0.75:
		return Status{Band: BandWarning, Message: "Past the halfway mark - keep an eye on it."}
	case ratio < 1.00:
		return Status{Band: BandCaution, Message: "Close to the limit - go easy."}
	default:
		return Status{Band: BandExceeded, Message: "Daily limit exceeded! No further caffeine recommended."}
	}
}
