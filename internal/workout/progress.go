package workout

import (
	"fmt"
	"math"

	"github.com/2beens/gymsession/pkg"
)

// Estimate1RM estimates the one rep max with the Epley formula.
func Estimate1RM(weightKg float64, reps int) pkg.Optional[float64] {
	if reps <= 0 || weightKg <= 0 {
		return pkg.None[float64]()
	}
	if reps == 1 {
		return pkg.Some(weightKg)
	}
	return pkg.Some(weightKg * (1 + float64(reps)/30))
}

// BestEstimated1RM is the highest estimate over the sets having both values.
func BestEstimated1RM(sets []SetRecord) pkg.Optional[float64] {
	best := pkg.None[float64]()
	for _, s := range sets {
		reps, repsOk := s.Reps.Get()
		weight, weightOk := s.WeightKg.Get()
		if !repsOk || !weightOk {
			continue
		}
		est, ok := Estimate1RM(weight, reps).Get()
		if !ok {
			continue
		}
		if cur, ok := best.Get(); !ok || est > cur {
			best = pkg.Some(est)
		}
	}
	return best
}

// FormatVolume renders a lifted volume, in tonnes from 1000 kg on.
func FormatVolume(volumeKg float64) string {
	if volumeKg >= 1000 {
		return fmt.Sprintf("%.1ft", volumeKg/1000)
	}
	return fmt.Sprintf("%d kg", int64(math.Round(volumeKg)))
}

func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dh", hours)
}

// FormatDurationDiff renders a signed difference as +m:ss / -m:ss.
func FormatDurationDiff(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%d:%02d", sign, seconds/60, seconds%60)
}
