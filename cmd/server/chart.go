package main

import (
	"fmt"
	"strings"

	"github.com/qiflow/flyingstar/xuankong"
)

// renderChart draws the period plate south-up. Each cell reads
// "mountain facing / period" with the palace direction underneath.
func renderChart(period int, facing float64, tigua, fangua bool) (string, error) {
	dir, err := xuankong.ResolveDirection(facing)
	if err != nil {
		return "", err
	}
	plate, err := xuankong.GeneratePlate(xuankong.GenerateInput{
		Period:        xuankong.Period(period),
		Facing:        dir.Facing.Name,
		Timeframe:     xuankong.TimeframePeriod,
		TiGua:         tigua,
		FanGua:        fangua,
		FacingDegrees: dir.Bearing,
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Period %d, sitting %s facing %s (%.1f°)\n",
		plate.Period, plate.Sitting.Name, plate.Facing.Name, dir.Bearing)

	sep := "+" + strings.Repeat("-----------+", 3) + "\n"
	b.WriteString(sep)
	for _, row := range xuankong.LayoutGrid {
		var stars, names strings.Builder
		for _, p := range row {
			c := plate.Cell(p)
			fmt.Fprintf(&stars, "|  %d  %d  %d  ", c.MountainStar, c.FacingStar, c.PeriodStar)
			fmt.Fprintf(&names, "| %-9s ", p.Info().Direction)
		}
		b.WriteString(stars.String() + "|\n")
		b.WriteString(names.String() + "|\n")
		b.WriteString(sep)
	}
	for _, r := range plate.RulesApplied {
		fmt.Fprintf(&b, "rule: %s\n", r)
	}
	return b.String(), nil
}
