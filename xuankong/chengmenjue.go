package xuankong

// =============================================================================
// CHENGMENJUE - City gate formula (城门诀)
// =============================================================================

// hetuPairs are the river-chart pairings 1-6, 2-7, 3-8, 4-9.
var hetuPairs = map[Palace]Palace{1: 6, 6: 1, 2: 7, 7: 2, 3: 8, 8: 3, 4: 9, 9: 4}

// Gate is one of the two palaces flanking the facing palace.
type Gate struct {
	Palace Palace          `json:"palace"`
	Main   bool            `json:"main"`
	Star   Star            `json:"star"` // period star in the gate palace
	Flight FlightDirection `json:"flight"`
	Usable bool            `json:"usable"`
}

// ChengmenjueResult lists the gates of the facing palace, main gate first.
type ChengmenjueResult struct {
	FacingPalace Palace `json:"facing_palace"`
	Gates        []Gate `json:"gates"`
	Usable       bool   `json:"usable"`
}

// Chengmenjue checks both gates of the facing palace. The gate's period star
// is moved to the center and flown in the direction of the mountain at the
// facing yuan in that star's home palace (star 5 borrows the gate mountain).
// A gate is usable when the flight brings the ruling period star back to it.
func Chengmenjue(plate Plate) (ChengmenjueResult, error) {
	fp := plate.FacingPalace()
	left, right := neighbors(fp)
	if left == 0 {
		return ChengmenjueResult{}, &RuleLookupError{Table: "outer_ring", Key: palaceYuanKey(fp, plate.Facing.Yuan)}
	}
	res := ChengmenjueResult{FacingPalace: fp, Gates: make([]Gate, 0, 2)}
	for _, gp := range [2]Palace{left, right} {
		gateMountain, err := MountainAt(gp, plate.Facing.Yuan)
		if err != nil {
			return ChengmenjueResult{}, err
		}
		star := plate.Cell(gp).PeriodStar
		home, err := seedHomeMountain(star, gateMountain)
		if err != nil {
			return ChengmenjueResult{}, err
		}
		g := Gate{
			Palace: gp,
			Main:   hetuPairs[fp] == gp,
			Star:   star,
			Flight: home.Polarity.Flight(),
		}
		g.Usable = fly(g.Star, g.Flight)[gp] == plate.Period.Star()
		res.Usable = res.Usable || g.Usable
		if g.Main {
			res.Gates = append([]Gate{g}, res.Gates...)
		} else {
			res.Gates = append(res.Gates, g)
		}
	}
	return res, nil
}
