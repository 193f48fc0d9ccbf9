package xuankong

// =============================================================================
// PATTERN DETECTOR - Named cross-palace formations (geju)
// =============================================================================

type GejuType string

const (
	GejuWangShanWangXiang GejuType = "wang_shan_wang_xiang"
	GejuShangShanXiaShui  GejuType = "shang_shan_xia_shui"
	GejuDoubleStarFacing  GejuType = "double_star_facing"
	GejuDoubleStarSitting GejuType = "double_star_sitting"
	GejuTenMountain       GejuType = "combination_of_ten_mountain"
	GejuTenFacing         GejuType = "combination_of_ten_facing"
	GejuOppositeTen       GejuType = "opposite_combination_of_ten"
	GejuFacingPalaceTen   GejuType = "facing_palace_ten"
	GejuContinuousPearl   GejuType = "continuous_pearl"
	GejuParentString      GejuType = "parent_string"
	GejuLiPalaceRobbery   GejuType = "li_palace_robbery"
	GejuKanPalaceRobbery  GejuType = "kan_palace_robbery"
	GejuFuyinMountain     GejuType = "fuyin_mountain"
	GejuFuyinFacing       GejuType = "fuyin_facing"
	GejuFanyinMountain    GejuType = "fanyin_mountain"
	GejuFanyinFacing      GejuType = "fanyin_facing"
	GejuLingzhengReversed GejuType = "lingzheng_reversed"
)

var favorableGeju = map[GejuType]bool{
	GejuWangShanWangXiang: true,
	GejuDoubleStarFacing:  true,
	GejuTenMountain:       true,
	GejuTenFacing:         true,
	GejuOppositeTen:       true,
	GejuFacingPalaceTen:   true,
	GejuContinuousPearl:   true,
	GejuParentString:      true,
	GejuLiPalaceRobbery:   true,
	GejuKanPalaceRobbery:  true,
}

var unfavorableGeju = map[GejuType]bool{
	GejuShangShanXiaShui:  true,
	GejuFuyinMountain:     true,
	GejuFuyinFacing:       true,
	GejuFanyinMountain:    true,
	GejuFanyinFacing:      true,
	GejuLingzhengReversed: true,
}

// Favorable reports whether the pattern counts toward a favorable verdict.
func (g GejuType) Favorable() bool { return favorableGeju[g] }

// Unfavorable reports whether the pattern vetoes a favorable verdict.
func (g GejuType) Unfavorable() bool { return unfavorableGeju[g] }

// DescriptionKey is the message key a rendering layer translates.
func (g GejuType) DescriptionKey() string { return "geju." + string(g) }

// GejuResult lists every matching pattern. With no match Types is empty and
// IsFavorable is false.
type GejuResult struct {
	Types        []GejuType `json:"types"`
	Descriptions []string   `json:"descriptions"`
	IsFavorable  bool       `json:"is_favorable"`
}

// With returns a copy of the result with t appended and the verdict
// recomputed. Adding a type already present is a no-op.
func (r GejuResult) With(t GejuType) GejuResult {
	for _, x := range r.Types {
		if x == t {
			return r
		}
	}
	out := GejuResult{
		Types:        append(append([]GejuType{}, r.Types...), t),
		Descriptions: append(append([]string{}, r.Descriptions...), t.DescriptionKey()),
	}
	out.IsFavorable = verdict(out.Types)
	return out
}

func verdict(types []GejuType) bool {
	fav := false
	for _, t := range types {
		if t.Unfavorable() {
			return false
		}
		fav = fav || t.Favorable()
	}
	return fav
}

// DetectGeju checks every pattern against the plate. Patterns are not
// exclusive and are reported in a fixed order.
func DetectGeju(plate Plate) GejuResult {
	res := GejuResult{Types: []GejuType{}, Descriptions: []string{}}
	for _, d := range gejuDetectors {
		if d.match(plate) {
			res.Types = append(res.Types, d.kind)
			res.Descriptions = append(res.Descriptions, d.kind.DescriptionKey())
		}
	}
	res.IsFavorable = verdict(res.Types)
	return res
}

var gejuDetectors = []struct {
	kind  GejuType
	match func(Plate) bool
}{
	{GejuWangShanWangXiang, func(pl Plate) bool {
		ps := pl.Period.Star()
		return pl.Cell(pl.SittingPalace()).MountainStar == ps && pl.Cell(pl.FacingPalace()).FacingStar == ps
	}},
	{GejuShangShanXiaShui, func(pl Plate) bool {
		ps := pl.Period.Star()
		return pl.Cell(pl.SittingPalace()).FacingStar == ps && pl.Cell(pl.FacingPalace()).MountainStar == ps
	}},
	{GejuDoubleStarFacing, func(pl Plate) bool {
		c := pl.Cell(pl.FacingPalace())
		return c.MountainStar == pl.Period.Star() && c.FacingStar == pl.Period.Star()
	}},
	{GejuDoubleStarSitting, func(pl Plate) bool {
		c := pl.Cell(pl.SittingPalace())
		return c.MountainStar == pl.Period.Star() && c.FacingStar == pl.Period.Star()
	}},
	{GejuTenMountain, func(pl Plate) bool {
		return allCells(pl, func(c PlateCell) bool { return c.MountainStar+c.PeriodStar == 10 })
	}},
	{GejuTenFacing, func(pl Plate) bool {
		return allCells(pl, func(c PlateCell) bool { return c.FacingStar+c.PeriodStar == 10 })
	}},
	{GejuOppositeTen, func(pl Plate) bool {
		return sumsToTen(pl.Cell(pl.SittingPalace())) && sumsToTen(pl.Cell(pl.FacingPalace()))
	}},
	{GejuFacingPalaceTen, func(pl Plate) bool { return sumsToTen(pl.Cell(pl.FacingPalace())) }},
	{GejuContinuousPearl, func(pl Plate) bool { return allCells(pl, isContinuous) }},
	{GejuParentString, func(pl Plate) bool { return allCells(pl, isParentString) }},
	{GejuLiPalaceRobbery, func(pl Plate) bool { return robbery(pl, PalaceLi, [3]Palace{PalaceLi, PalaceZhen, PalaceQian}) }},
	{GejuKanPalaceRobbery, func(pl Plate) bool { return robbery(pl, PalaceKan, [3]Palace{PalaceKan, PalaceDui, PalaceXun}) }},
	{GejuFuyinMountain, func(pl Plate) bool {
		return allCells(pl, func(c PlateCell) bool { return c.MountainStar == c.Palace.Home() })
	}},
	{GejuFuyinFacing, func(pl Plate) bool {
		return allCells(pl, func(c PlateCell) bool { return c.FacingStar == c.Palace.Home() })
	}},
	{GejuFanyinMountain, func(pl Plate) bool {
		return allCells(pl, func(c PlateCell) bool { return c.MountainStar+c.Palace.Home() == 10 })
	}},
	{GejuFanyinFacing, func(pl Plate) bool {
		return allCells(pl, func(c PlateCell) bool { return c.FacingStar+c.Palace.Home() == 10 })
	}},
}

func allCells(pl Plate, pred func(PlateCell) bool) bool {
	for _, c := range pl.Cells {
		if !pred(c) {
			return false
		}
	}
	return true
}

func sumsToTen(c PlateCell) bool { return c.MountainStar+c.FacingStar == 10 }

// isContinuous reports whether the three stars of a cell run consecutively,
// wrapping 9 -> 1 (e.g. 8-9-1).
func isContinuous(c PlateCell) bool {
	stars := c.Stars()
	for _, s := range stars {
		want := [3]Star{s, s.Next(), s.Next().Next()}
		if sameStarSet(stars, want) {
			return true
		}
	}
	return false
}

// isParentString reports whether the cell holds one of 1-4-7, 2-5-8, 3-6-9.
func isParentString(c PlateCell) bool { return isParentSet(c.Stars()) }

func isParentSet(stars [3]Star) bool {
	if stars[0] == stars[1] || stars[1] == stars[2] || stars[0] == stars[2] {
		return false
	}
	r := stars[0] % 3
	return stars[1]%3 == r && stars[2]%3 == r
}

// robbery is the seven-star robbery: the ruling star doubles at a Li or Kan
// facing and the facing stars of the three linked palaces form a parent set.
func robbery(pl Plate, facing Palace, linked [3]Palace) bool {
	if pl.FacingPalace() != facing {
		return false
	}
	if c := pl.Cell(facing); c.MountainStar != pl.Period.Star() || c.FacingStar != pl.Period.Star() {
		return false
	}
	var stars [3]Star
	for i, p := range linked {
		stars[i] = pl.Cell(p).FacingStar
	}
	return isParentSet(stars)
}

func sameStarSet(a, b [3]Star) bool {
	var seen [10]int
	for _, s := range a {
		if !s.Valid() {
			return false
		}
		seen[s]++
	}
	for _, s := range b {
		if !s.Valid() || seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	return true
}
