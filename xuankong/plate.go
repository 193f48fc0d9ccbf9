package xuankong

import (
	"fmt"
)

// =============================================================================
// PLATE GENERATOR - Flying the period, mountain and facing stars
// =============================================================================

// PlateCell is one palace of a plate.
type PlateCell struct {
	Palace       Palace `json:"palace"`
	PeriodStar   Star   `json:"period_star"`
	MountainStar Star   `json:"mountain_star"`
	FacingStar   Star   `json:"facing_star"`
}

// Stars returns the three stars of the cell.
func (c PlateCell) Stars() [3]Star { return [3]Star{c.PeriodStar, c.MountainStar, c.FacingStar} }

// Plate is a full nine-palace star chart. Plates are values regenerated per
// call; nothing caches them.
type Plate struct {
	Cells     [9]PlateCell `json:"cells"` // Cells[i] is palace i+1
	Period    Period       `json:"period"`
	Seed      Star         `json:"seed"` // center period star
	Timeframe Timeframe    `json:"timeframe"`

	FacingDegrees  float64         `json:"facing_degrees"`
	Facing         MountainInfo    `json:"facing"`
	Sitting        MountainInfo    `json:"sitting"`
	MountainFlight FlightDirection `json:"mountain_flight"`
	FacingFlight   FlightDirection `json:"facing_flight"`

	ReferenceDate Date     `json:"reference_date,omitempty"`
	Ambiguous     bool     `json:"ambiguous"`
	RulesApplied  []string `json:"rules_applied,omitempty"`
}

// Cell returns the cell of palace p. Invalid palaces yield a zero cell.
func (pl Plate) Cell(p Palace) PlateCell {
	if !p.Valid() {
		return PlateCell{}
	}
	return pl.Cells[p-1]
}

func (pl Plate) FacingPalace() Palace  { return pl.Facing.Palace }
func (pl Plate) SittingPalace() Palace { return pl.Sitting.Palace }

// GenerateInput describes one plate to fly.
type GenerateInput struct {
	Period Period
	Facing Mountain

	// Seed overrides the center star; year, month and day plates set it to
	// their sub-period star. Zero means the period star.
	Seed      Star
	Timeframe Timeframe

	TiGua  bool
	FanGua bool

	FacingDegrees float64
	ReferenceDate Date
}

const (
	RuleTiguaMountain  = "tigua_mountain"
	RuleTiguaFacing    = "tigua_facing"
	RuleFanguaMountain = "fangua_mountain"
	RuleFanguaFacing   = "fangua_facing"
)

// GeneratePlate flies a plate. Periods outside 1-9 and unknown mountains are
// rejected, never clamped or guessed. Identical input yields an identical plate.
func GeneratePlate(in GenerateInput) (Plate, error) {
	if !in.Period.Valid() {
		return Plate{}, &InvalidPeriodError{Period: int(in.Period)}
	}
	facing, err := LookupMountain(in.Facing)
	if err != nil {
		return Plate{}, err
	}
	seed := in.Seed
	if seed == 0 {
		seed = in.Period.Star()
	}
	if !seed.Valid() {
		return Plate{}, &InputValidationError{Field: "seed", Value: int(seed), Reason: "must be within 1-9"}
	}
	tf := in.Timeframe
	if tf == "" {
		tf = TimeframePeriod
	}
	sitting := facing.Opposite()

	periodStars := fly(seed, Forward)

	var rules []string
	mSeed, mDir, mRules, err := deriveSeed(periodStars[sitting.Palace], sitting, in.TiGua, in.FanGua,
		RuleTiguaMountain, RuleFanguaMountain)
	if err != nil {
		return Plate{}, err
	}
	rules = append(rules, mRules...)
	fSeed, fDir, fRules, err := deriveSeed(periodStars[facing.Palace], facing, in.TiGua, in.FanGua,
		RuleTiguaFacing, RuleFanguaFacing)
	if err != nil {
		return Plate{}, err
	}
	rules = append(rules, fRules...)

	mountainStars := fly(mSeed, mDir)
	facingStars := fly(fSeed, fDir)

	plate := Plate{
		Period:         in.Period,
		Seed:           seed,
		Timeframe:      tf,
		FacingDegrees:  in.FacingDegrees,
		Facing:         facing,
		Sitting:        sitting,
		MountainFlight: mDir,
		FacingFlight:   fDir,
		ReferenceDate:  in.ReferenceDate,
		RulesApplied:   rules,
	}
	for _, p := range AllPalaces {
		plate.Cells[p-1] = PlateCell{
			Palace:       p,
			PeriodStar:   periodStars[p],
			MountainStar: mountainStars[p],
			FacingStar:   facingStars[p],
		}
	}
	return plate, nil
}

// fly places seed in the center and walks the Luoshu path, adding one per
// step when flying forward and subtracting one when flying in reverse.
// The result is indexed by palace; index 0 is unused.
func fly(seed Star, dir FlightDirection) [10]Star {
	step := 1
	if dir == Reverse {
		step = -1
	}
	var out [10]Star
	for i, p := range luoshuPath {
		out[p] = wrapStar(int(seed) + i*step)
	}
	return out
}

// deriveSeed turns the period star sitting in a reference palace into the
// seed and direction of the mountain or facing chart.
//
// Direction comes from the polarity of the mountain at the same yuan position
// in the seed's home palace; seed 5 has no home on the ring and borrows the
// reference mountain itself. FanGua swaps a seed equal to its palace number
// for the opposite star before anything else. TiGua replaces the seed with
// the substitute star of that home mountain but keeps the direction.
func deriveSeed(seed Star, ref MountainInfo, tigua, fangua bool, tiguaRule, fanguaRule string) (Star, FlightDirection, []string, error) {
	var rules []string
	if fangua && seed == ref.Palace.Home() {
		seed = seed.Complement()
		rules = append(rules, fanguaRule)
	}

	home, err := seedHomeMountain(seed, ref)
	if err != nil {
		return 0, Forward, nil, err
	}
	dir := home.Polarity.Flight()

	if tigua {
		if !home.TiguaStar.Valid() {
			return 0, Forward, nil, &RuleLookupError{Table: "tigua", Key: string(home.Name)}
		}
		if home.TiguaStar != seed {
			seed = home.TiguaStar
			rules = append(rules, tiguaRule)
		}
	}
	return seed, dir, rules, nil
}

func seedHomeMountain(seed Star, ref MountainInfo) (MountainInfo, error) {
	if !seed.Valid() {
		return MountainInfo{}, &RuleLookupError{Table: "flying_seed", Key: fmt.Sprintf("star %d", seed)}
	}
	if seed == 5 {
		return ref, nil
	}
	return MountainAt(Palace(seed), ref.Yuan)
}

// LayoutGrid is the conventional south-up drawing of the Luoshu square.
var LayoutGrid = [3][3]Palace{
	{PalaceXun, PalaceLi, PalaceKun},
	{PalaceZhen, PalaceCenter, PalaceDui},
	{PalaceGen, PalaceKan, PalaceQian},
}
