package xuankong

// =============================================================================
// LINGZHENG - Zero and main spirit palaces (零正)
// =============================================================================

// LingzhengEnvironment lists the palaces where the surroundings show water
// or mountains. Both lists are optional.
type LingzhengEnvironment struct {
	WaterPalaces    []Palace `json:"water_palaces"`
	MountainPalaces []Palace `json:"mountain_palaces"`
}

func (env LingzhengEnvironment) Validate() error {
	for _, list := range [2][]Palace{env.WaterPalaces, env.MountainPalaces} {
		for _, p := range list {
			if !p.IsOuter() {
				return &InputValidationError{Field: "environment.palace", Value: int(p), Reason: "must be an outer palace"}
			}
		}
	}
	return nil
}

const (
	LingzhengWaterAtLing     = "water_at_ling"
	LingzhengMountainAtZheng = "mountain_at_zheng"
	LingzhengWaterAtZheng    = "water_at_zheng"
	LingzhengMountainAtLing  = "mountain_at_ling"
)

// LingzhengResult names the two spirit palaces and what the environment
// puts in them.
type LingzhengResult struct {
	ZhengPalace Palace   `json:"zheng_palace"`
	LingPalace  Palace   `json:"ling_palace"`
	Findings    []string `json:"findings"`
	Favorable   bool     `json:"favorable"`
	Reversed    bool     `json:"reversed"`
}

// Lingzheng places the main spirit in the palace of the period number and the
// zero spirit opposite it. Period 5 has no outer palace and borrows Kun for
// its first ten years and Gen for the rest. Water belongs with the zero
// spirit and mountains with the main spirit; the reverse is a reversal.
func Lingzheng(info PeriodInfo, solarYear int, env LingzhengEnvironment) (LingzhengResult, error) {
	if !info.Period.Valid() {
		return LingzhengResult{}, &InvalidPeriodError{Period: int(info.Period)}
	}
	if err := env.Validate(); err != nil {
		return LingzhengResult{}, err
	}
	zheng := Palace(info.Period)
	if zheng == PalaceCenter {
		zheng = PalaceKun
		if solarYear-info.StartYear >= periodLength/2 {
			zheng = PalaceGen
		}
	}
	res := LingzhengResult{ZhengPalace: zheng, LingPalace: zheng.Opposite(), Findings: []string{}}

	has := func(list []Palace, p Palace) bool {
		for _, x := range list {
			if x == p {
				return true
			}
		}
		return false
	}
	if has(env.WaterPalaces, res.LingPalace) {
		res.Findings = append(res.Findings, LingzhengWaterAtLing)
		res.Favorable = true
	}
	if has(env.MountainPalaces, res.ZhengPalace) {
		res.Findings = append(res.Findings, LingzhengMountainAtZheng)
		res.Favorable = true
	}
	if has(env.WaterPalaces, res.ZhengPalace) {
		res.Findings = append(res.Findings, LingzhengWaterAtZheng)
		res.Reversed = true
	}
	if has(env.MountainPalaces, res.LingPalace) {
		res.Findings = append(res.Findings, LingzhengMountainAtLing)
		res.Reversed = true
	}
	if res.Reversed {
		res.Favorable = false
	}
	return res, nil
}
