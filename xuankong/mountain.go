package xuankong

import (
	"fmt"
	"math"
)

// =============================================================================
// MOUNTAIN - The 24 mountains of the compass ring
// =============================================================================

// Mountain names one of the 24 fixed 15-degree compass sectors.
type Mountain string

const (
	MountainRen  Mountain = "ren"
	MountainZi   Mountain = "zi"
	MountainGui  Mountain = "gui"
	MountainChou Mountain = "chou"
	MountainGen  Mountain = "gen"
	MountainYin  Mountain = "yin"
	MountainJia  Mountain = "jia"
	MountainMao  Mountain = "mao"
	MountainYi   Mountain = "yi"
	MountainChen Mountain = "chen"
	MountainXun  Mountain = "xun"
	MountainSi   Mountain = "si"
	MountainBing Mountain = "bing"
	MountainWu   Mountain = "wu"
	MountainDing Mountain = "ding"
	MountainWei  Mountain = "wei"
	MountainKun  Mountain = "kun"
	MountainShen Mountain = "shen"
	MountainGeng Mountain = "geng"
	MountainYou  Mountain = "you"
	MountainXin  Mountain = "xin"
	MountainXu   Mountain = "xu"
	MountainQian Mountain = "qian"
	MountainHai  Mountain = "hai"
)

// Yuan is the position of a mountain inside its palace, clockwise:
// earth (first), heaven (middle), people (last).
type Yuan int

const (
	YuanEarth Yuan = iota
	YuanHeaven
	YuanPeople
)

func (y Yuan) String() string {
	switch y {
	case YuanEarth:
		return "earth"
	case YuanHeaven:
		return "heaven"
	default:
		return "people"
	}
}

func (y Yuan) MarshalText() ([]byte, error) { return []byte(y.String()), nil }

func (y *Yuan) UnmarshalText(b []byte) error {
	switch string(b) {
	case "earth":
		*y = YuanEarth
	case "heaven":
		*y = YuanHeaven
	case "people":
		*y = YuanPeople
	default:
		return &InputValidationError{Field: "yuan", Value: string(b), Reason: "must be earth, heaven or people"}
	}
	return nil
}

// Polarity decides whether a seed star flies forward (yang) or reverse (yin).
type Polarity string

const (
	PolarityYang Polarity = "yang"
	PolarityYin  Polarity = "yin"
)

// Flight maps a polarity to its flying direction.
func (p Polarity) Flight() FlightDirection {
	if p == PolarityYin {
		return Reverse
	}
	return Forward
}

// MountainInfo is the immutable description of one mountain.
type MountainInfo struct {
	Name     Mountain `json:"name"`
	Hanzi    string   `json:"hanzi"`
	Index    int      `json:"index"` // 0..23 clockwise from ren
	Palace   Palace   `json:"palace"`
	Yuan     Yuan     `json:"yuan"`
	Polarity Polarity `json:"polarity"`
	Start    float64  `json:"start"` // inclusive start bearing
	// TiguaStar is the replacement star used when the substitute-star rule
	// is in effect for a seed that lands on this mountain.
	TiguaStar Star `json:"tigua_star"`
}

// CenterBearing returns the canonical bearing at the middle of the sector.
func (m MountainInfo) CenterBearing() float64 {
	return math.Mod(m.Start+mountainSpan/2, 360)
}

// Opposite returns the mountain directly across the ring.
func (m MountainInfo) Opposite() MountainInfo {
	return mountainTable[(m.Index+12)%24]
}

const (
	mountainSpan  = 15.0
	firstMountain = 337.5 // ren starts here
)

// mountainTable is ordered clockwise from ren. Palace order along the ring:
// kan(1), gen(8), zhen(3), xun(4), li(9), kun(2), dui(7), qian(6).
//
// Polarity: in palaces 1,3,7,9 the earth mountain is yang and the heaven and
// people mountains are yin; in palaces 2,4,6,8 it is the other way round.
var mountainTable = buildMountainTable()

var mountainByName = func() map[Mountain]MountainInfo {
	idx := make(map[Mountain]MountainInfo, len(mountainTable))
	for _, m := range mountainTable {
		idx[m.Name] = m
	}
	return idx
}()

// mountainByPalace[palace][yuan]
var mountainByPalace = func() [10][3]MountainInfo {
	var idx [10][3]MountainInfo
	for _, m := range mountainTable {
		idx[m.Palace][m.Yuan] = m
	}
	return idx
}()

func buildMountainTable() [24]MountainInfo {
	type row struct {
		name  Mountain
		hanzi string
		tigua Star
	}
	ring := [8]struct {
		palace Palace
		rows   [3]row
	}{
		{PalaceKan, [3]row{{MountainRen, "壬", 2}, {MountainZi, "子", 1}, {MountainGui, "癸", 1}}},
		{PalaceGen, [3]row{{MountainChou, "丑", 7}, {MountainGen, "艮", 7}, {MountainYin, "寅", 9}}},
		{PalaceZhen, [3]row{{MountainJia, "甲", 1}, {MountainMao, "卯", 2}, {MountainYi, "乙", 2}}},
		{PalaceXun, [3]row{{MountainChen, "辰", 6}, {MountainXun, "巽", 6}, {MountainSi, "巳", 6}}},
		{PalaceLi, [3]row{{MountainBing, "丙", 7}, {MountainWu, "午", 9}, {MountainDing, "丁", 9}}},
		{PalaceKun, [3]row{{MountainWei, "未", 2}, {MountainKun, "坤", 2}, {MountainShen, "申", 1}}},
		{PalaceDui, [3]row{{MountainGeng, "庚", 9}, {MountainYou, "酉", 7}, {MountainXin, "辛", 7}}},
		{PalaceQian, [3]row{{MountainXu, "戌", 6}, {MountainQian, "乾", 6}, {MountainHai, "亥", 6}}},
	}

	var out [24]MountainInfo
	for i, seg := range ring {
		oddPalace := int(seg.palace)%2 == 1
		for j, r := range seg.rows {
			idx := i*3 + j
			yuan := Yuan(j)
			polarity := PolarityYin
			if (yuan == YuanEarth) == oddPalace {
				polarity = PolarityYang
			}
			out[idx] = MountainInfo{
				Name:      r.name,
				Hanzi:     r.hanzi,
				Index:     idx,
				Palace:    seg.palace,
				Yuan:      yuan,
				Polarity:  polarity,
				Start:     math.Mod(firstMountain+float64(idx)*mountainSpan, 360),
				TiguaStar: r.tigua,
			}
		}
	}
	return out
}

// LookupMountain returns the mountain with the given name.
func LookupMountain(name Mountain) (MountainInfo, error) {
	m, ok := mountainByName[name]
	if !ok {
		return MountainInfo{}, &InvalidMountainError{Mountain: string(name)}
	}
	return m, nil
}

// MountainAt returns the mountain at the given yuan position of a palace.
func MountainAt(p Palace, y Yuan) (MountainInfo, error) {
	if !p.IsOuter() || y < YuanEarth || y > YuanPeople {
		return MountainInfo{}, &RuleLookupError{Table: "mountains_by_palace", Key: palaceYuanKey(p, y)}
	}
	return mountainByPalace[p][y], nil
}

// AllMountains returns the 24 mountains clockwise from ren.
func AllMountains() []MountainInfo {
	out := make([]MountainInfo, len(mountainTable))
	copy(out, mountainTable[:])
	return out
}

func palaceYuanKey(p Palace, y Yuan) string {
	return fmt.Sprintf("palace %d/%s", p, y)
}
