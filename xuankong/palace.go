package xuankong

// =============================================================================
// PALACE - The nine Luoshu palaces
// =============================================================================

// Palace is a Luoshu palace index. The index doubles as the palace's home
// ("earth plate") star: palace 1 is home to star 1 and so on.
type Palace int

const (
	PalaceKan    Palace = 1 // north
	PalaceKun    Palace = 2 // southwest
	PalaceZhen   Palace = 3 // east
	PalaceXun    Palace = 4 // southeast
	PalaceCenter Palace = 5
	PalaceQian   Palace = 6 // northwest
	PalaceDui    Palace = 7 // west
	PalaceGen    Palace = 8 // northeast
	PalaceLi     Palace = 9 // south
)

func (p Palace) Valid() bool { return p >= 1 && p <= 9 }

// IsOuter reports whether the palace has a compass sector (not the center).
func (p Palace) IsOuter() bool { return p.Valid() && p != PalaceCenter }

// Home returns the palace's own Luoshu star.
func (p Palace) Home() Star { return Star(p) }

// Opposite returns the palace across the center. The center is its own opposite.
func (p Palace) Opposite() Palace { return Palace(10 - int(p)) }

// Info returns the static description of the palace.
func (p Palace) Info() PalaceInfo {
	if !p.Valid() {
		return PalaceInfo{}
	}
	return palaceTable[p]
}

// Trigram names follow the later-heaven (King Wen) arrangement.
type Trigram string

const (
	TrigramKan    Trigram = "kan"
	TrigramKun    Trigram = "kun"
	TrigramZhen   Trigram = "zhen"
	TrigramXun    Trigram = "xun"
	TrigramCenter Trigram = "center"
	TrigramQian   Trigram = "qian"
	TrigramDui    Trigram = "dui"
	TrigramGen    Trigram = "gen"
	TrigramLi     Trigram = "li"
)

// PalaceInfo is the immutable description of one palace. SectorStart and
// SectorEnd bound the closed-open compass arc [start, end) in degrees; the
// north sector wraps through 0. The center has no sector.
type PalaceInfo struct {
	Index       Palace  `json:"index"`
	Trigram     Trigram `json:"trigram"`
	Element     Element `json:"element"`
	Direction   string  `json:"direction"`
	SectorStart float64 `json:"sector_start"`
	SectorEnd   float64 `json:"sector_end"`
	HasSector   bool    `json:"has_sector"`
}

var palaceTable = [10]PalaceInfo{
	1: {Index: 1, Trigram: TrigramKan, Element: ElementWater, Direction: "north", SectorStart: 337.5, SectorEnd: 22.5, HasSector: true},
	2: {Index: 2, Trigram: TrigramKun, Element: ElementEarth, Direction: "southwest", SectorStart: 202.5, SectorEnd: 247.5, HasSector: true},
	3: {Index: 3, Trigram: TrigramZhen, Element: ElementWood, Direction: "east", SectorStart: 67.5, SectorEnd: 112.5, HasSector: true},
	4: {Index: 4, Trigram: TrigramXun, Element: ElementWood, Direction: "southeast", SectorStart: 112.5, SectorEnd: 157.5, HasSector: true},
	5: {Index: 5, Trigram: TrigramCenter, Element: ElementEarth, Direction: "center"},
	6: {Index: 6, Trigram: TrigramQian, Element: ElementMetal, Direction: "northwest", SectorStart: 292.5, SectorEnd: 337.5, HasSector: true},
	7: {Index: 7, Trigram: TrigramDui, Element: ElementMetal, Direction: "west", SectorStart: 247.5, SectorEnd: 292.5, HasSector: true},
	8: {Index: 8, Trigram: TrigramGen, Element: ElementEarth, Direction: "northeast", SectorStart: 22.5, SectorEnd: 67.5, HasSector: true},
	9: {Index: 9, Trigram: TrigramLi, Element: ElementFire, Direction: "south", SectorStart: 157.5, SectorEnd: 202.5, HasSector: true},
}

// AllPalaces lists the palaces in Luoshu index order.
var AllPalaces = [9]Palace{1, 2, 3, 4, 5, 6, 7, 8, 9}

// luoshuPath is the flying path starting from the center:
// center -> NW -> W -> NE -> S -> N -> SW -> E -> SE.
var luoshuPath = [9]Palace{5, 6, 7, 8, 9, 1, 2, 3, 4}

// outerRing lists the outer palaces clockwise from north.
var outerRing = [8]Palace{1, 8, 3, 4, 9, 2, 7, 6}

// neighbors returns the two outer palaces flanking p on the compass ring.
func neighbors(p Palace) (Palace, Palace) {
	for i, q := range outerRing {
		if q == p {
			return outerRing[(i+7)%8], outerRing[(i+1)%8]
		}
	}
	return 0, 0
}
