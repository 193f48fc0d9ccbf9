package xuankong

import "math"

// =============================================================================
// DIRECTION RESOLVER - Bearing to facing/sitting mountains
// =============================================================================

const (
	// concurrentThreshold is the offset from a mountain's center beyond which
	// the facing is treated as a concurrent (兼向) line that calls for the
	// substitute-star rule.
	concurrentThreshold = 4.5

	// voidLineThreshold is the distance to a palace edge that marks the
	// void line between two trigrams.
	voidLineThreshold = 1.5
)

// Direction is the resolved facing/sitting pair for one bearing.
type Direction struct {
	Bearing       float64      `json:"bearing"` // normalized to [0, 360)
	Facing        MountainInfo `json:"facing"`
	FacingPalace  Palace       `json:"facing_palace"`
	Sitting       MountainInfo `json:"sitting"`
	SittingPalace Palace       `json:"sitting_palace"`

	// OffsetFromCenter is the signed distance (degrees) between the bearing
	// and the facing mountain's center; positive is clockwise.
	OffsetFromCenter   float64 `json:"offset_from_center"`
	Concurrent         bool    `json:"concurrent"`
	NearPalaceBoundary bool    `json:"near_palace_boundary"`
}

// ResolveDirection maps a facing bearing to its mountain and palace and the
// opposite sitting mountain and palace. Bearings are normalized modulo 360;
// NaN and infinities are rejected. Sectors are closed-open [start, start+15),
// so a bearing exactly on a boundary belongs to the mountain starting there.
func ResolveDirection(bearing float64) (Direction, error) {
	facing, norm, err := mountainForBearing(bearing)
	if err != nil {
		return Direction{}, err
	}
	sitting := facing.Opposite()

	offset := signedDelta(norm, facing.CenterBearing())
	return Direction{
		Bearing:            norm,
		Facing:             facing,
		FacingPalace:       facing.Palace,
		Sitting:            sitting,
		SittingPalace:      sitting.Palace,
		OffsetFromCenter:   offset,
		Concurrent:         math.Abs(offset) > concurrentThreshold,
		NearPalaceBoundary: nearPalaceEdge(norm),
	}, nil
}

// MountainForBearing returns only the mountain containing the bearing.
func MountainForBearing(bearing float64) (MountainInfo, error) {
	m, _, err := mountainForBearing(bearing)
	return m, err
}

// NormalizeBearing folds any finite bearing into [0, 360).
func NormalizeBearing(bearing float64) (float64, error) {
	if math.IsNaN(bearing) || math.IsInf(bearing, 0) {
		return 0, &InputValidationError{Field: "facing_degrees", Value: bearing, Reason: "must be a finite number"}
	}
	n := math.Mod(bearing, 360)
	if n < 0 {
		n += 360
	}
	// A tiny negative remainder can round up to exactly 360.
	if n >= 360 {
		n = 0
	}
	return n, nil
}

func mountainForBearing(bearing float64) (MountainInfo, float64, error) {
	norm, err := NormalizeBearing(bearing)
	if err != nil {
		return MountainInfo{}, 0, err
	}
	shifted := norm - firstMountain
	if shifted < 0 {
		shifted += 360
	}
	idx := int(math.Floor(shifted / mountainSpan))
	if idx < 0 || idx >= len(mountainTable) {
		return MountainInfo{}, norm, &RuleLookupError{Table: "mountains", Key: "bearing sector"}
	}
	return mountainTable[idx], norm, nil
}

// signedDelta returns a-b folded into [-180, 180).
func signedDelta(a, b float64) float64 {
	d := math.Mod(a-b+540, 360) - 180
	return d
}

// nearPalaceEdge reports whether the bearing lies within the void-line
// threshold of a palace boundary (22.5 + 45k).
func nearPalaceEdge(bearing float64) bool {
	rel := math.Mod(bearing-22.5+360, 45)
	return rel <= voidLineThreshold || 45-rel <= voidLineThreshold
}
