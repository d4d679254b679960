package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// obbMaxSeparatingGap computes the maximum separation gap across all 15 SAT axes
// for two oriented bounding boxes using Ericson's precomputed R-matrix formulation
// ("Real-Time Collision Detection" Ch. 4.4).
//
// Returns the maximum gap across all 15 axes:
//   - Positive: boxes are separated by at least this distance. This is a tight
//     lower bound on the true Euclidean distance, exact for face-face and
//     face-vertex closest features.
//   - Negative: boxes overlap with this penetration depth.
func obbMaxSeparatingGap(rmA, rmB *RotationMatrix, halfA, halfB [3]float64, centerDist r3.Vector) float64 {
	const eps = 1e-10

	// t[i] = rmA.Row(i) . centerDist, the center distance in A's frame.
	var t [3]float64
	for i := 0; i < 3; i++ {
		t[i] = rmA.Row(i).Dot(centerDist)
	}

	// r[i][j] = rmA.Row(i) . rmB.Row(j), the relative rotation.
	// absR adds eps to prevent issues with near-parallel edges.
	var r, absR [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = rmA.Row(i).Dot(rmB.Row(j))
			absR[i][j] = math.Abs(r[i][j]) + eps
		}
	}

	best := math.Inf(-1)

	// 3 face axes from A.
	for i := 0; i < 3; i++ {
		g := math.Abs(t[i]) - halfA[i] - (halfB[0]*absR[i][0] + halfB[1]*absR[i][1] + halfB[2]*absR[i][2])
		if g > best {
			best = g
		}
	}

	// 3 face axes from B.
	for j := 0; j < 3; j++ {
		g := math.Abs(t[0]*r[0][j]+t[1]*r[1][j]+t[2]*r[2][j]) - halfB[j] -
			(halfA[0]*absR[0][j] + halfA[1]*absR[1][j] + halfA[2]*absR[2][j])
		if g > best {
			best = g
		}
	}

	// 9 edge axes (a_i x b_j) with sqrt(1 - r[i][j]^2) normalization. Skip
	// degenerate (near-parallel) edges where the cross product vanishes.
	for i := 0; i < 3; i++ {
		i1, i2 := (i+1)%3, (i+2)%3
		for j := 0; j < 3; j++ {
			l2 := 1 - r[i][j]*r[i][j]
			if l2 <= eps {
				continue
			}
			j1, j2 := (j+1)%3, (j+2)%3
			raw := math.Abs(t[i2]*r[i1][j]-t[i1]*r[i2][j]) -
				(halfA[i1]*absR[i2][j] + halfA[i2]*absR[i1][j]) -
				(halfB[j1]*absR[i][j2] + halfB[j2]*absR[i][j1])
			if g := raw / math.Sqrt(l2); g > best {
				best = g
			}
		}
	}

	return best
}
