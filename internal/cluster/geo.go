package cluster

import (
	"github.com/paulmach/orb"

	"frameworks/courierplan/internal/planmodel"
)

// geokitPoint is a local alias kept short for readability in this package's
// distance/centroid-heavy code.
type geokitPoint = orb.Point

func toGeo(p planmodel.Point) geokitPoint {
	return p.LonLat()
}
