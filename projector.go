package altimetry

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twpayne/go-proj/v10"
)

// SourceCRS is the CRS of Point latitudes and longitudes.
const SourceCRS = "epsg:4326"

var (
	projectorCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "altimetry_projector_cache_hits_total",
		Help: "The total number of hits on the projector transformation cache",
	})
	projectorCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "altimetry_projector_cache_misses_total",
		Help: "The total number of misses on the projector transformation cache",
	})
)

// A Projector projects points into other CRSs, caching transformations by
// target CRS.
type Projector struct {
	mutex     sync.Mutex
	cacheSize int
	pjCache   *lru.Cache[string, *proj.PJ]
}

// A ProjectorOption sets an option on a Projector.
type ProjectorOption func(*Projector)

// NewProjector returns a new Projector with the given options.
func NewProjector(options ...ProjectorOption) (*Projector, error) {
	p := &Projector{
		cacheSize: 8,
	}
	for _, option := range options {
		option(p)
	}

	var err error
	p.pjCache, err = lru.NewWithEvict(p.cacheSize, func(key string, value *proj.PJ) {
		value.Destroy()
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func WithProjectorCacheSize(cacheSize int) ProjectorOption {
	return func(p *Projector) {
		p.cacheSize = cacheSize
	}
}

// Project returns the coordinates of points in targetCRS, in targetCRS's axis
// order. points are not modified.
func (p *Projector) Project(points []Point, targetCRS string) ([][]float64, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	pj, err := p.getPJCached(targetCRS)
	if err != nil {
		return nil, err
	}

	if len(points) == 0 {
		return [][]float64{}, nil
	}

	coordsFlat := make([]float64, 2*len(points))
	coords := make([][]float64, len(points))
	for i, point := range points {
		coordsFlat[2*i] = point.Lat
		coordsFlat[2*i+1] = point.Lon
		coords[i] = coordsFlat[2*i : 2*i+2]
	}
	if err := pj.ForwardFloat64Slices(coords); err != nil {
		return nil, err
	}
	return coords, nil
}

// getPJCached returns the transformation to targetCRS. p.mutex must be held.
func (p *Projector) getPJCached(targetCRS string) (*proj.PJ, error) {
	if pj, ok := p.pjCache.Get(targetCRS); ok {
		projectorCacheHits.Inc()
		return pj, nil
	}
	projectorCacheMisses.Inc()

	pj, err := proj.NewCRSToCRS(SourceCRS, targetCRS, nil)
	if err != nil {
		return nil, err
	}
	p.pjCache.Add(targetCRS, pj)
	return pj, nil
}
