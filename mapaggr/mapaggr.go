package mapaggr

import (
	"land-registry-service/models"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"
)

const (
	expectedCells = 16
	minLevel      = 2
	maxLevel      = 18
	// Cells holding at most this many parcels are emitted as individual
	// points instead of a cluster.
	minParcelsToAggr = 10
)

// CellBaseLevel finds the s2 cell level at which the viewport is covered
// by roughly expectedCells cells, so cluster sizes track the zoom level.
// The center point anchors the reference cell; cell areas vary across the
// sphere, so clients looking at an off-center map can pass their own.
func CellBaseLevel(vp *models.ViewPort, centerLat, centerLon float64) int {
	minLL := s2.LatLngFromDegrees(vp.LatMin, vp.LonMin)
	maxLL := s2.LatLngFromDegrees(vp.LatMax, vp.LonMax)

	rect := s2.Rect{
		Lat: r1.Interval{
			Lo: minLL.Lat.Radians(),
			Hi: maxLL.Lat.Radians()},
		Lng: s1.Interval{
			Lo: minLL.Lng.Radians(),
			Hi: maxLL.Lng.Radians()},
	}
	vpArea := rect.Area()

	centerCell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(centerLat, centerLon))

	for lv := maxLevel; lv >= minLevel; lv-- {
		cc := s2.CellFromCellID(centerCell.Parent(lv))
		if vpArea/cc.ApproxArea() < expectedCells {
			return lv
		}
	}
	return minLevel
}

// Aggregator buckets parcel positions into s2 cells for one viewport.
type Aggregator struct {
	level int
	cells map[s2.CellID][]models.ParcelPoint
}

func NewAggregator(vp *models.ViewPort, centerLat, centerLon float64) *Aggregator {
	return &Aggregator{
		level: CellBaseLevel(vp, centerLat, centerLon),
		cells: make(map[s2.CellID][]models.ParcelPoint),
	}
}

// Center returns the viewport midpoint, the default aggregation anchor.
func Center(vp *models.ViewPort) (float64, float64) {
	return (vp.LatMin + vp.LatMax) / 2, (vp.LonMin + vp.LonMax) / 2
}

func (a *Aggregator) AddPoint(p models.ParcelPoint) {
	cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Latitude, p.Longitude)).Parent(a.level)
	a.cells[cell] = append(a.cells[cell], p)
}

// Features renders the aggregation as GeoJSON: sparse cells yield one
// point feature per parcel, dense cells collapse into a single cluster
// feature at the cell center carrying a count.
func (a *Aggregator) Features() []*geojson.Feature {
	features := []*geojson.Feature{}
	for cell, parcels := range a.cells {
		if len(parcels) <= minParcelsToAggr {
			for _, p := range parcels {
				f := geojson.NewPointFeature([]float64{p.Longitude, p.Latitude})
				f.SetProperty("record_id", p.RecordId)
				f.SetProperty("survey_number", p.SurveyNumber)
				f.SetProperty("status", p.Status)
				features = append(features, f)
			}
			continue
		}

		ll := cell.LatLng()
		f := geojson.NewPointFeature([]float64{ll.Lng.Degrees(), ll.Lat.Degrees()})
		f.SetProperty("cluster", true)
		f.SetProperty("count", len(parcels))
		features = append(features, f)
	}
	return features
}
