package pilotdash

import "context"

var DefaultCenter = LatLng{Lat: 37.77, Lng: 122.4}

const (
	DefaultZoom  = 18
	DefaultTitle = "GPS Map"
)

type MapOptions struct {
	Center LatLng
	Zoom   int
	Type   MapType
}

type MarkerOptions struct {
	Position LatLng
	Title    string
}

type Map interface {
	SetCenter(LatLng)
}

type Marker interface {
	SetPosition(LatLng)
}

// MapSDK creates the map and marker a PositionView drives.
type MapSDK interface {
	NewMap(opts MapOptions) Map
	NewMarker(m Map, opts MarkerOptions) Marker
}

// PositionView follows the vehicle's GPS fix on a map.
type PositionView struct {
	scope  *Scope
	res    PositionResource
	poller Poller

	Map    Map
	Marker Marker

	data  Position
	known bool
}

// NewPositionView builds the map centered at DefaultCenter with a marker on
// it. Type defaults to satellite imagery.
func NewPositionView(
	scope *Scope,
	res PositionResource,
	poller Poller,
	sdk MapSDK,
	mapType MapType,
) *PositionView {
	if mapType == "" {
		mapType = MapTypeSatellite
	}
	m := sdk.NewMap(MapOptions{
		Center: DefaultCenter,
		Zoom:   DefaultZoom,
		Type:   mapType,
	})
	return &PositionView{
		scope:  scope,
		res:    res,
		poller: poller,
		Map:    m,
		Marker: sdk.NewMarker(m, MarkerOptions{
			Position: DefaultCenter,
			Title:    DefaultTitle,
		}),
	}
}

// Tick fetches the position once, then moves the marker and the map center
// to it. Coordinates are used as received.
func (v *PositionView) Tick(ctx context.Context) error {
	pos, err := v.res.GetPosition(ctx)
	if err != nil {
		return err
	}
	v.scope.Apply(func() {
		v.data = pos
		v.known = true
		ll := pos.LatLng()
		v.Marker.SetPosition(ll)
		v.Map.SetCenter(ll)
	})
	log.Debug("position", "lat", pos.Latitude, "lng", pos.Longitude)
	return nil
}

// Run polls the position until ctx is done or polling gives up.
func (v *PositionView) Run(ctx context.Context) error {
	return v.poller.Run(ctx, v.Tick)
}

func (v *PositionView) Position() (Position, bool) {
	var pos Position
	var known bool
	v.scope.Read(func() {
		pos, known = v.data, v.known
	})
	return pos, known
}
