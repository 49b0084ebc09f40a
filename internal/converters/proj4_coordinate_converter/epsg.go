package proj4_coordinate_converter

import (
	"fmt"
	"strings"
)

type epsgProjection struct {
	EpsgCode   int
	Projection string
}

func (e epsgProjection) isLatLong() bool {
	return strings.Contains(e.Projection, "+proj=longlat") || strings.Contains(e.Projection, "+proj=latlong")
}

var rdNew = "+proj=sterea +lat_0=52.15616055555555 +lon_0=5.38763888888889 +k=0.9999079 +x_0=155000 +y_0=463000 " +
	"+ellps=bessel +towgs84=565.417,50.3319,465.552,-0.398957,0.343988,-1.8774,4.0725 +units=m +no_defs"

// loadEpsgDatabase returns the proj4 definitions of the supported reference systems
func loadEpsgDatabase() map[int]epsgProjection {
	db := map[int]epsgProjection{
		4326:  {4326, "+proj=longlat +datum=WGS84 +no_defs"},
		4978:  {4978, "+proj=geocent +datum=WGS84 +units=m +no_defs"},
		3857:  {3857, "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +wktext +no_defs"},
		4258:  {4258, "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +no_defs"},
		28992: {28992, rdNew},
		7415:  {7415, rdNew},
		2056:  {2056, "+proj=somerc +lat_0=46.95240555555556 +lon_0=7.439583333333333 +k_0=1 +x_0=2600000 +y_0=1200000 +ellps=bessel +towgs84=674.374,15.056,405.346,0,0,0,0 +units=m +no_defs"},
	}

	// WGS84 UTM zones, north and south
	for zone := 1; zone <= 60; zone++ {
		north := 32600 + zone
		south := 32700 + zone
		db[north] = epsgProjection{north, fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", zone)}
		db[south] = epsgProjection{south, fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", zone)}
	}
	return db
}
