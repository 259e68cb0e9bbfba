package situation

// Coord is a venue location in decimal degrees.
type Coord struct {
	Lat float64 `koanf:"lat" json:"lat"`
	Lon float64 `koanf:"lon" json:"lon"`
}

// Tables holds the static matchup context: team to division and team to home
// venue. They are configuration, never computed; a missing entry for a
// referenced team is ErrIncompleteContext rather than a silent default,
// because a silently wrong venue corrupts every travel feature downstream.
type Tables struct {
	Divisions map[string]string `koanf:"divisions"`
	Venues    map[string]Coord  `koanf:"venues"`
}

// DefaultTables returns the current 32-team NHL alignment with approximate
// arena coordinates. Configuration may override or extend it.
func DefaultTables() Tables {
	return Tables{
		Divisions: map[string]string{
			"BOS": "Atlantic", "BUF": "Atlantic", "DET": "Atlantic", "FLA": "Atlantic",
			"MTL": "Atlantic", "OTT": "Atlantic", "TBL": "Atlantic", "TOR": "Atlantic",
			"CAR": "Metropolitan", "CBJ": "Metropolitan", "NJD": "Metropolitan", "NYI": "Metropolitan",
			"NYR": "Metropolitan", "PHI": "Metropolitan", "PIT": "Metropolitan", "WSH": "Metropolitan",
			"CHI": "Central", "COL": "Central", "DAL": "Central", "MIN": "Central",
			"NSH": "Central", "STL": "Central", "UTA": "Central", "WPG": "Central",
			"ANA": "Pacific", "CGY": "Pacific", "EDM": "Pacific", "LAK": "Pacific",
			"SEA": "Pacific", "SJS": "Pacific", "VAN": "Pacific", "VGK": "Pacific",
		},
		Venues: map[string]Coord{
			"BOS": {42.366, -71.062}, "BUF": {42.875, -78.876}, "DET": {42.341, -83.055},
			"FLA": {26.158, -80.325}, "MTL": {45.496, -73.569}, "OTT": {45.297, -75.927},
			"TBL": {27.943, -82.452}, "TOR": {43.643, -79.379}, "CAR": {35.803, -78.722},
			"CBJ": {39.969, -83.006}, "NJD": {40.733, -74.171}, "NYI": {40.683, -73.590},
			"NYR": {40.750, -73.994}, "PHI": {39.901, -75.172}, "PIT": {40.439, -79.989},
			"WSH": {38.898, -77.021}, "CHI": {41.880, -87.674}, "COL": {39.748, -105.007},
			"DAL": {32.790, -96.810}, "MIN": {44.945, -93.101}, "NSH": {36.159, -86.778},
			"STL": {38.627, -90.202}, "UTA": {40.768, -111.901}, "WPG": {49.893, -97.144},
			"ANA": {33.808, -117.877}, "CGY": {51.037, -114.052}, "EDM": {53.547, -113.498},
			"LAK": {34.043, -118.267}, "SEA": {47.622, -122.354}, "SJS": {37.333, -121.901},
			"VAN": {49.278, -123.109}, "VGK": {36.103, -115.178},
		},
	}
}
