package icon

// ID identifies a weather icon asset. The zero value is None.
type ID int

// Icon identifiers. None is the table sentinel for "no icon"; NotAvailable is
// the placeholder shown before any weather has been accepted.
const (
	None ID = iota
	NotAvailable
	Thunder
	RainDay
	RainNight
	Snow
	Mist
	ClearDay
	ClearNight
	PartlyCloudyDay
	PartlyCloudyNight
	Cloudy
	Extreme
)

var names = map[ID]string{
	None:              "none",
	NotAvailable:      "weather_na",
	Thunder:           "weather_thunder",
	RainDay:           "weather_rain_day",
	RainNight:         "weather_rain_night",
	Snow:              "weather_snow",
	Mist:              "weather_mist",
	ClearDay:          "weather_clear_day",
	ClearNight:        "weather_clear_night",
	PartlyCloudyDay:   "weather_partly_cloudy_day",
	PartlyCloudyNight: "weather_partly_cloudy_night",
	Cloudy:            "weather_cloudy",
	Extreme:           "weather_extreme",
}

// String returns the asset name used by the renderer.
func (id ID) String() string {
	if n, ok := names[id]; ok {
		return n
	}
	return "none"
}

// MarshalText lets ID serialise as its asset name in JSON.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// Condition code bands. The boundaries come from the upstream data source
// and must stay exactly <=800, <900, >=900.
const (
	primaryMax = 800
	cloudyMax  = 900
)

// Indexed by code/100.
var dayTable = [9]ID{
	None, None, Thunder,
	RainDay, None, RainDay,
	Snow, Mist, ClearDay,
}

var nightTable = [9]ID{
	None, None, Thunder,
	RainNight, None, RainNight,
	Snow, Mist, ClearNight,
}

// Indexed by code%100.
var dayCloudyTable = [5]ID{
	None, PartlyCloudyDay, Cloudy, Cloudy, Cloudy,
}

var nightCloudyTable = [5]ID{
	None, PartlyCloudyNight, Cloudy, Cloudy, Cloudy,
}

// Classify maps a condition code and day/night flag to an icon.
// Indexes outside a table's populated range resolve to None.
func Classify(code int32, night bool) ID {
	switch {
	case code <= primaryMax:
		if night {
			return lookup(nightTable[:], int(code)/100)
		}
		return lookup(dayTable[:], int(code)/100)
	case code < cloudyMax:
		if night {
			return lookup(nightCloudyTable[:], int(code)%100)
		}
		return lookup(dayCloudyTable[:], int(code)%100)
	default:
		return Extreme
	}
}

func lookup(table []ID, i int) ID {
	if i < 0 || i >= len(table) {
		return None
	}
	return table[i]
}

// IsNight reports whether now (epoch seconds) falls before sunrise or after sunset.
// Callers must only use it with a complete weather sample.
func IsNight(now int64, sunrise, sunset uint32) bool {
	return now < int64(sunrise) || now > int64(sunset)
}
