package energy

// Display labels of the derived and regional load columns.
const (
	NorthLoadColumn   = "北部用電量"
	CentralLoadColumn = "中部用電量"
	SouthLoadColumn   = "南部用電量"
	EastLoadColumn    = "東部用電量"
	TotalLoadColumn   = "總用電量"

	TemperatureColumn = "溫度"
	HumidityColumn    = "相對溼度"
	WindSpeedColumn   = "風速"
	WindDirColumn     = "風向"
)

// RegionColumns are summed into TotalLoadColumn.
var RegionColumns = []string{NorthLoadColumn, CentralLoadColumn, SouthLoadColumn, EastLoadColumn}

// Weather payload field names.
const (
	WeatherTemperature = "t"
	WeatherHumidity    = "h"
	WeatherWindSpeed   = "wSpeed"
	WeatherWindDir     = "wDir"
)

// DefaultLabels maps upstream series keys to display labels.
func DefaultLabels() map[string]string {
	return map[string]string{
		"pumpGen": "抽蓄發電",
		"solar":   "太陽能",
		"wind":    "風力",
		"hydro":   "水力",
		"diesel":  "輕油",
		"oil":     "重油",
		"ippLng":  "民營-燃氣",
		"lng":     "燃氣",
		"ippCoal": "民營-燃煤",
		"coGen":   "汽電共生",
		"coal":    "燃煤",
		"nuclear": "核能",

		"north":   NorthLoadColumn,
		"central": CentralLoadColumn,
		"south":   SouthLoadColumn,
		"east":    EastLoadColumn,

		WeatherTemperature: TemperatureColumn,
		WeatherHumidity:    HumidityColumn,
		WeatherWindSpeed:   WindSpeedColumn,
		WeatherWindDir:     WindDirColumn,
	}
}
