package dates

import "time"

// Weekdays maps lower-cased weekday tokens to their canonical abbreviation.
var Weekdays = map[string]string{
	"senin":     "Mon",
	"selasa":    "Tue",
	"rabu":      "Wed",
	"kamis":     "Thu",
	"jumat":     "Fri",
	"jum'at":    "Fri",
	"sabtu":     "Sat",
	"minggu":    "Sun",
	"ahad":      "Sun",
	"monday":    "Mon",
	"tuesday":   "Tue",
	"wednesday": "Wed",
	"thursday":  "Thu",
	"friday":    "Fri",
	"saturday":  "Sat",
	"sunday":    "Sun",
}

// Months maps lower-cased month tokens, full names and three/four-letter
// abbreviations, to the canonical three-letter form.
var Months = map[string]string{
	"januari":   "Jan",
	"februari":  "Feb",
	"pebruari":  "Feb",
	"maret":     "Mar",
	"april":     "Apr",
	"mei":       "May",
	"juni":      "Jun",
	"juli":      "Jul",
	"agustus":   "Aug",
	"september": "Sep",
	"oktober":   "Oct",
	"november":  "Nov",
	"nopember":  "Nov",
	"desember":  "Dec",
	"january":   "Jan",
	"february":  "Feb",
	"march":     "Mar",
	"june":      "Jun",
	"july":      "Jul",
	"august":    "Aug",
	"october":   "Oct",
	"december":  "Dec",
	"jan":       "Jan",
	"feb":       "Feb",
	"peb":       "Feb",
	"mar":       "Mar",
	"apr":       "Apr",
	"may":       "May",
	"jun":       "Jun",
	"jul":       "Jul",
	"agu":       "Aug",
	"agt":       "Aug",
	"agus":      "Aug",
	"aug":       "Aug",
	"sep":       "Sep",
	"sept":      "Sep",
	"okt":       "Oct",
	"oct":       "Oct",
	"nov":       "Nov",
	"nop":       "Nov",
	"des":       "Dec",
	"dec":       "Dec",
}

// Zones maps trailing zone abbreviations used by Indonesian outlets to fixed zones.
var Zones = map[string]*time.Location{
	"WIB":  time.FixedZone("WIB", 7*60*60),
	"WITA": time.FixedZone("WITA", 8*60*60),
	"WIT":  time.FixedZone("WIT", 9*60*60),
}

// Format is one entry of the ordered parse list. Zoned layouts only apply when the
// input ends in a known zone abbreviation, which is stripped before parsing.
type Format struct {
	Layout string
	Zoned  bool
}

// Formats is tried in order; the first layout that parses wins.
var Formats = []Format{
	{Layout: "Mon, 2 Jan 2006 15:04", Zoned: true},
	{Layout: "2 Jan 2006 15:04", Zoned: true},
	{Layout: "Mon, 2 Jan 2006 15:04"},
	{Layout: "2006-01-02 15:04:05"},
	{Layout: "2/1/2006 15:04"},
}

// fallbackLayout parses the day/month/year triple found by the regex fallback.
const fallbackLayout = "2 Jan 2006"
