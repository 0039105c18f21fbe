package catalog

// Period is a catalog era. Each period has its own dynasty keys and coins.
type Period string

const (
	PeriodAncient  Period = "ancient"
	PeriodMedieval Period = "medieval"
	PeriodModern   Period = "modern"
)

// AllPeriods lists every period in search order.
var AllPeriods = []Period{PeriodAncient, PeriodMedieval, PeriodModern}

// ParsePeriod returns the Period named by s, or false when s is not a period.
func ParsePeriod(s string) (Period, bool) {
	for _, p := range AllPeriods {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// DynastyKey maps a coin code prefix to the dynasty and ruler that issued it.
type DynastyKey struct {
	Period   Period `json:"period" yaml:"-"`
	Code     string `json:"code" yaml:"code"`
	Dynasty  string `json:"dynasty" yaml:"dynasty"`
	KingName string `json:"king_name" yaml:"king_name"`
}

// Coin is a single catalog entry.
type Coin struct {
	Period  Period `json:"period" yaml:"-"`
	SNo     int    `json:"s_no" yaml:"s_no"`
	Code    string `json:"code" yaml:"code"`
	Details string `json:"details" yaml:"details"`
}

// Match is a coin returned by Search, joined with its dynasty key.
// ImageURL is empty when no image file exists for the coin.
type Match struct {
	Period   Period `json:"period"`
	SNo      int    `json:"s_no"`
	Code     string `json:"code"`
	Details  string `json:"details"`
	Dynasty  string `json:"dynasty"`
	KingName string `json:"king_name"`
	ImageURL string `json:"image_url"`
}

// PeriodStats counts the catalog rows of one period.
type PeriodStats struct {
	Period Period `json:"period"`
	Keys   int    `json:"keys"`
	Coins  int    `json:"coins"`
}
