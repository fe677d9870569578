package service

// Trend is the direction of a stat's month-over-month change.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// Stat is one dashboard card.
type Stat struct {
	Label  string
	Value  string
	Change int // percent versus last month
	Accent string
}

// Trend reports the direction of Change.
func (s Stat) Trend() Trend {
	if s.Change < 0 {
		return TrendDown
	}
	return TrendUp
}

// Activity is an entry of the recent-activity list.
type Activity struct {
	Title  string
	When   string
	Icon   string
	Accent string
}

// DashboardOverview is everything the dashboard index renders.
type DashboardOverview struct {
	Stats    []Stat
	Activity []Activity
}

// DashboardService serves the dashboard index content.
// The figures are fixed until a reporting backend exists.
type DashboardService struct {
	overview DashboardOverview
}

// NewDashboardService returns the service with the stock figures.
func NewDashboardService() *DashboardService {
	return &DashboardService{overview: DashboardOverview{
		Stats: []Stat{
			{Label: "Total Revenue", Value: "$189,374", Change: 7, Accent: "blue"},
			{Label: "Sales", Value: "$25,684", Change: 12, Accent: "green"},
			{Label: "Units Sold", Value: "6,248", Change: -3, Accent: "purple"},
			{Label: "Active Users", Value: "1,429", Change: 18, Accent: "yellow"},
		},
		Activity: []Activity{
			{Title: "New user registered", When: "2 minutes ago", Icon: "user", Accent: "blue"},
			{Title: "Sale completed: $450", When: "5 minutes ago", Icon: "square", Accent: "green"},
			{Title: "System update completed", When: "1 hour ago", Icon: "settings", Accent: "purple"},
		},
	}}
}

// Overview returns a copy of the dashboard content.
func (s *DashboardService) Overview() DashboardOverview {
	return DashboardOverview{
		Stats:    append([]Stat(nil), s.overview.Stats...),
		Activity: append([]Activity(nil), s.overview.Activity...),
	}
}
