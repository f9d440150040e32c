package types

import "time"

// Yield holds a site's generation totals in kWh.
type Yield struct {
	TodayKWH float64 `json:"todayKWH"`
	MonthKWH float64 `json:"monthKWH"`
	YearKWH  float64 `json:"yearKWH"`
	TotalKWH float64 `json:"totalKWH"`
}

// Overview is the latest known snapshot of a site's status and yield.
type Overview struct {
	LastUpdated time.Time `json:"lastUpdated"`
	Online      bool      `json:"online"`
	PowerW      float64   `json:"powerW"`
	SiteID      int64     `json:"siteID"`
	Yield       Yield     `json:"yield"`
}

// OutputPoint is the power output of a site at a point in time. The cloud
// reports one point per 20-minute interval.
type OutputPoint struct {
	Timestamp time.Time `json:"timestamp"`
	PowerW    float64   `json:"powerW"`
}

// AggregateYield is a yield total bucketed by day, month, or year. Date
// carries the bucket for daily and monthly aggregates; yearly aggregates
// only fill in Year.
type AggregateYield struct {
	Date     time.Time `json:"date"`
	Year     int       `json:"year,omitempty"`
	YieldKWH float64   `json:"yieldKWH"`
}

// DetailRecord is a single telemetry sample reported by one inverter.
// Values are passed through as reported: Hz, W, A, V, degrees C, kWh.
type DetailRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	InverterID string    `json:"inverterID"`

	ACFrequency float64    `json:"acFrequency"`
	ACPowerW    float64    `json:"acPowerW"`
	ACCurrent   [3]float64 `json:"acCurrent"` // per phase
	ACVoltage   [3]float64 `json:"acVoltage"` // per phase

	PVCurrent [3]float64 `json:"pvCurrent"` // per string
	PVVoltage [3]float64 `json:"pvVoltage"` // per string

	Temperature   float64 `json:"temperature"`
	YieldTodayKWH float64 `json:"yieldTodayKWH"`
	YieldTotalKWH float64 `json:"yieldTotalKWH"`
}
