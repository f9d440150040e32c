package zever

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/gridwatch/zevercloud/pkg/log"
	"github.com/gridwatch/zevercloud/pkg/types"
)

// maxEventWindowDays is the widest date range /getPlantEvent accepts per call.
const maxEventWindowDays = 7

// Client is a typed wrapper for the ZeverCloud monitoring API. It holds the
// credential triple and nothing else: every operation is a stateless
// request/response and nothing is cached between calls.
//
// The api key is found on the ZeverCloud site under Plant Configuration >
// Api Key. The app key and app secret are under Account Management >
// Security Settings, and are only visible once approved by ZeverSolar
// support.
type Client struct {
	apiKey    string
	transport getter
	location  *time.Location
}

// New returns a Client for the given credential triple. All three
// credentials are required.
func New(apiKey, appKey, appSecret string) (*Client, error) {
	if apiKey == "" || appKey == "" || appSecret == "" {
		return nil, fmt.Errorf("%w: api key, app key and app secret are all required", ErrInvalidArgument)
	}
	return &Client{
		apiKey:    apiKey,
		transport: newTransport(appKey, appSecret),
		location:  time.Local,
	}, nil
}

// Configured returns a Client built from flags.
func Configured() *Client {
	c := &Client{location: time.Local}

	apiKey := lflag.String("zevercloud-api-key", "", "ZeverCloud api key for the site (Plant Configuration > Api Key)")
	appKey := lflag.String("zevercloud-app-key", "", "ZeverCloud app key (Account Management > Security Settings)")
	appSecret := lflag.String("zevercloud-app-secret", "", "ZeverCloud app secret (Account Management > Security Settings)")
	baseURL := lflag.String("zevercloud-api-url", DefaultBaseURL, "URL for the ZeverCloud API")

	lflag.Do(func() {
		c.apiKey = *apiKey
		tr := newTransport(*appKey, *appSecret)
		tr.baseURL = *baseURL
		c.transport = tr
	})

	return c
}

// params returns the base query parameters every endpoint requires.
func (c *Client) params() url.Values {
	p := url.Values{}
	p.Set("key", c.apiKey)
	return p
}

type plantOverviewResult struct {
	SiteID      jsonNumber  `json:"sid"`
	LastUpdated string      `json:"ludt"`
	Status      jsonNumber  `json:"status"`
	Power       measurement `json:"Power"`
	EToday      measurement `json:"E-Today"`
	EMonth      measurement `json:"E-Month"`
	EYear       measurement `json:"E-Year"`
	ETotal      measurement `json:"E-Total"`
}

// Overview retrieves the current status of the site.
func (c *Client) Overview(ctx context.Context) (types.Overview, error) {
	const endpoint = "/getPlantOverview"

	var res plantOverviewResult
	if err := c.transport.get(ctx, endpoint, c.params(), &res); err != nil {
		return types.Overview{}, err
	}

	updated, err := time.ParseInLocation(timestampLayout, res.LastUpdated, c.location)
	if err != nil {
		return types.Overview{}, &DecodeError{Endpoint: endpoint, Err: fmt.Errorf("parse ludt %q: %w", res.LastUpdated, err)}
	}

	power, err := c.normalize(endpoint, res.Power)
	if err != nil {
		return types.Overview{}, err
	}
	today, err := c.normalize(endpoint, res.EToday)
	if err != nil {
		return types.Overview{}, err
	}
	month, err := c.normalize(endpoint, res.EMonth)
	if err != nil {
		return types.Overview{}, err
	}
	year, err := c.normalize(endpoint, res.EYear)
	if err != nil {
		return types.Overview{}, err
	}
	total, err := c.normalize(endpoint, res.ETotal)
	if err != nil {
		return types.Overview{}, err
	}

	return types.Overview{
		LastUpdated: updated,
		Online:      res.Status == 1,
		PowerW:      power,
		SiteID:      int64(res.SiteID),
		Yield: types.Yield{
			TodayKWH: today,
			MonthKWH: month,
			YearKWH:  year,
			TotalKWH: total,
		},
	}, nil
}

type plantOutputResult struct {
	DataUnit string `json:"dataunit"`
	Data     []struct {
		Time  string     `json:"time"`
		Value jsonNumber `json:"value"`
	} `json:"data"`
}

// Output returns the power output of the site at 20-minute intervals on the
// given day, in chronological order as reported by the cloud.
func (c *Client) Output(ctx context.Context, day time.Time) ([]types.OutputPoint, error) {
	const endpoint = "/getPlantOutput"

	params := c.params()
	params.Set("date", day.Format(dateLayout))
	params.Set("period", "bydays")

	var res plantOutputResult
	if err := c.transport.get(ctx, endpoint, params, &res); err != nil {
		return nil, err
	}

	points := make([]types.OutputPoint, 0, len(res.Data))
	for _, entry := range res.Data {
		clock, err := time.Parse(clockLayout, entry.Time)
		if err != nil {
			return nil, &DecodeError{Endpoint: endpoint, Err: fmt.Errorf("parse time %q: %w", entry.Time, err)}
		}
		power, err := applyUnit(float64(entry.Value), res.DataUnit)
		if err != nil {
			return nil, &DecodeError{Endpoint: endpoint, Err: err}
		}
		points = append(points, types.OutputPoint{
			Timestamp: time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, c.location),
			PowerW:    power,
		})
	}
	return points, nil
}

// DailyOutput returns the yield of the site for each day of the given month.
// The day component of month is ignored.
func (c *Client) DailyOutput(ctx context.Context, month time.Time) ([]types.AggregateYield, error) {
	const endpoint = "/getPlantOutput"

	params := c.params()
	params.Set("date", month.Format(monthLayout))
	params.Set("period", "bymonth")

	var res plantOutputResult
	if err := c.transport.get(ctx, endpoint, params, &res); err != nil {
		return nil, err
	}
	return c.aggregates(res, dateLayout)
}

// MonthlyOutput returns the yield of the site for each month of the given
// year. The year must be four digits.
func (c *Client) MonthlyOutput(ctx context.Context, year int) ([]types.AggregateYield, error) {
	const endpoint = "/getPlantOutput"

	if year < 1000 || year > 9999 {
		return nil, fmt.Errorf("%w: year must be a four-digit integer, got %d", ErrInvalidArgument, year)
	}

	params := c.params()
	params.Set("date", strconv.Itoa(year))
	params.Set("period", "byyear")

	var res plantOutputResult
	if err := c.transport.get(ctx, endpoint, params, &res); err != nil {
		return nil, err
	}
	return c.aggregates(res, monthLayout)
}

// YearlyOutput returns the yield of the site for each year of its entire
// existence.
func (c *Client) YearlyOutput(ctx context.Context) ([]types.AggregateYield, error) {
	const endpoint = "/getPlantOutput"

	params := c.params()
	params.Set("period", "bytotal")

	var res plantOutputResult
	if err := c.transport.get(ctx, endpoint, params, &res); err != nil {
		return nil, err
	}

	aggs := make([]types.AggregateYield, 0, len(res.Data))
	for _, entry := range res.Data {
		y, err := strconv.Atoi(entry.Time)
		if err != nil {
			return nil, &DecodeError{Endpoint: endpoint, Err: fmt.Errorf("parse year %q: %w", entry.Time, err)}
		}
		yield, err := applyUnit(float64(entry.Value), res.DataUnit)
		if err != nil {
			return nil, &DecodeError{Endpoint: endpoint, Err: err}
		}
		aggs = append(aggs, types.AggregateYield{Year: y, YieldKWH: yield})
	}
	return aggs, nil
}

// aggregates converts a /getPlantOutput response into date-keyed aggregates,
// parsing the bucket with the given layout.
func (c *Client) aggregates(res plantOutputResult, layout string) ([]types.AggregateYield, error) {
	const endpoint = "/getPlantOutput"

	aggs := make([]types.AggregateYield, 0, len(res.Data))
	for _, entry := range res.Data {
		d, err := time.ParseInLocation(layout, entry.Time, c.location)
		if err != nil {
			return nil, &DecodeError{Endpoint: endpoint, Err: fmt.Errorf("parse date %q: %w", entry.Time, err)}
		}
		yield, err := applyUnit(float64(entry.Value), res.DataUnit)
		if err != nil {
			return nil, &DecodeError{Endpoint: endpoint, Err: err}
		}
		aggs = append(aggs, types.AggregateYield{Date: d, YieldKWH: yield})
	}
	return aggs, nil
}

// Events returns the events that occurred between start and end, inclusive.
//
// The cloud only returns events for 7 days at a time, so the range is split
// into consecutive windows of at most 7 days and fetched sequentially in
// chronological order. A large range therefore takes proportionally longer.
// If any window fails the whole operation fails; no partial list is
// returned.
func (c *Client) Events(ctx context.Context, start, end time.Time) ([]types.Event, error) {
	start = midnight(start, c.location)
	end = midnight(end, c.location)
	if start.After(end) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s",
			ErrInvalidArgument, start.Format(dateLayout), end.Format(dateLayout))
	}

	var events []types.Event
	for daysBetween(start, end) >= maxEventWindowDays {
		windowed, err := c.eventsWindow(ctx, start, start.AddDate(0, 0, maxEventWindowDays-1))
		if err != nil {
			return nil, err
		}
		events = append(events, windowed...)
		start = start.AddDate(0, 0, maxEventWindowDays)
	}
	windowed, err := c.eventsWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return append(events, windowed...), nil
}

type plantEventResult struct {
	Code *int `json:"code"`
	Data []struct {
		EventTime  string     `json:"eventTime"`
		EventType  jsonNumber `json:"eventType"`
		EventCode  jsonNumber `json:"eventCode"`
		InverterID string     `json:"ssno"`
	} `json:"data"`
}

// eventsWindow fetches a single window of at most 7 days.
func (c *Client) eventsWindow(ctx context.Context, start, end time.Time) ([]types.Event, error) {
	const endpoint = "/getPlantEvent"

	params := c.params()
	params.Set("sdt", start.Format(dateLayout))
	params.Set("edt", end.Format(dateLayout))

	var res plantEventResult
	if err := c.transport.get(ctx, endpoint, params, &res); err != nil {
		return nil, err
	}

	// code 0 means no events occurred in the window
	if res.Code != nil && *res.Code == 0 {
		return nil, nil
	}

	events := make([]types.Event, 0, len(res.Data))
	for _, entry := range res.Data {
		ts, err := time.ParseInLocation(timestampLayout, entry.EventTime, c.location)
		if err != nil {
			return nil, &DecodeError{Endpoint: endpoint, Err: fmt.Errorf("parse eventTime %q: %w", entry.EventTime, err)}
		}
		events = append(events, types.Event{
			EventTime:  ts,
			InverterID: entry.InverterID,
			EventCode:  int(entry.EventCode),
			EventType:  int(entry.EventType),
		})
	}

	log.Ctx(ctx).DebugContext(ctx, "fetched zevercloud events",
		slog.String("start", start.Format(dateLayout)),
		slog.String("end", end.Format(dateLayout)),
		slog.Int("count", len(events)),
	)
	return events, nil
}

type plantDetailResult struct {
	Data []struct {
		Time       string     `json:"time"`
		InverterID string     `json:"sno"`
		Frequency  jsonNumber `json:"fac"`
		PowerW     jsonNumber `json:"pac"`
		CurrentP1  jsonNumber `json:"iac1"`
		CurrentP2  jsonNumber `json:"iac2"`
		CurrentP3  jsonNumber `json:"iac3"`
		VoltageP1  jsonNumber `json:"vac1"`
		VoltageP2  jsonNumber `json:"vac2"`
		VoltageP3  jsonNumber `json:"vac3"`
		CurrentPV1 jsonNumber `json:"ipv1"`
		CurrentPV2 jsonNumber `json:"ipv2"`
		CurrentPV3 jsonNumber `json:"ipv3"`
		VoltagePV1 jsonNumber `json:"vpv1"`
		VoltagePV2 jsonNumber `json:"vpv2"`
		VoltagePV3 jsonNumber `json:"vpv3"`
		Temp       jsonNumber `json:"temperature"`
		EToday     jsonNumber `json:"etoday"`
		ETotal     jsonNumber `json:"etotal"`
	} `json:"data"`
}

// Details returns the telemetry samples recorded on the given day for one
// monitor, identified by its psno. The cloud reports the samples in W and
// kWh already, so values are passed through without unit conversion.
func (c *Client) Details(ctx context.Context, day time.Time, psno string) ([]types.DetailRecord, error) {
	const endpoint = "/getPlantDetail"

	if psno == "" {
		return nil, fmt.Errorf("%w: psno is required", ErrInvalidArgument)
	}

	params := c.params()
	params.Set("date", day.Format(dateLayout))
	params.Set("psno", psno)

	var res plantDetailResult
	if err := c.transport.get(ctx, endpoint, params, &res); err != nil {
		return nil, err
	}

	records := make([]types.DetailRecord, 0, len(res.Data))
	for _, entry := range res.Data {
		clock, err := time.Parse(clockLayout, entry.Time)
		if err != nil {
			return nil, &DecodeError{Endpoint: endpoint, Err: fmt.Errorf("parse time %q: %w", entry.Time, err)}
		}
		records = append(records, types.DetailRecord{
			Timestamp:     time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, c.location),
			InverterID:    entry.InverterID,
			ACFrequency:   float64(entry.Frequency),
			ACPowerW:      float64(entry.PowerW),
			ACCurrent:     [3]float64{float64(entry.CurrentP1), float64(entry.CurrentP2), float64(entry.CurrentP3)},
			ACVoltage:     [3]float64{float64(entry.VoltageP1), float64(entry.VoltageP2), float64(entry.VoltageP3)},
			PVCurrent:     [3]float64{float64(entry.CurrentPV1), float64(entry.CurrentPV2), float64(entry.CurrentPV3)},
			PVVoltage:     [3]float64{float64(entry.VoltagePV1), float64(entry.VoltagePV2), float64(entry.VoltagePV3)},
			Temperature:   float64(entry.Temp),
			YieldTodayKWH: float64(entry.EToday),
			YieldTotalKWH: float64(entry.ETotal),
		})
	}
	return records, nil
}

type inverterOverviewResult struct {
	Data []struct {
		InverterID string `json:"isno"`
	} `json:"data"`
}

// Inverters returns the ids of the inverters associated with the site. The
// ids double as the psno identifiers accepted by Details.
func (c *Client) Inverters(ctx context.Context) ([]string, error) {
	const endpoint = "/getInverterOverview"

	var res inverterOverviewResult
	if err := c.transport.get(ctx, endpoint, c.params(), &res); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(res.Data))
	for _, entry := range res.Data {
		ids = append(ids, entry.InverterID)
	}
	return ids, nil
}

// midnight truncates t to the start of its calendar day in loc.
func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// daysBetween returns the number of calendar days from a to b. The dates are
// re-anchored in UTC so a DST transition inside the range can't skew the
// count.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}
