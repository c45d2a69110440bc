// Package report composes one or many flights into a single printable HTML
// document, grouped by calendar day with per-day and grand-total summaries.
// The output embeds no scripts, stylesheets or network resources, so the
// file can be printed or archived as-is.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"time"

	"github.com/avelari/skylog/internal/export"
	"github.com/avelari/skylog/internal/flight"
	"github.com/avelari/skylog/internal/telemetry"
	"github.com/avelari/skylog/internal/weather"
)

// unknownValue is the placeholder rendered for any field the data cannot
// answer. A group whose enabled fields all resolve to it is dropped.
const unknownValue = "unknown"

// unknownDayKey sorts after every ISO date, so undated flights land at the
// bottom of the report.
const unknownDayKey = "~"

// Entry pairs a flight with the optional context the report can render.
// Weather and equipment names are resolved by the caller; a nil or empty
// value degrades to unknown placeholders, never to an error.
type Entry struct {
	Flight         *flight.Flight
	Series         *flight.Series
	Weather        *weather.Observation
	EquipmentNames map[string]string
}

// equipmentName resolves a serial to its user-assigned display name, falling
// back to the given default.
func (e *Entry) equipmentName(serial, fallback string) string {
	if name, ok := e.EquipmentNames[serial]; ok && name != "" {
		return name
	}
	return fallback
}

// Build renders the report for the given entries. Entries may arrive in any
// order; the output is grouped by start date and sorted chronologically,
// with flights missing a start time grouped last under "Unknown date".
func Build(entries []Entry, opts Options) (string, error) {
	for i, e := range entries {
		if e.Flight == nil {
			return "", fmt.Errorf("report entry %d has no flight", i)
		}
	}

	view := buildView(entries, opts)

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

type reportView struct {
	Title       string
	GeneratedAt string
	Days        []dayView
	Totals      summaryView
}

type dayView struct {
	Label   string
	Flights []cardView
	Summary summaryView
}

type cardView struct {
	Name   string
	Groups []groupView
}

type groupView struct {
	Title string
	Rows  []rowView
}

type rowView struct {
	Label string
	Value string
}

type summaryView struct {
	Flights  int
	Duration string
	Distance string
}

func buildView(entries []Entry, opts Options) reportView {
	title := opts.Title
	if title == "" {
		title = "Flight Report"
	}
	generatedAt := opts.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	groups := make(map[string][]Entry)
	for _, e := range entries {
		groups[dayKey(e.Flight)] = append(groups[dayKey(e.Flight)], e)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	view := reportView{
		Title:       title,
		GeneratedAt: generatedAt.Format("January 2, 2006 15:04"),
	}

	var totalSecs, totalMeters float64
	for _, key := range keys {
		dayEntries := groups[key]
		sort.SliceStable(dayEntries, func(i, j int) bool {
			a, b := dayEntries[i].Flight.StartTime, dayEntries[j].Flight.StartTime
			if a == nil || b == nil {
				return b == nil && a != nil
			}
			return a.Before(*b)
		})

		day := dayView{Label: dayLabel(key)}
		var daySecs, dayMeters float64
		for _, e := range dayEntries {
			day.Flights = append(day.Flights, buildCard(e, opts))
			daySecs += e.Flight.DurationSecs
			dayMeters += e.Flight.TotalDistanceM
		}
		day.Summary = summaryView{
			Flights:  len(dayEntries),
			Duration: export.FormatDuration(daySecs),
			Distance: export.FormatDistance(dayMeters, opts.Imperial),
		}
		view.Days = append(view.Days, day)
		totalSecs += daySecs
		totalMeters += dayMeters
	}

	view.Totals = summaryView{
		Flights:  len(entries),
		Duration: export.FormatDuration(totalSecs),
		Distance: export.FormatDistance(totalMeters, opts.Imperial),
	}
	return view
}

func dayKey(f *flight.Flight) string {
	if f.StartTime == nil {
		return unknownDayKey
	}
	return f.StartTime.Format("2006-01-02")
}

func dayLabel(key string) string {
	if key == unknownDayKey {
		return "Unknown date"
	}
	if t, err := time.Parse("2006-01-02", key); err == nil {
		return t.Format("Monday, January 2, 2006")
	}
	return key
}

func buildCard(e Entry, opts Options) cardView {
	card := cardView{Name: e.Flight.DisplayName}
	for _, g := range []groupView{
		generalGroup(e, opts),
		equipmentGroup(e, opts),
		performanceGroup(e, opts),
		weatherGroup(e, opts),
		mediaGroup(e, opts),
	} {
		if keepGroup(g) {
			card.Groups = append(card.Groups, g)
		}
	}
	return card
}

// keepGroup drops a group when every enabled field resolved to the unknown
// placeholder, or nothing was enabled at all.
func keepGroup(g groupView) bool {
	for _, row := range g.Rows {
		if row.Value != unknownValue {
			return true
		}
	}
	return false
}

func generalGroup(e Entry, opts Options) groupView {
	f := e.Flight
	g := groupView{Title: "General"}

	if opts.Fields.StartTime {
		v := unknownValue
		if f.StartTime != nil {
			v = f.StartTime.Format("15:04:05")
		}
		g.Rows = append(g.Rows, rowView{"Start time", v})
	}
	if opts.Fields.LandingTime {
		v := unknownValue
		if lt := f.LandingTime(); lt != nil {
			v = lt.Format("15:04:05")
		}
		g.Rows = append(g.Rows, rowView{"Landing time", v})
	}
	if opts.Fields.Duration {
		g.Rows = append(g.Rows, rowView{"Duration", export.FormatDuration(f.DurationSecs)})
	}
	if opts.Fields.Location {
		v := unknownValue
		if f.HomeLat != nil && f.HomeLon != nil {
			v = fmt.Sprintf("%.5f, %.5f", *f.HomeLat, *f.HomeLon)
		}
		g.Rows = append(g.Rows, rowView{"Location", v})
	}
	if opts.Fields.Notes && f.Notes != "" {
		g.Rows = append(g.Rows, rowView{"Notes", f.Notes})
	}
	return g
}

func equipmentGroup(e Entry, opts Options) groupView {
	f := e.Flight
	g := groupView{Title: "Equipment"}

	if opts.Fields.DroneModel {
		v := e.equipmentName(f.DroneSerial, f.DroneModel)
		if v == "" {
			v = unknownValue
		}
		g.Rows = append(g.Rows, rowView{"Drone", v})
	}
	if opts.Fields.AircraftName && f.AircraftName != "" {
		g.Rows = append(g.Rows, rowView{"Aircraft name", f.AircraftName})
	}
	if opts.Fields.BatterySerial {
		v := e.equipmentName(f.BatterySerial, f.BatterySerial)
		if v == "" {
			v = unknownValue
		}
		g.Rows = append(g.Rows, rowView{"Battery", v})
	}
	return g
}

func performanceGroup(e Entry, opts Options) groupView {
	f := e.Flight
	g := groupView{Title: "Performance"}

	if opts.Fields.TotalDistance {
		g.Rows = append(g.Rows, rowView{"Total distance", export.FormatDistance(f.TotalDistanceM, opts.Imperial)})
	}
	if opts.Fields.MaxAltitude {
		g.Rows = append(g.Rows, rowView{"Max altitude", export.FormatAltitude(f.MaxAltitudeM, opts.Imperial)})
	}
	if opts.Fields.MaxSpeed {
		g.Rows = append(g.Rows, rowView{"Max speed", export.FormatSpeed(f.MaxSpeedMS, opts.Imperial)})
	}
	if opts.Fields.MaxDistance {
		v := unknownValue
		if f.MaxDistanceM > 0 {
			v = export.FormatDistance(f.MaxDistanceM, opts.Imperial)
		} else if md := telemetry.MaxDistanceFromHome(e.Series); md != nil {
			v = export.FormatDistance(*md, opts.Imperial)
		}
		g.Rows = append(g.Rows, rowView{"Max distance from home", v})
	}
	if e.Series != nil && (opts.Fields.TakeoffBattery || opts.Fields.LandingBattery) {
		takeoff, landing := telemetry.BatteryEndpoints(e.Series)
		if opts.Fields.TakeoffBattery {
			g.Rows = append(g.Rows, rowView{"Takeoff battery", percentValue(takeoff)})
		}
		if opts.Fields.LandingBattery {
			g.Rows = append(g.Rows, rowView{"Landing battery", percentValue(landing)})
		}
	}
	return g
}

func weatherGroup(e Entry, opts Options) groupView {
	g := groupView{Title: "Weather"}
	obs := e.Weather
	if obs.Empty() {
		// No rows at all: the group is dropped rather than rendered as a
		// column of unknowns.
		return g
	}

	if opts.Fields.Temperature {
		g.Rows = append(g.Rows, rowView{"Temperature", weatherValue(obs.TemperatureC, func(v float64) string {
			return export.FormatTemperature(v, opts.Imperial)
		})})
	}
	if opts.Fields.WindSpeed {
		g.Rows = append(g.Rows, rowView{"Wind speed", weatherValue(obs.WindSpeedKMH, func(v float64) string {
			return export.FormatSpeed(v/export.KMHPerMS, opts.Imperial)
		})})
	}
	if opts.Fields.WindGusts {
		g.Rows = append(g.Rows, rowView{"Wind gusts", weatherValue(obs.WindGustsKMH, func(v float64) string {
			return export.FormatSpeed(v/export.KMHPerMS, opts.Imperial)
		})})
	}
	if opts.Fields.WindDirection {
		g.Rows = append(g.Rows, rowView{"Wind direction", weatherValue(obs.WindDirectionDeg, func(v float64) string {
			return fmt.Sprintf("%.0f°", v)
		})})
	}
	if opts.Fields.Humidity {
		g.Rows = append(g.Rows, rowView{"Humidity", weatherValue(obs.HumidityPct, func(v float64) string {
			return fmt.Sprintf("%.0f%%", v)
		})})
	}
	if opts.Fields.Precipitation {
		g.Rows = append(g.Rows, rowView{"Precipitation", weatherValue(obs.PrecipitationMM, func(v float64) string {
			return fmt.Sprintf("%.1f mm", v)
		})})
	}
	if opts.Fields.CloudCover {
		g.Rows = append(g.Rows, rowView{"Cloud cover", weatherValue(obs.CloudCoverPct, func(v float64) string {
			return fmt.Sprintf("%.0f%%", v)
		})})
	}
	return g
}

func mediaGroup(e Entry, opts Options) groupView {
	g := groupView{Title: "Media"}
	if e.Series == nil {
		return g
	}
	if opts.Fields.PhotoCount {
		if n := risingEdges(e.Series.IsPhoto); n > 0 {
			g.Rows = append(g.Rows, rowView{"Photos", fmt.Sprintf("%d", n)})
		}
	}
	if opts.Fields.VideoCount {
		if n := risingEdges(e.Series.IsVideo); n > 0 {
			g.Rows = append(g.Rows, rowView{"Video recordings", fmt.Sprintf("%d", n)})
		}
	}
	return g
}

// risingEdges counts distinct events in a level-triggered flag channel, so a
// 30-second recording spanning hundreds of samples counts once.
func risingEdges(flags []bool) int {
	n := 0
	prev := false
	for _, v := range flags {
		if v && !prev {
			n++
		}
		prev = v
	}
	return n
}

func percentValue(v *int) string {
	if v == nil {
		return unknownValue
	}
	return fmt.Sprintf("%d%%", *v)
}

func weatherValue(v *float64, format func(float64) string) string {
	if v == nil {
		return unknownValue
	}
	return format(*v)
}

var reportTemplate = template.Must(template.New("report").Parse(reportHTML))
