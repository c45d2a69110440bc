package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/avelari/skylog/internal/flight"
	"github.com/avelari/skylog/internal/telemetry"
)

// BuildXLSX renders the bundle as a workbook with a summary sheet and a
// telemetry sheet. Values land as native numbers so spreadsheets can chart
// them without re-parsing.
func BuildXLSX(d *flight.Data) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Flight"
	const telemetrySheet = "Telemetry"

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := summaryRows(d.Flight)
	for i, kv := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &[]interface{}{kv[0], kv[1]}); err != nil {
			return nil, fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	if _, err := f.NewSheet(telemetrySheet); err != nil {
		return nil, fmt.Errorf("failed to create telemetry sheet: %w", err)
	}

	header := make([]interface{}, 0, len(csvColumns)-2)
	for _, col := range csvColumns[:len(csvColumns)-2] { // blob columns are CSV-only
		header = append(header, col)
	}
	if err := f.SetSheetRow(telemetrySheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write telemetry header: %w", err)
	}

	s := d.Series
	if s == nil {
		s = &flight.Series{}
	}
	distHome := telemetry.DistanceToHome(s)
	for i := 0; i < s.Len(); i++ {
		row := []interface{}{
			s.Time[i],
			cellFloat(s.Latitude, i), cellFloat(s.Longitude, i),
			cellFloat(s.Altitude, i), cellFromPtr(distHome[i]),
			cellFloat(s.Height, i), cellFloat(s.VPSHeight, i), cellFloat(s.AltitudeAbs, i),
			cellFloat(s.Speed, i), cellFloat(s.VelocityX, i), cellFloat(s.VelocityY, i), cellFloat(s.VelocityZ, i),
			cellFloat(s.Pitch, i), cellFloat(s.Roll, i), cellFloat(s.Yaw, i), cellFloat(s.GimbalPitch, i),
			cellInt(s.BatteryPercent, i), cellFloat(s.BatteryVoltage, i), cellFloat(s.CellVoltage, i), cellFloat(s.BatteryTemp, i),
			cellInt(s.Satellites, i), cellInt(s.RCSignal, i), cellInt(s.RCUplink, i), cellInt(s.RCDownlink, i),
			boolCell(s.IsPhoto, i), boolCell(s.IsVideo, i), cellString(s.FlightMode, i),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(telemetrySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write telemetry row %d: %w", i, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func summaryRows(f *flight.Flight) [][2]interface{} {
	rows := [][2]interface{}{
		{"Name", f.DisplayName},
		{"Source file", f.FileName},
		{"Drone model", f.DroneModel},
		{"Drone serial", f.DroneSerial},
		{"Aircraft name", f.AircraftName},
		{"Battery serial", f.BatterySerial},
		{"Duration (s)", f.DurationSecs},
		{"Total distance (m)", f.TotalDistanceM},
		{"Max altitude (m)", f.MaxAltitudeM},
		{"Max speed (m/s)", f.MaxSpeedMS},
		{"Max distance from home (m)", f.MaxDistanceM},
		{"Telemetry points", f.PointCount},
		{"Notes", f.Notes},
	}
	if f.StartTime != nil {
		rows = append(rows, [2]interface{}{"Start time", f.StartTime.UTC().Format("2006-01-02 15:04:05")})
	}
	return rows
}

func cellFloat(ch []*float64, i int) interface{} {
	if len(ch) > i && ch[i] != nil {
		return *ch[i]
	}
	return nil
}

func cellFromPtr(v *float64) interface{} {
	if v != nil {
		return *v
	}
	return nil
}

func cellInt(ch []*int, i int) interface{} {
	if len(ch) > i && ch[i] != nil {
		return *ch[i]
	}
	return nil
}

func cellString(ch []*string, i int) interface{} {
	if len(ch) > i && ch[i] != nil {
		return *ch[i]
	}
	return nil
}

func boolCell(ch []bool, i int) interface{} {
	return len(ch) > i && ch[i]
}
