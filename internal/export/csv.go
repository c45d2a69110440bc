package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/avelari/skylog/internal/flight"
	"github.com/avelari/skylog/internal/telemetry"
)

// csvColumns is the fixed, ordered CSV header. Spreadsheet users and
// downstream tooling key on these names; never reorder them.
var csvColumns = []string{
	"time", "latitude", "longitude", "altitude", "distance_home",
	"height", "vps_height", "altitude_abs",
	"speed", "velocity_x", "velocity_y", "velocity_z",
	"pitch", "roll", "yaw", "gimbal_pitch",
	"battery_percent", "battery_voltage", "cell_voltage", "battery_temp",
	"satellites", "rc_signal", "rc_uplink", "rc_downlink",
	"is_photo", "is_video", "flight_mode",
	"messages", "metadata",
}

// BuildCSV renders the bundle as one row per telemetry sample. Coordinates
// keep full double precision; every other numeric channel is rounded to a
// fixed per-field decimal count (2 for physical quantities, 3 for voltages,
// 1 for temperature). Message and flight metadata JSON blobs ride on the
// first row only. Manual entries produce a single synthetic row carrying the
// home coordinates.
func BuildCSV(d *flight.Data) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	messagesBlob, err := json.Marshal(d.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode messages blob: %w", err)
	}
	metadataBlob, err := json.Marshal(d.Flight)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata blob: %w", err)
	}

	s := d.Series
	if s.Len() == 0 {
		// Manual entry: one synthetic row with whatever the flight knows.
		row := emptyRow()
		row[0] = "0"
		if d.Flight.HomeLat != nil && d.Flight.HomeLon != nil {
			row[1] = formatCoord(*d.Flight.HomeLat)
			row[2] = formatCoord(*d.Flight.HomeLon)
		}
		if d.Flight.MaxAltitudeM > 0 {
			row[3] = formatFixed(d.Flight.MaxAltitudeM, 2)
		}
		row[27] = string(messagesBlob)
		row[28] = string(metadataBlob)
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("CSV writer error: %w", err)
		}
		return buf.Bytes(), nil
	}

	distHome := telemetry.DistanceToHome(s)

	for i := 0; i < s.Len(); i++ {
		row := emptyRow()
		row[0] = formatSeconds(s.Time[i])

		if lat, lon, ok := s.Position(i); ok {
			row[1] = formatCoord(lat)
			row[2] = formatCoord(lon)
		}

		setFixed(row, 3, s.Altitude, i, 2)
		if distHome[i] != nil {
			row[4] = formatFixed(*distHome[i], 2)
		}
		setFixed(row, 5, s.Height, i, 2)
		setFixed(row, 6, s.VPSHeight, i, 2)
		setFixed(row, 7, s.AltitudeAbs, i, 2)
		setFixed(row, 8, s.Speed, i, 2)
		setFixed(row, 9, s.VelocityX, i, 2)
		setFixed(row, 10, s.VelocityY, i, 2)
		setFixed(row, 11, s.VelocityZ, i, 2)
		setFixed(row, 12, s.Pitch, i, 2)
		setFixed(row, 13, s.Roll, i, 2)
		setFixed(row, 14, s.Yaw, i, 2)
		setFixed(row, 15, s.GimbalPitch, i, 2)
		setInt(row, 16, s.BatteryPercent, i)
		setFixed(row, 17, s.BatteryVoltage, i, 3)
		setFixed(row, 18, s.CellVoltage, i, 3)
		setFixed(row, 19, s.BatteryTemp, i, 1)
		setInt(row, 20, s.Satellites, i)
		setInt(row, 21, s.RCSignal, i)
		setInt(row, 22, s.RCUplink, i)
		setInt(row, 23, s.RCDownlink, i)

		if len(s.IsPhoto) > i && s.IsPhoto[i] {
			row[24] = "1"
		} else {
			row[24] = "0"
		}
		if len(s.IsVideo) > i && s.IsVideo[i] {
			row[25] = "1"
		} else {
			row[25] = "0"
		}
		if len(s.FlightMode) > i && s.FlightMode[i] != nil {
			row[26] = *s.FlightMode[i]
		}

		if i == 0 {
			row[27] = string(messagesBlob)
			row[28] = string(metadataBlob)
		}

		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func emptyRow() []string {
	return make([]string, len(csvColumns))
}

func setFixed(row []string, col int, ch []*float64, i, decimals int) {
	if len(ch) > i && ch[i] != nil {
		row[col] = formatFixed(*ch[i], decimals)
	}
}

func setInt(row []string, col int, ch []*int, i int) {
	if len(ch) > i && ch[i] != nil {
		row[col] = fmt.Sprintf("%d", *ch[i])
	}
}
