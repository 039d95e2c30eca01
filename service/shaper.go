package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"reportdeck/models"
)

// ErrNoData is returned when a chart is requested over an empty result set.
var ErrNoData = errors.New("query returned no data")

// chartPalette is the fixed repeating palette. Colors are keyed by index so
// repeat renders of the same data shape are reproducible.
var chartPalette = []string{
	"#FF6384",
	"#36A2EB",
	"#FFCE56",
	"#4BC0C0",
	"#9966FF",
	"#FF9F40",
	"#FF6384",
	"#C9CBCF",
	"#4BC0C0",
	"#FF6384",
}

// GenerateColors returns count palette colors, repeating from the start
// when the palette is exhausted.
func GenerateColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = chartPalette[i%len(chartPalette)]
	}
	return colors
}

// toFloat coerces a cell value to a number; anything non-numeric becomes 0.
func toFloat(value interface{}) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(fmt.Sprintf("%v", v)), 64)
		if err != nil {
			return 0
		}
		return f
	}
}

func stringifyCell(value interface{}) string {
	if value == nil {
		return ""
	}
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", value)
}

// FormatChartData shapes a tabular result into the chart payload for the
// requested kind. Shaping is deterministic: the same columns/rows/kind
// always yield identical labels, series and colors.
func FormatChartData(columns []string, rows [][]interface{}, chartType string) (*models.ChartData, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	switch chartType {
	case "kpi":
		// Single scalar metric: first column of the first row, non-numeric
		// coerced to zero.
		var value float64
		if len(rows[0]) > 0 {
			value = toFloat(rows[0][0])
		}
		return &models.ChartData{
			Labels:   []string{"KPI"},
			Datasets: []models.Dataset{{Data: []float64{value}}},
		}, nil

	case "pie", "doughnut":
		var labels []string
		var values []float64
		if len(columns) >= 2 {
			for _, row := range rows {
				labels = append(labels, stringifyCell(cellAt(row, 0)))
				values = append(values, toFloat(cellAt(row, 1)))
			}
		} else {
			// Single column: positional row index stands in for labels.
			for i, row := range rows {
				labels = append(labels, strconv.Itoa(i))
				values = append(values, toFloat(cellAt(row, 0)))
			}
		}
		return &models.ChartData{
			Labels: labels,
			Datasets: []models.Dataset{{
				Data:            values,
				BackgroundColor: GenerateColors(len(labels)),
				BorderWidth:     1,
			}},
		}, nil

	case "bar", "line":
		labels := make([]string, len(rows))
		for i, row := range rows {
			labels[i] = stringifyCell(cellAt(row, 0))
		}

		colors := GenerateColors(len(columns) - 1)
		var datasets []models.Dataset
		for colIdx := 1; colIdx < len(columns); colIdx++ {
			values := make([]float64, len(rows))
			for i, row := range rows {
				values[i] = toFloat(cellAt(row, colIdx))
			}

			label := strings.TrimSpace(columns[colIdx])
			if label == "" {
				label = fmt.Sprintf("Series %d", colIdx)
			}

			color := colors[(colIdx-1)%len(colors)]
			ds := models.Dataset{
				Label:           label,
				Data:            values,
				BorderColor:     color,
				BackgroundColor: color + "80",
				BorderWidth:     2,
			}
			if chartType == "line" {
				fill := false
				ds.Fill = &fill
			}
			datasets = append(datasets, ds)
		}
		return &models.ChartData{Labels: labels, Datasets: datasets}, nil

	default:
		// Unrecognized kind renders as a single-series bar over the first
		// two columns.
		labels := make([]string, len(rows))
		for i, row := range rows {
			labels[i] = stringifyCell(cellAt(row, 0))
		}

		values := []float64{}
		label := "Value"
		if len(columns) > 1 {
			values = make([]float64, len(rows))
			for i, row := range rows {
				values[i] = toFloat(cellAt(row, 1))
			}
			if trimmed := strings.TrimSpace(columns[1]); trimmed != "" {
				label = trimmed
			}
		}
		return &models.ChartData{
			Labels: labels,
			Datasets: []models.Dataset{{
				Label:           label,
				Data:            values,
				BackgroundColor: GenerateColors(1)[0],
				BorderWidth:     1,
			}},
		}, nil
	}
}

func cellAt(row []interface{}, idx int) interface{} {
	if idx < len(row) {
		return row[idx]
	}
	return nil
}
