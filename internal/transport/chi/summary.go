package chi

import (
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kailas-cloud/edsanalytics/internal/domain/aggregate"
	"github.com/kailas-cloud/edsanalytics/internal/domain/sample"
	"github.com/kailas-cloud/edsanalytics/internal/repository/namespace"
)

// summaryValue wraps a statistic the way the store does: {"Value": x}.
type summaryValue struct {
	Value float64 `json:"Value"`
}

// summaryDigits keeps at least 16 number characters after {"Value": for fixed-width readers.
const summaryDigits = 16

// maxSummaryIntervals bounds the count query parameter on Data/Summaries.
const maxSummaryIntervals = 10000

// MarshalJSON writes the value in fixed-point notation so a zero is "0.0000000000000000", not "0".
func (v summaryValue) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 32)
	buf = append(buf, `{"Value":`...)
	buf = strconv.AppendFloat(buf, v.Value, 'f', summaryDigits, 64)
	return append(buf, '}'), nil
}

type boundary struct {
	Timestamp string  `json:"Timestamp"`
	Value     float64 `json:"Value"`
}

// Field order is part of the wire contract: "Mean" must precede any other name containing it.
type summaryValues struct {
	Count             summaryValue `json:"Count"`
	Minimum           summaryValue `json:"Minimum"`
	Maximum           summaryValue `json:"Maximum"`
	Range             summaryValue `json:"Range"`
	Total             summaryValue `json:"Total"`
	Mean              summaryValue `json:"Mean"`
	StandardDeviation summaryValue `json:"StandardDeviation"`
}

type summaryInterval struct {
	Start     boundary      `json:"Start"`
	End       boundary      `json:"End"`
	Summaries summaryValues `json:"Summaries"`
}

// summarize splits [start, end] into count equal intervals and reduces each one.
func summarize(points []namespace.Point, start, end time.Time, count int) []summaryInterval {
	width := end.Sub(start) / time.Duration(count)
	out := make([]summaryInterval, 0, count)

	idx := 0
	for i := range count {
		lo := start.Add(time.Duration(i) * width)
		hi := lo.Add(width)
		if i == count-1 {
			hi = end
		}

		var values []float64
		for idx < len(points) && (points[idx].Key.Before(hi) || (i == count-1 && points[idx].Key.Equal(hi))) {
			if !points[idx].Key.Before(lo) {
				values = append(values, points[idx].Value)
			}
			idx++
		}
		out = append(out, reduce(lo, hi, values))
	}
	return out
}

func reduce(lo, hi time.Time, values []float64) summaryInterval {
	iv := summaryInterval{
		Start: boundary{Timestamp: sample.FormatTimestamp(lo)},
		End:   boundary{Timestamp: sample.FormatTimestamp(hi)},
	}
	agg, err := aggregate.Compute("", values)
	if err != nil {
		return iv
	}

	var total float64
	for _, v := range values {
		total += v
	}
	var sd float64
	if len(values) > 1 {
		sd = stat.StdDev(values, nil)
	}

	iv.Start.Value = values[0]
	iv.End.Value = values[len(values)-1]
	iv.Summaries = summaryValues{
		Count:             summaryValue{float64(len(values))},
		Minimum:           summaryValue{agg.Minimum},
		Maximum:           summaryValue{agg.Maximum},
		Range:             summaryValue{agg.Range},
		Total:             summaryValue{total},
		Mean:              summaryValue{agg.Mean},
		StandardDeviation: summaryValue{sd},
	}
	return iv
}
