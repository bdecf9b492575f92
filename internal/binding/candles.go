package binding

import (
	"math"
	"sort"
	"strings"
	"time"
)

// MaxCandles is the number of most recent samples kept after normalization.
const MaxCandles = 100

// Candle is one OHLC sample. Timestamp is in epoch milliseconds.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

var seriesTimeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

var (
	openKeys   = []string{"1. open", "open"}
	highKeys   = []string{"2. high", "high"}
	lowKeys    = []string{"3. low", "low"}
	closeKeys  = []string{"4. close", "close"}
	volumeKeys = []string{"5. volume", "6. volume", "volume"}
)

// ExtractCandles normalizes either of the two provider time-series shapes into
// ascending candles, at most MaxCandles of them:
//
//   - parallel arrays: {"t": [...], "o": [...], "h": [...], "l": [...], "c": [...], "v": [...]}
//     with t in epoch seconds; a missing open, high or low takes the close.
//   - a nested series: {"Time Series (Daily)": {"2024-01-02": {"1. open": "10", ...}}}
//     given newest first; missing fields are 0.
//
// Anything else yields an empty, non-nil slice.
func ExtractCandles(doc Value) []Candle {
	if doc.kind != KindObject {
		return []Candle{}
	}
	if out, ok := parallelCandles(doc); ok {
		return latest(out)
	}
	if out, ok := seriesCandles(doc); ok {
		return latest(out)
	}
	return []Candle{}
}

func parallelCandles(doc Value) ([]Candle, bool) {
	t, c := doc.Get("t"), doc.Get("c")
	if t.kind != KindArray || c.kind != KindArray {
		return nil, false
	}
	o, h, l, v := doc.Get("o"), doc.Get("h"), doc.Get("l"), doc.Get("v")

	out := make([]Candle, 0, len(t.arr))
	for i, ts := range t.arr {
		sec, ok := ts.Numeric()
		if !ok {
			continue
		}
		cl, _ := c.Index(i).Numeric()
		cd := Candle{
			Timestamp: int64(math.Round(sec * 1000)),
			Open:      orClose(o.Index(i), cl),
			High:      orClose(h.Index(i), cl),
			Low:       orClose(l.Index(i), cl),
			Close:     cl,
		}
		cd.Volume, _ = v.Index(i).Numeric()
		out = append(out, cd)
	}
	return out, true
}

func orClose(v Value, cl float64) float64 {
	if f, ok := v.Numeric(); ok {
		return f
	}
	return cl
}

func seriesCandles(doc Value) ([]Candle, bool) {
	var series Value
	matches := 0
	for _, k := range doc.obj.keys {
		if strings.Contains(strings.ToLower(k), "time series") {
			series = doc.obj.vals[k]
			matches++
		}
	}
	if matches != 1 || series.kind != KindObject {
		return nil, false
	}

	out := make([]Candle, 0, len(series.obj.keys))
	for _, stamp := range series.obj.keys {
		fields := series.obj.vals[stamp]
		if fields.kind != KindObject {
			continue
		}
		at, ok := parseSeriesTime(stamp)
		if !ok {
			continue
		}
		out = append(out, Candle{
			Timestamp: at.UnixMilli(),
			Open:      firstNumber(fields, openKeys),
			High:      firstNumber(fields, highKeys),
			Low:       firstNumber(fields, lowKeys),
			Close:     firstNumber(fields, closeKeys),
			Volume:    firstNumber(fields, volumeKeys),
		})
	}

	// newest first in the source
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, true
}

func parseSeriesTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range seriesTimeLayouts {
		if at, err := time.Parse(layout, s); err == nil {
			return at, true
		}
	}
	return time.Time{}, false
}

func firstNumber(fields Value, keys []string) float64 {
	for _, k := range keys {
		v, ok := fields.lookup(k)
		if !ok || v.kind == KindNull {
			continue
		}
		f, _ := v.Numeric()
		return f
	}
	return 0
}

// latest orders candles by time, keeping equal timestamps in input order, and
// drops all but the last MaxCandles.
func latest(out []Candle) []Candle {
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	if len(out) > MaxCandles {
		out = append([]Candle(nil), out[len(out)-MaxCandles:]...)
	}
	return out
}
