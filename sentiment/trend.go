package sentiment

import (
	"math"
	"time"

	"sentiflow/models"
)

const trendDays = 7

// trendSeries synthesizes the seven-day score series shown alongside a
// report. Points oscillate around 60 with bounded jitter; the last point
// is labeled "Now" and the rest carry MM-DD dates counting back from now.
func (a *Aggregator) trendSeries(now time.Time) []models.TrendPoint {
	points := make([]models.TrendPoint, 0, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		score := int(math.Round(60 + 15*math.Sin(0.5*float64(i)) + a.uniform(-5, 5)))
		date := now.AddDate(0, 0, -i).Format("01-02")
		if i == 0 {
			date = "Now"
		}
		points = append(points, models.TrendPoint{Date: date, Score: score})
	}
	return points
}
