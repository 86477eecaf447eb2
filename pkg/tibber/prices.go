package tibber

import "time"

// all returns today's and tomorrow's prices in one slice.
func (p *PriceInfo) all() []Price {
	prices := make([]Price, 0, len(p.Today)+len(p.Tomorrow))
	prices = append(prices, p.Today...)
	prices = append(prices, p.Tomorrow...)
	return prices
}

// CurrentPrice returns the price entry covering the hour of now, or nil when
// the data does not reach that hour.
func (p *PriceInfo) CurrentPrice(now time.Time) *Price {
	prices := p.all()
	for i := range prices {
		start := prices[i].StartsAt
		if !start.After(now) && now.Sub(start) < time.Hour {
			return &prices[i]
		}
	}
	return nil
}

// LastStartsAt returns the start of the last known hourly price, the zero
// time when no data is loaded. The freshness check in the poller keys on it.
func (p *PriceInfo) LastStartsAt() time.Time {
	var last time.Time
	for _, price := range p.all() {
		if price.StartsAt.After(last) {
			last = price.StartsAt
		}
	}
	return last
}

// DayStats returns max, avg and min of today's hourly totals.
func (p *PriceInfo) DayStats() (max, avg, min float64, ok bool) {
	if len(p.Today) == 0 {
		return 0, 0, 0, false
	}
	max = p.Today[0].Total
	min = p.Today[0].Total
	var sum float64
	for _, price := range p.Today {
		if price.Total > max {
			max = price.Total
		}
		if price.Total < min {
			min = price.Total
		}
		sum += price.Total
	}
	return max, sum / float64(len(p.Today)), min, true
}

// HourRangeAverage averages today's totals for hours in [fromHour, toHour).
func (p *PriceInfo) HourRangeAverage(fromHour, toHour int) (float64, bool) {
	var sum float64
	var count int
	for _, price := range p.Today {
		hour := price.StartsAt.Hour()
		if hour >= fromHour && hour < toHour {
			sum += price.Total
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
