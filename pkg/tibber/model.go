package tibber

import (
	"fmt"
	"time"
)

const (
	SubscriptionStatusRunning = "running"
)

type Home struct {
	ID                  string            `json:"id"`
	AppNickname         string            `json:"appNickname"`
	Address             Address           `json:"address"`
	MeteringPointData   MeteringPointData `json:"meteringPointData"`
	Features            Features          `json:"features"`
	CurrentSubscription *Subscription     `json:"currentSubscription"`
}

type Address struct {
	Address1 string `json:"address1"`
}

type MeteringPointData struct {
	ConsumptionEAN             string  `json:"consumptionEan"`
	GridCompany                string  `json:"gridCompany"`
	EstimatedAnnualConsumption float64 `json:"estimatedAnnualConsumption"`
}

type Features struct {
	RealTimeConsumptionEnabled bool `json:"realTimeConsumptionEnabled"`
}

type Subscription struct {
	Status    string     `json:"status"`
	PriceInfo *PriceInfo `json:"priceInfo"`
}

// Name returns the app nickname, falling back to the first address line.
func (h Home) Name() string {
	if h.AppNickname != "" {
		return h.AppNickname
	}
	return h.Address.Address1
}

func (h Home) HasActiveSubscription() bool {
	return h.CurrentSubscription != nil && h.CurrentSubscription.Status == SubscriptionStatusRunning
}

func (h Home) HasRealTimeConsumption() bool {
	return h.Features.RealTimeConsumptionEnabled
}

// Currency of the home's subscription, empty when no price data is loaded.
func (h Home) Currency() string {
	if h.CurrentSubscription != nil && h.CurrentSubscription.PriceInfo != nil {
		return h.CurrentSubscription.PriceInfo.Currency()
	}
	return ""
}

type Price struct {
	Total    float64   `json:"total"`
	Level    string    `json:"level"`
	Currency string    `json:"currency"`
	StartsAt time.Time `json:"startsAt"`
}

type PriceInfo struct {
	Current  *Price  `json:"current"`
	Today    []Price `json:"today"`
	Tomorrow []Price `json:"tomorrow"`
}

// PriceUnit returns the display unit of hourly prices, e.g. "NOK/kWh".
func (p *PriceInfo) PriceUnit() string {
	currency := p.Currency()
	if currency == "" {
		return ""
	}
	return fmt.Sprintf("%s/kWh", currency)
}

func (p *PriceInfo) Currency() string {
	if p.Current != nil && p.Current.Currency != "" {
		return p.Current.Currency
	}
	if len(p.Today) > 0 {
		return p.Today[0].Currency
	}
	return ""
}

// LiveMeasurement is a single Tibber Pulse reading. Fields the meter does not
// report arrive as null and stay nil.
type LiveMeasurement struct {
	Timestamp                      time.Time `json:"timestamp"`
	Power                          *float64  `json:"power"`
	PowerProduction                *float64  `json:"powerProduction"`
	AveragePower                   *float64  `json:"averagePower"`
	MinPower                       *float64  `json:"minPower"`
	MaxPower                       *float64  `json:"maxPower"`
	AccumulatedConsumption         *float64  `json:"accumulatedConsumption"`
	AccumulatedConsumptionLastHour *float64  `json:"accumulatedConsumptionLastHour"`
	AccumulatedProduction          *float64  `json:"accumulatedProduction"`
	AccumulatedProductionLastHour  *float64  `json:"accumulatedProductionLastHour"`
	AccumulatedCost                *float64  `json:"accumulatedCost"`
	AccumulatedReward              *float64  `json:"accumulatedReward"`
	LastMeterConsumption           *float64  `json:"lastMeterConsumption"`
	LastMeterProduction            *float64  `json:"lastMeterProduction"`
	VoltagePhase1                  *float64  `json:"voltagePhase1"`
	VoltagePhase2                  *float64  `json:"voltagePhase2"`
	VoltagePhase3                  *float64  `json:"voltagePhase3"`
	CurrentL1                      *float64  `json:"currentL1"`
	CurrentL2                      *float64  `json:"currentL2"`
	CurrentL3                      *float64  `json:"currentL3"`
	SignalStrength                 *float64  `json:"signalStrength"`
	PowerFactor                    *float64  `json:"powerFactor"`
}

// Field resolves a payload field by its wire key.
func (m *LiveMeasurement) Field(key string) *float64 {
	switch key {
	case "power":
		return m.Power
	case "powerProduction":
		return m.PowerProduction
	case "averagePower":
		return m.AveragePower
	case "minPower":
		return m.MinPower
	case "maxPower":
		return m.MaxPower
	case "accumulatedConsumption":
		return m.AccumulatedConsumption
	case "accumulatedConsumptionLastHour":
		return m.AccumulatedConsumptionLastHour
	case "accumulatedProduction":
		return m.AccumulatedProduction
	case "accumulatedProductionLastHour":
		return m.AccumulatedProductionLastHour
	case "accumulatedCost":
		return m.AccumulatedCost
	case "accumulatedReward":
		return m.AccumulatedReward
	case "lastMeterConsumption":
		return m.LastMeterConsumption
	case "lastMeterProduction":
		return m.LastMeterProduction
	case "voltagePhase1":
		return m.VoltagePhase1
	case "voltagePhase2":
		return m.VoltagePhase2
	case "voltagePhase3":
		return m.VoltagePhase3
	case "currentL1":
		return m.CurrentL1
	case "currentL2":
		return m.CurrentL2
	case "currentL3":
		return m.CurrentL3
	case "signalStrength":
		return m.SignalStrength
	case "powerFactor":
		return m.PowerFactor
	default:
		return nil
	}
}
