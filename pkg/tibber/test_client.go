package tibber

import (
	"context"
	"time"
)

const (
	TestHomeID         = "c70dcbe5-4485-4821-933d-a8a86452737b"
	TestInactiveHomeID = "1d8e8f8e-1f52-4b48-a84e-dca3b9a1c6de"
)

func CreateTestClient() *TestClient {
	return &TestClient{}
}

// TestClient serves canned API data. Streams deliver nothing on their own;
// tests push measurements through the returned TestLiveStream.
type TestClient struct {
	Streams []*TestLiveStream
}

func (c *TestClient) GetHomes(_ context.Context) ([]Home, error) {
	return []Home{testHome(), testInactiveHome()}, nil
}

func (c *TestClient) GetPriceInfo(_ context.Context, homeID string) (*Home, *PriceInfo, error) {
	home := testHome()
	home.ID = homeID
	info := TestPriceInfo(time.Now())
	home.CurrentSubscription.PriceInfo = info
	return &home, info, nil
}

func (c *TestClient) OpenLiveStream(homeID string, handler StreamHandler) (LiveStream, error) {
	stream := &TestLiveStream{
		homeID:  homeID,
		handler: handler,
		running: true,
	}
	c.Streams = append(c.Streams, stream)
	handler(StreamMessage{HomeID: homeID, Running: true})
	return stream, nil
}

type TestLiveStream struct {
	homeID  string
	handler StreamHandler
	running bool
}

func (s *TestLiveStream) Running() bool {
	return s.running
}

func (s *TestLiveStream) Close() {
	if s.running {
		s.running = false
		s.handler(StreamMessage{HomeID: s.homeID, Running: false})
	}
}

func (s *TestLiveStream) Push(m LiveMeasurement) {
	s.handler(StreamMessage{HomeID: s.homeID, Running: true, Measurement: &m})
}

func testHome() Home {
	return Home{
		ID:          TestHomeID,
		AppNickname: "Vitahuset",
		Address: Address{
			Address1: "Winterfell 1",
		},
		MeteringPointData: MeteringPointData{
			ConsumptionEAN:             "735999100000000009",
			GridCompany:                "Testnett AS",
			EstimatedAnnualConsumption: 16000,
		},
		Features: Features{
			RealTimeConsumptionEnabled: true,
		},
		CurrentSubscription: &Subscription{
			Status: SubscriptionStatusRunning,
			PriceInfo: &PriceInfo{
				Current: &Price{
					Total:    0.296,
					Level:    "NORMAL",
					Currency: "NOK",
					StartsAt: time.Now().Truncate(time.Hour),
				},
			},
		},
	}
}

func testInactiveHome() Home {
	return Home{
		ID: TestInactiveHomeID,
		Address: Address{
			Address1: "Winterfell 2",
		},
	}
}

// TestPriceInfo builds 24 hourly prices covering the day of now.
func TestPriceInfo(now time.Time) *PriceInfo {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	info := &PriceInfo{}
	for hour := 0; hour < 24; hour++ {
		price := Price{
			Total:    0.20 + 0.01*float64(hour),
			Level:    "NORMAL",
			Currency: "NOK",
			StartsAt: dayStart.Add(time.Duration(hour) * time.Hour),
		}
		info.Today = append(info.Today, price)
	}
	current := info.CurrentPrice(now)
	info.Current = current
	return info
}

// TestMeasurement returns a reading with the fields a production Pulse
// reports on every message.
func TestMeasurement(ts time.Time) LiveMeasurement {
	f := func(v float64) *float64 { return &v }
	return LiveMeasurement{
		Timestamp:                      ts,
		Power:                          f(1563),
		PowerProduction:                f(0),
		AveragePower:                   f(1320.5),
		MinPower:                       f(240),
		MaxPower:                       f(4233),
		AccumulatedConsumption:         f(12.339),
		AccumulatedConsumptionLastHour: f(0.337),
		AccumulatedCost:                f(4.25),
		LastMeterConsumption:           f(22310.5),
		VoltagePhase1:                  f(233.4),
		VoltagePhase2:                  f(232.9),
		VoltagePhase3:                  f(234.1),
		CurrentL1:                      f(2.3),
		CurrentL2:                      f(1.9),
		CurrentL3:                      f(2.1),
		SignalStrength:                 f(-61),
		PowerFactor:                    f(0.87),
	}
}
