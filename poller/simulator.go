package poller

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"iot-command-relay/ingest"
)

// Reading is one sensor observation sent to the relay.
type Reading struct {
	Type   string      `json:"type"`
	Valeur interface{} `json:"valeur"`
}

// SensorSource produces the readings reported after every poll.
type SensorSource interface {
	Read() []Reading
}

// Simulator stands in for the board sensors. The push button is pressed on roughly one
// read in twenty.
type Simulator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSimulator(seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{rnd: rand.New(rand.NewSource(seed))}
}

func (s *Simulator) Read() []Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	pressed := s.rnd.Float64() < 0.05

	return []Reading{
		{Type: "temperature", Valeur: s.uniform(18, 30, 1)},
		{Type: "humidite", Valeur: s.uniform(40, 80, 1)},
		{Type: "luminosite", Valeur: s.uniform(0, 1000, 0)},
		{Type: "pression", Valeur: s.uniform(980, 1030, 1)},
		{Type: "colorimetrie_r", Valeur: s.rnd.Intn(256)},
		{Type: "colorimetrie_g", Valeur: s.rnd.Intn(256)},
		{Type: "colorimetrie_b", Valeur: s.rnd.Intn(256)},
		{Type: ingest.ButtonType, Valeur: pressed},
	}
}

func (s *Simulator) uniform(min, max float64, decimals int) float64 {
	v := min + s.rnd.Float64()*(max-min)
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
