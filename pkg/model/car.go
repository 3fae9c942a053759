package model

import "time"

// Input is one control sample for a car. All values are clamped by the
// simulation, never rejected. Tilt is blended additively into steer.
type Input struct {
	Steer    float64 `json:"steer"`
	Throttle float64 `json:"throttle"`
	Brake    float64 `json:"brake"`
	Tilt     float64 `json:"tilt"`

	ReceivedAt time.Time `json:"-"`
}

// Car is the authoritative per-player vehicle state. It is owned and mutated
// exclusively by the simulating process.
//
//nolint:tagliatelle // wire format of the original clients
type Car struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`

	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Heading  float64 `json:"ang"`
	Speed    float64 `json:"speed"`
	Lap      int     `json:"lap"`
	Finished bool    `json:"finished"`

	// arc-length progress along the path, current and previous tick
	S       float64 `json:"-"`
	PrevS   float64 `json:"-"`
	Lateral float64 `json:"-"`

	LastCross time.Time `json:"-"`
}
