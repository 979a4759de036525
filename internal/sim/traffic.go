package sim

// TrafficSpec places one constant-forward obstacle vehicle.
type TrafficSpec struct {
	Lane     int     `json:"lane" toml:"lane" yaml:"lane"`
	Y        float64 `json:"y" toml:"y" yaml:"y"`
	MaxSpeed float64 `json:"max_speed" toml:"max_speed" yaml:"max_speed"`
}

// DefaultTraffic is the stock obstacle layout for a three lane road. Speeds
// above 5 outrun what the agents can learn to handle.
func DefaultTraffic() []TrafficSpec {
	wave := func(s1, s2, s3, s4, s5, s6, s7, s8 float64) []TrafficSpec {
		return []TrafficSpec{
			{Lane: 1, Y: -100, MaxSpeed: s1},
			{Lane: 0, Y: -300, MaxSpeed: s2},
			{Lane: 2, Y: -300, MaxSpeed: s3},
			{Lane: 0, Y: -500, MaxSpeed: s4},
			{Lane: 1, Y: -500, MaxSpeed: s5},
			{Lane: 1, Y: -700, MaxSpeed: s6},
			{Lane: 2, Y: -700, MaxSpeed: s7},
			{Lane: 2, Y: -500, MaxSpeed: s8},
		}
	}

	out := make([]TrafficSpec, 0, 32)
	out = append(out, wave(1, 2, 2, 2, 2, 2, 2, 3)...)
	out = append(out, wave(2, 2, 2, 1, 1, 3, 2, 3)...)
	out = append(out, wave(2, 1, 2, 3, 3, 3, 2, 3)...)
	out = append(out, wave(2, 2, 2, 2, 2, 2, 2, 3)...)
	return out
}
