package scenario

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/railsim/pkg/errors"
)

// Defaults applied to omitted settings.
const (
	DefaultTimeGranularity  = 6
	DefaultSpeedGranularity = 1
	DefaultHeadway          = 60
)

// Limits enforced by [Scenario.Validate]. They keep every computed time
// within int64 and every distribution within a bounded number of buckets.
const (
	MaxClock           = 48 * 3600 // Latest departure, seconds since midnight
	MaxDelay           = 48 * 3600 // Largest initial delay in seconds
	MaxHeadway         = 3600      // Seconds
	MaxTimeGranularity = 3600      // Seconds per bucket
	MaxLength          = 1_000_000 // Meters per segment
	MinSpeed           = 1         // km/h
	MaxSpeed           = 1000      // km/h
)

// Scenario is the decoded content of a scenario file.
type Scenario struct {
	Name        string      `toml:"name" json:"name"`
	Headway     int64       `toml:"headway" json:"headway"`
	Granularity Granularity `toml:"granularity" json:"granularity"`
	Trains      []Train     `toml:"trains" json:"trains"`
	Conflicts   []Conflict  `toml:"conflicts" json:"conflicts"`
}

// Granularity holds the quantization steps of the exit distributions.
type Granularity struct {
	Time  int64 `toml:"time" json:"time"`   // Seconds per bucket
	Speed int64 `toml:"speed" json:"speed"` // km/h per bucket
}

// Train is one train run.
type Train struct {
	Name      string       `toml:"name" json:"name"`
	Departure Clock        `toml:"departure" json:"departure"`
	Speed     float64      `toml:"speed" json:"speed"` // km/h
	Delay     []DelayPoint `toml:"delay" json:"delay,omitempty"`
	Segments  []Segment    `toml:"segments" json:"segments"`
}

// DelayPoint is one point of a train's initial delay distribution.
type DelayPoint struct {
	Seconds int64   `toml:"seconds" json:"seconds"`
	P       float64 `toml:"p" json:"p"`
}

// Segment is one part of a train's path.
type Segment struct {
	Name   string   `toml:"name" json:"name"`
	Length float64  `toml:"length" json:"length"`           // Meters
	Limit  float64  `toml:"limit" json:"limit,omitempty"`   // Speed limit in km/h, 0 for none
	Routes []string `toml:"routes" json:"routes,omitempty"` // Member routes of a group
}

// Conflict orders two segments of different trains.
type Conflict struct {
	First  string `toml:"first" json:"first"`
	Second string `toml:"second" json:"second"`
}

// Clock is a time of day in seconds since midnight. It is written as
// "HH:MM" or "HH:MM:SS" and may exceed 24:00 for runs past midnight, up to
// 48:00:00.
type Clock int64

// UnmarshalText parses "HH:MM" or "HH:MM:SS".
func (c *Clock) UnmarshalText(text []byte) error {
	parts := strings.Split(string(text), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return fmt.Errorf("invalid clock %q: want HH:MM or HH:MM:SS", text)
	}
	var secs int64
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil || v < 0 || (i > 0 && v > 59) || v > MaxClock/3600 {
			return fmt.Errorf("invalid clock %q", text)
		}
		secs = secs*60 + v
	}
	if len(parts) == 2 {
		secs *= 60
	}
	if secs > MaxClock {
		return fmt.Errorf("clock %q is past %s", text, Clock(MaxClock))
	}
	*c = Clock(secs)
	return nil
}

// MarshalText formats the clock as "HH:MM:SS".
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c Clock) String() string {
	s := int64(c)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s/60%60, s%60)
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scenario %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read scenario %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates scenario TOML.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode scenario")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidScenario, "unknown key %q", undecoded[0].String())
	}
	s.Normalize()
	if !md.IsDefined("headway") {
		s.Headway = DefaultHeadway
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Normalize fills in default granularities. A zero headway is a valid
// setting, so [Parse] defaults it only when the key is missing.
func (s *Scenario) Normalize() {
	if s.Granularity.Time == 0 {
		s.Granularity.Time = DefaultTimeGranularity
	}
	if s.Granularity.Speed == 0 {
		s.Granularity.Speed = DefaultSpeedGranularity
	}
}

// Validate checks names, physical quantities, delay distributions and
// conflict references. Cycles are not checked here.
func (s *Scenario) Validate() error {
	if err := errors.ValidateGranularity("time", s.Granularity.Time); err != nil {
		return err
	}
	if err := errors.ValidateGranularity("speed", s.Granularity.Speed); err != nil {
		return err
	}
	if s.Granularity.Time > MaxTimeGranularity || s.Granularity.Speed > MaxSpeed {
		return errors.New(errors.ErrCodeInvalidScenario,
			"granularity %+v exceeds %ds or %d km/h", s.Granularity, MaxTimeGranularity, MaxSpeed)
	}
	if s.Headway < 0 || s.Headway > MaxHeadway {
		return errors.New(errors.ErrCodeInvalidScenario, "headway must be within [0, %d]: %d", MaxHeadway, s.Headway)
	}
	if len(s.Trains) == 0 {
		return errors.New(errors.ErrCodeInvalidScenario, "scenario has no trains")
	}

	segments := make(map[string]struct{})
	trains := make(map[string]struct{}, len(s.Trains))
	for _, t := range s.Trains {
		if err := errors.ValidateName("train", t.Name); err != nil {
			return err
		}
		if _, dup := trains[t.Name]; dup {
			return errors.New(errors.ErrCodeInvalidScenario, "duplicate train %q", t.Name)
		}
		trains[t.Name] = struct{}{}

		if t.Departure < 0 || t.Departure > MaxClock {
			return errors.New(errors.ErrCodeInvalidScenario, "departure of %s must be within [00:00:00, %s]", t.Name, Clock(MaxClock))
		}
		if err := errors.ValidateRange("speed of "+t.Name, t.Speed, MinSpeed, MaxSpeed); err != nil {
			return err
		}
		if err := validateDelay(t); err != nil {
			return err
		}
		if len(t.Segments) == 0 {
			return errors.New(errors.ErrCodeInvalidScenario, "train %q has no segments", t.Name)
		}
		for _, seg := range t.Segments {
			if err := errors.ValidateName("segment", seg.Name); err != nil {
				return err
			}
			ref := Ref(t.Name, seg.Name)
			if _, dup := segments[ref]; dup {
				return errors.New(errors.ErrCodeInvalidScenario, "duplicate segment %q", ref)
			}
			segments[ref] = struct{}{}
			if err := errors.ValidatePositive("length of "+ref, seg.Length); err != nil {
				return err
			}
			if err := errors.ValidateRange("length of "+ref, seg.Length, 0, MaxLength); err != nil {
				return err
			}
			if seg.Limit != 0 {
				if err := errors.ValidateRange("speed limit of "+ref, seg.Limit, MinSpeed, MaxSpeed); err != nil {
					return err
				}
			}
		}
	}

	for _, c := range s.Conflicts {
		for _, ref := range []string{c.First, c.Second} {
			if _, ok := segments[ref]; !ok {
				return errors.New(errors.ErrCodeInvalidScenario, "conflict references unknown segment %q", ref)
			}
		}
	}
	return nil
}

func validateDelay(t Train) error {
	if len(t.Delay) == 0 {
		return nil
	}
	var sum float64
	for _, d := range t.Delay {
		if d.Seconds < 0 || d.Seconds > MaxDelay {
			return errors.New(errors.ErrCodeInvalidScenario, "delay of %s must be within [0, %d] seconds: %d", t.Name, MaxDelay, d.Seconds)
		}
		if err := errors.ValidateProbability("delay probability of "+t.Name, d.P); err != nil {
			return err
		}
		sum += d.P
	}
	if math.Abs(sum-1) > 1e-6 {
		return errors.New(errors.ErrCodeInvalidScenario, "delay distribution of %s sums to %v, want 1", t.Name, sum)
	}
	return nil
}

// Ref builds the "train/segment" reference used by conflicts.
func Ref(train, segment string) string { return train + "/" + segment }

// Encode writes the scenario as TOML.
func (s *Scenario) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
