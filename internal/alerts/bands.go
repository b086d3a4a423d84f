package alerts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vitalcare-backend/internal/models"
)

// Band is the classification range of one vital. Values below CriticalBelow
// or above CriticalAbove are critical, values outside [NormalMin, NormalMax]
// are a warning.
type Band struct {
	CriticalBelow float64 `yaml:"critical_below"`
	NormalMin     float64 `yaml:"normal_min"`
	NormalMax     float64 `yaml:"normal_max"`
	CriticalAbove float64 `yaml:"critical_above"`
}

// Classify returns the severity of v within the band
func (b Band) Classify(v float64) models.Severity {
	if v < b.CriticalBelow || v > b.CriticalAbove {
		return models.SeverityCritical
	}
	if v < b.NormalMin || v > b.NormalMax {
		return models.SeverityWarning
	}
	return models.SeverityNormal
}

func (b Band) isZero() bool { return b == Band{} }

func (b Band) validate() error {
	if !(b.CriticalBelow <= b.NormalMin && b.NormalMin <= b.NormalMax && b.NormalMax <= b.CriticalAbove) {
		return fmt.Errorf("limits must satisfy critical_below <= normal_min <= normal_max <= critical_above, got %+v", b)
	}
	return nil
}

// Bands holds the band of every classified vital
type Bands struct {
	HeartRate   Band `yaml:"heart_rate"`
	Systolic    Band `yaml:"systolic"`
	Diastolic   Band `yaml:"diastolic"`
	SpO2        Band `yaml:"spo2"`
	Temperature Band `yaml:"temperature"` // Fahrenheit
}

// DefaultBands returns the clinic's standard adult ranges
func DefaultBands() Bands {
	return Bands{
		HeartRate:   Band{CriticalBelow: 50, NormalMin: 60, NormalMax: 100, CriticalAbove: 120},
		Systolic:    Band{CriticalBelow: 80, NormalMin: 90, NormalMax: 140, CriticalAbove: 160},
		Diastolic:   Band{CriticalBelow: 50, NormalMin: 60, NormalMax: 90, CriticalAbove: 110},
		SpO2:        Band{CriticalBelow: 90, NormalMin: 95, NormalMax: 100, CriticalAbove: 100},
		Temperature: Band{CriticalBelow: 95, NormalMin: 97, NormalMax: 100, CriticalAbove: 102},
	}
}

// LoadBands reads band overrides from a YAML file. Vitals missing from the
// file keep their default band.
func LoadBands(path string) (Bands, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Bands{}, fmt.Errorf("failed to read alert bands: %w", err)
	}

	var b Bands
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return Bands{}, fmt.Errorf("failed to parse alert bands: %w", err)
	}

	b.applyDefaults()
	if err := b.validate(); err != nil {
		return Bands{}, err
	}
	return b, nil
}

func (b *Bands) applyDefaults() {
	d := DefaultBands()
	if b.HeartRate.isZero() {
		b.HeartRate = d.HeartRate
	}
	if b.Systolic.isZero() {
		b.Systolic = d.Systolic
	}
	if b.Diastolic.isZero() {
		b.Diastolic = d.Diastolic
	}
	if b.SpO2.isZero() {
		b.SpO2 = d.SpO2
	}
	if b.Temperature.isZero() {
		b.Temperature = d.Temperature
	}
}

func (b Bands) validate() error {
	for _, v := range []struct {
		name string
		band Band
	}{
		{"heart_rate", b.HeartRate},
		{"systolic", b.Systolic},
		{"diastolic", b.Diastolic},
		{"spo2", b.SpO2},
		{"temperature", b.Temperature},
	} {
		if err := v.band.validate(); err != nil {
			return fmt.Errorf("%s: %w", v.name, err)
		}
	}
	return nil
}
