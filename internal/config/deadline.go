package config

import (
	"fmt"
	"sync/atomic"
)

// Deadline holds the daily order cutoff. It is seeded from the config file and
// overwritten whenever the Settings table is loaded.
type Deadline struct {
	minutes atomic.Int32
}

// NewDeadline creates a deadline holder. Invalid values are clamped to 00:00.
func NewDeadline(hour, minute int) *Deadline {
	d := &Deadline{}
	if err := d.Set(hour, minute); err != nil {
		d.minutes.Store(0)
	}
	return d
}

// Get returns the cutoff hour and minute.
func (d *Deadline) Get() (int, int) {
	m := int(d.minutes.Load())
	return m / 60, m % 60
}

// Set replaces the cutoff.
func (d *Deadline) Set(hour, minute int) error {
	if err := ValidateDeadline(hour, minute); err != nil {
		return err
	}
	d.minutes.Store(int32(hour*60 + minute))
	return nil
}

// String formats the cutoff as HH:MM.
func (d *Deadline) String() string {
	h, m := d.Get()
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ValidateDeadline checks an hour/minute pair.
func ValidateDeadline(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("deadline hour %d out of range 0-23", hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("deadline minute %d out of range 0-59", minute)
	}
	return nil
}
