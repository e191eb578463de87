// Package pricing computes the amount owed for a registration. It is pure:
// no I/O, no clock reads — the caller supplies the submission time, and the
// resulting total is stored once at creation and never recomputed.
package pricing

import (
	"time"

	"confreg/internal/registration/models"
)

// Table holds the fee schedule. Amounts are whole currency units.
type Table struct {
	Student          int
	JuniorDoctor     int
	SeniorDoctor     int
	DoctorWithSpouse int
	// LateFee is a flat surcharge applied in full after Deadline. No tiers.
	LateFee  int
	Deadline time.Time
}

// DefaultTable is the published fee schedule for the current conference.
func DefaultTable() Table {
	return Table{
		Student:          11000,
		JuniorDoctor:     30000,
		SeniorDoctor:     50000,
		DoctorWithSpouse: 85000,
		LateFee:          10000,
		Deadline:         time.Date(2026, time.April, 30, 23, 59, 59, 0, time.UTC),
	}
}

// Pricing is the computed fee breakdown. Total is always Base + Late.
type Pricing struct {
	BaseFee int
	LateFee int
	Total   int
}

// Quote prices a registration submitted at the given time. Unknown categories
// yield a zero base fee; callers must validate the category before persisting.
func (t Table) Quote(category models.Category, yearsInPractice string, now time.Time) Pricing {
	var base int
	switch category {
	case models.CategoryStudent:
		base = t.Student
	case models.CategoryDoctor:
		if yearsInPractice == models.YearsLessThanFive {
			base = t.JuniorDoctor
		} else {
			base = t.SeniorDoctor
		}
	case models.CategoryDoctorWithSpouse:
		base = t.DoctorWithSpouse
	}

	var late int
	if now.After(t.Deadline) {
		late = t.LateFee
	}

	return Pricing{BaseFee: base, LateFee: late, Total: base + late}
}
