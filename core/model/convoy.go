package model

import (
	"fmt"
	"time"
)

// CargoClass categorizes the load a convoy carries. The class drives
// priority derivation and contributes a fixed risk multiplier.
type CargoClass int

const (
	CargoStores CargoClass = iota
	CargoRations
	CargoWater
	CargoEngineering
	CargoPersonnel
	CargoMedical
	CargoEvacuation
	CargoFuel
	CargoAmmunition
)

// String returns the doctrinal label for the cargo class.
func (c CargoClass) String() string {
	switch c {
	case CargoStores:
		return "STORES"
	case CargoRations:
		return "RATIONS"
	case CargoWater:
		return "WATER"
	case CargoEngineering:
		return "ENGINEERING"
	case CargoPersonnel:
		return "PERSONNEL"
	case CargoMedical:
		return "MEDICAL"
	case CargoEvacuation:
		return "EVACUATION"
	case CargoFuel:
		return "FUEL"
	case CargoAmmunition:
		return "AMMUNITION"
	default:
		return "unknown"
	}
}

// RiskMultiplier scales route risk for sensitive loads.
func (c CargoClass) RiskMultiplier() float64 {
	switch c {
	case CargoAmmunition:
		return 1.4
	case CargoFuel:
		return 1.3
	case CargoEvacuation:
		return 1.2
	case CargoPersonnel:
		return 1.15
	case CargoMedical:
		return 1.1
	case CargoEngineering:
		return 1.05
	case CargoWater:
		return 0.95
	default:
		return 1.0
	}
}

// Valid reports whether the class is part of the fixed taxonomy.
func (c CargoClass) Valid() bool {
	return c >= CargoStores && c <= CargoAmmunition
}

// PriorityClass is the operational urgency tier of a movement request.
// Lower Rank() means more urgent.
type PriorityClass int

const (
	PriorityFlash PriorityClass = iota
	PriorityImmediate
	PriorityPriority
	PriorityRoutine
)

func (p PriorityClass) String() string {
	switch p {
	case PriorityFlash:
		return "FLASH"
	case PriorityImmediate:
		return "IMMEDIATE"
	case PriorityPriority:
		return "PRIORITY"
	case PriorityRoutine:
		return "ROUTINE"
	default:
		return "unknown"
	}
}

// Rank returns the severity rank used for queue ordering. FLASH ranks
// highest (0).
func (p PriorityClass) Rank() int { return int(p) }

// CrewState describes crew readiness for a movement.
type CrewState int

const (
	CrewRested CrewState = iota
	CrewAlert
	CrewFatigued
)

func (s CrewState) String() string {
	switch s {
	case CrewRested:
		return "RESTED"
	case CrewAlert:
		return "ALERT"
	case CrewFatigued:
		return "FATIGUED"
	default:
		return "unknown"
	}
}

// FatigueRisk maps crew state to its normalized risk contribution.
func (s CrewState) FatigueRisk() float64 {
	switch s {
	case CrewAlert:
		return 0.12
	case CrewFatigued:
		return 0.35
	default:
		return 0.05
	}
}

// ConvoyStatus is the movement state of a convoy as reported upstream.
type ConvoyStatus string

const (
	StatusPlanned ConvoyStatus = "PLANNED"
	StatusMoving  ConvoyStatus = "MOVING"
	StatusHalted  ConvoyStatus = "HALTED"
	StatusArrived ConvoyStatus = "ARRIVED"
)

// ConvoyRequest is a pending movement request awaiting a dispatch
// recommendation. Exactly one open request may exist per convoy; the cargo
// classification is immutable after creation.
type ConvoyRequest struct {
	ConvoyID      string        `json:"convoy_id"`
	Name          string        `json:"name"`
	Cargo         CargoClass    `json:"cargo"`
	Priority      PriorityClass `json:"priority"`
	Vehicles      int           `json:"vehicles"`
	Personnel     int           `json:"personnel"`
	FuelPct       float64       `json:"fuel_pct"`
	HealthPct     float64       `json:"health_pct"`
	Crew          CrewState     `json:"crew"`
	CheckpointID  string        `json:"checkpoint_id"`
	RouteID       string        `json:"route_id"`
	MedicalFlag   bool          `json:"medical_flag"`
	EnqueuedAt    time.Time     `json:"enqueued_at"`
	SequenceIndex int           `json:"sequence_index"`
}

// Validate checks the request is well formed before it may be enqueued.
func (r ConvoyRequest) Validate() error {
	if r.ConvoyID == "" {
		return fmt.Errorf("convoy id is required")
	}
	if !r.Cargo.Valid() {
		return fmt.Errorf("unknown cargo classification %d", int(r.Cargo))
	}
	if r.Vehicles <= 0 {
		return fmt.Errorf("convoy %s must have at least one vehicle", r.ConvoyID)
	}
	if r.RouteID == "" {
		return fmt.Errorf("convoy %s has no route reference", r.ConvoyID)
	}
	return nil
}

// WaitTime returns how long the request has been queued relative to now.
func (r ConvoyRequest) WaitTime(now time.Time) time.Duration {
	if r.EnqueuedAt.IsZero() || now.Before(r.EnqueuedAt) {
		return 0
	}
	return now.Sub(r.EnqueuedAt)
}

// DerivePriority maps cargo classification and situational flags to a
// priority class. Medical and evacuation movements are IMMEDIATE; explicit
// medical flags upgrade any class to at least IMMEDIATE.
func DerivePriority(cargo CargoClass, medical bool) PriorityClass {
	switch cargo {
	case CargoMedical, CargoEvacuation:
		return PriorityImmediate
	case CargoAmmunition, CargoFuel:
		if medical {
			return PriorityImmediate
		}
		return PriorityPriority
	default:
		if medical {
			return PriorityImmediate
		}
		return PriorityRoutine
	}
}
