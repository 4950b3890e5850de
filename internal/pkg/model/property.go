package model

import "time"

// Property is one published reading of a register.
type Property struct {
	Id         int64     `json:"id"`
	TimeStamp  time.Time `json:"timestamp"`
	Unit       string    `json:"unit_of_measurement"`
	Value      string    `json:"value"`
	Identifier string    `json:"identifier"`
	Slug       string    `json:"slug"`
	Name       string    `json:"name,omitempty"`
	// Series marks Value as a JSON array of numbers rather than a scalar.
	Series bool `json:"series,omitempty"`
}

type Properties []Property
