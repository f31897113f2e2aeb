package entity

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
)

// Configuration is a named pricing profile: two successive discounts and a margin,
// all percentages.
type Configuration struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	FirstDiscount  float64 `json:"firstDiscount"`
	SecondDiscount float64 `json:"secondDiscount"`
	Margin         float64 `json:"margin"`
	CreatedAt      int64   `json:"createdAt"`
}

// RecordID returns the configuration ID
func (c Configuration) RecordID() string {
	return c.ID
}

// ConfigurationDraft is a configuration as submitted by a client or read back
// from storage, before presence of every field has been checked.
type ConfigurationDraft struct {
	ID             *string      `json:"id"`
	Name           *string      `json:"name"`
	FirstDiscount  *float64     `json:"firstDiscount"`
	SecondDiscount *float64     `json:"secondDiscount"`
	Margin         *float64     `json:"margin"`
	CreatedAt      *WholeNumber `json:"createdAt"`
}

// Build fills a missing id or createdAt with the given values and runs the
// record validator.
func (d ConfigurationDraft) Build(id string, createdAt int64) (Configuration, error) {
	if d.ID == nil || strings.TrimSpace(*d.ID) == "" {
		d.ID = &id
	}
	if d.CreatedAt == nil {
		ms := WholeNumber(createdAt)
		d.CreatedAt = &ms
	}
	return d.complete()
}

func (d ConfigurationDraft) complete() (Configuration, error) {
	if err := d.checkPresence(); err != nil {
		return Configuration{}, err
	}
	c := Configuration{
		ID:             *d.ID,
		Name:           *d.Name,
		FirstDiscount:  *d.FirstDiscount,
		SecondDiscount: *d.SecondDiscount,
		Margin:         *d.Margin,
		CreatedAt:      int64(*d.CreatedAt),
	}
	if err := ValidateConfiguration(c); err != nil {
		return Configuration{}, err
	}
	return c, nil
}

func (d ConfigurationDraft) checkPresence() error {
	switch {
	case d.Name == nil:
		return apperror.NewMissingField("name")
	case d.FirstDiscount == nil:
		return apperror.NewMissingField("firstDiscount")
	case d.SecondDiscount == nil:
		return apperror.NewMissingField("secondDiscount")
	case d.Margin == nil:
		return apperror.NewMissingField("margin")
	case d.ID == nil:
		return apperror.NewMissingField("id")
	case d.CreatedAt == nil:
		return apperror.NewMissingField("createdAt")
	}
	return nil
}

// ParseConfigurationDraft decodes a JSON object into a draft. Type mismatches
// are reported as validation errors.
func ParseConfigurationDraft(raw []byte) (ConfigurationDraft, error) {
	var d ConfigurationDraft
	if err := json.Unmarshal(raw, &d); err != nil {
		return ConfigurationDraft{}, invalidShape("configuration", raw, configurationShape)
	}
	return d, nil
}

// DecodeConfiguration decodes and validates one stored configuration. Every
// field, including id and createdAt, must be present.
func DecodeConfiguration(raw []byte) (Configuration, error) {
	d, err := ParseConfigurationDraft(raw)
	if err != nil {
		return Configuration{}, err
	}
	return d.complete()
}
