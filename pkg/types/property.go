package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PropertyType is the type tag of a PropertyItem. The value of an item is
// always stored as text and interpreted according to its tag on read.
type PropertyType string

// Recognized property type tags.
const (
	PropertyInteger PropertyType = "Integer"
	PropertyDouble  PropertyType = "Double"
	PropertyString  PropertyType = "String"
	PropertyDate    PropertyType = "Date"
	PropertyBoolean PropertyType = "Boolean"
)

// DateLayout is the text layout of Date property values.
const DateLayout = "2006-01-02"

// validPropertyTypes is the closed set of property type tags.
var validPropertyTypes = map[PropertyType]bool{
	PropertyInteger: true,
	PropertyDouble:  true,
	PropertyString:  true,
	PropertyDate:    true,
	PropertyBoolean: true,
}

// IsValid reports whether t is one of the recognized tags.
func (t PropertyType) IsValid() bool {
	return validPropertyTypes[t]
}

// ParsePropertyType resolves a tag case-insensitively ("integer", "DATE").
// Returns ErrInvalidPropertyType for anything outside the closed set.
func ParsePropertyType(s string) (PropertyType, error) {
	for t := range validPropertyTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPropertyType, s)
}

// PropertyItem is a typed key/value annotation attached to the project.
type PropertyItem struct {
	ID    int64        `json:"id"`
	Type  PropertyType `json:"type"`
	Name  string       `json:"name"`
	Value string       `json:"value"`
}

// Validate checks the tag and name and that the value is parseable for the
// tag. An empty value is accepted for every tag and means "unset".
func (p PropertyItem) Validate() error {
	if !p.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPropertyType, p.Type)
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if p.Value == "" {
		return nil
	}
	_, err := p.Parse()
	return err
}

// Parse interprets Value according to Type. It returns int64 for Integer,
// float64 for Double, string for String, time.Time for Date and bool for
// Boolean. An empty value yields nil. Unparseable values return
// ErrInvalidValue.
func (p PropertyItem) Parse() (any, error) {
	if p.Value == "" {
		return nil, nil
	}
	switch p.Type {
	case PropertyString:
		return p.Value, nil
	case PropertyInteger:
		v, err := strconv.ParseInt(strings.TrimSpace(p.Value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, p.Value)
		}
		return v, nil
	case PropertyDouble:
		v, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, p.Value)
		}
		return v, nil
	case PropertyDate:
		v, err := time.Parse(DateLayout, strings.TrimSpace(p.Value))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a %s date", ErrInvalidValue, p.Value, DateLayout)
		}
		return v, nil
	case PropertyBoolean:
		v, err := strconv.ParseBool(strings.TrimSpace(p.Value))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, p.Value)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPropertyType, p.Type)
	}
}
