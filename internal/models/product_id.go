// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package models

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ErrEmptyProductID is returned when a product identifier is blank.
var ErrEmptyProductID = errors.New("productId is required")

// ProductID is an opaque product identifier in canonical form. The same
// product reaches the service as a JSON number from one client path and as
// a string or document id from another, so every ProductID passes through
// NormalizeProductID before it is stored or compared.
type ProductID string

var (
	digitsPattern   = regexp.MustCompile(`^[+-]?[0-9]+$`)
	zeroFraction    = regexp.MustCompile(`^([+-]?[0-9]+)\.0+$`)
	numericPattern  = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)
	objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	uuidPattern     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// maxExactFloat is the largest integer a float64 represents exactly.
const maxExactFloat = 1 << 53

// NormalizeProductID returns the canonical form of raw:
//
//	" 7 ", "007", "7.0", 7    -> "7"
//	"12345678901234567890.0"  -> "12345678901234567890"
//	"65A1F0C2..." (24 hex)     -> lowercase
//	UUIDs                      -> lowercase
//	anything else              -> trimmed, unchanged
func NormalizeProductID(raw string) (ProductID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyProductID
	}
	// An all-zero fraction is dropped as text so long integers never round
	// through float64.
	if m := zeroFraction.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	switch {
	case digitsPattern.MatchString(s):
		return ProductID(canonicalDigits(s)), nil
	case numericPattern.MatchString(s):
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if f == float64(int64(f)) && f < maxExactFloat && f > -maxExactFloat {
				return ProductID(strconv.FormatInt(int64(f), 10)), nil
			}
			return ProductID(strconv.FormatFloat(f, 'f', -1, 64)), nil
		}
		return ProductID(s), nil
	case objectIDPattern.MatchString(s), uuidPattern.MatchString(s):
		return ProductID(strings.ToLower(s)), nil
	default:
		return ProductID(s), nil
	}
}

// canonicalDigits strips sign and leading zeros textually so identifiers
// longer than a float64 mantissa never collide.
func canonicalDigits(s string) string {
	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	if neg {
		return "-" + s
	}
	return s
}

// MustProductID normalizes raw and panics on error. Test and fixture use only.
func MustProductID(raw string) ProductID {
	id, err := NormalizeProductID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String implements fmt.Stringer.
func (p ProductID) String() string {
	return string(p)
}

// Equal compares two identifiers after normalizing both sides, so values
// loaded from older records written before normalization still match.
func (p ProductID) Equal(other ProductID) bool {
	a, errA := NormalizeProductID(string(p))
	b, errB := NormalizeProductID(string(other))
	if errA != nil || errB != nil {
		return false
	}
	return a == b
}

// UnmarshalJSON accepts a JSON string or number.
func (p *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.New("productId must be a string or number")
		}
		raw = n.String()
	}

	// Blank values decode to "" and are rejected by request validation.
	if strings.TrimSpace(raw) == "" {
		*p = ""
		return nil
	}
	id, err := NormalizeProductID(raw)
	if err != nil {
		return err
	}
	*p = id
	return nil
}
