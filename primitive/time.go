package primitive

import (
	"fmt"
	"time"

	"github.com/brightsparklabs/asanti-sub002/variant"
)

// decodeUTCTime reads YYMMDDhhmm[ss](Z|+hhmm|-hhmm). Two-digit years below
// 50 are in the 2000s.
func decodeUTCTime(content []byte) (*variant.Variant, error) {
	s := string(content)
	if len(s) < 11 || len(s) > 17 {
		return nil, fmt.Errorf("%w: UTCTime %q", ErrInvalidTime, s)
	}
	year := digits(s, 2)
	month := digits(s[2:], 2)
	day := digits(s[4:], 2)
	hour := digits(s[6:], 2)
	minute := digits(s[8:], 2)
	s = s[10:]
	second := digits(s, 2)
	if second >= 0 {
		s = s[2:]
	} else {
		second = 0
	}
	loc := zone(s)
	if year < 0 || loc == nil {
		return nil, fmt.Errorf("%w: UTCTime %q", ErrInvalidTime, content)
	}
	if year < 50 {
		year += 2000
	} else {
		year += 1900
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day || t.Hour() != hour || t.Minute() != minute || t.Second() != second {
		return nil, fmt.Errorf("%w: UTCTime %q out of range", ErrInvalidTime, content)
	}
	return variant.NewTime(t), nil
}

// decodeGeneralizedTime reads YYYYMMDDHH[MM[SS]][(.|,)fff][Z|+hhmm|-hhmm].
// A value without a zone is taken as UTC.
func decodeGeneralizedTime(content []byte) (*variant.Variant, error) {
	s := string(content)
	invalid := fmt.Errorf("%w: GeneralizedTime %q", ErrInvalidTime, s)
	if len(s) < 10 {
		return nil, invalid
	}
	year := digits(s, 4)
	month := digits(s[4:], 2)
	day := digits(s[6:], 2)
	hour := digits(s[8:], 2)
	if year < 0 || hour < 0 || hour > 23 {
		return nil, invalid
	}
	s = s[10:]
	dur := time.Duration(hour) * time.Hour
	unit := time.Hour
	for _, next := range []time.Duration{time.Minute, time.Second} {
		if len(s) < 2 || s[0] < '0' || s[0] > '9' {
			break
		}
		n := digits(s, 2)
		if n < 0 || n > 59 {
			return nil, invalid
		}
		dur += time.Duration(n) * next
		unit = next
		s = s[2:]
	}
	if len(s) > 0 && (s[0] == '.' || s[0] == ',') {
		i := 1
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			unit /= 10
			dur += time.Duration(s[i]-'0') * unit
		}
		if i == 1 {
			return nil, invalid
		}
		s = s[i:]
	}
	loc := time.UTC
	if len(s) > 0 {
		if loc = zone(s); loc == nil {
			return nil, invalid
		}
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc).Add(dur)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return nil, invalid
	}
	return variant.NewTime(t), nil
}

// zone parses "Z" or a +hhmm / -hhmm offset.
func zone(s string) *time.Location {
	if s == "Z" {
		return time.UTC
	}
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return nil
	}
	h, m := digits(s[1:], 2), digits(s[3:], 2)
	if h < 0 || m < 0 {
		return nil
	}
	offset := h*3600 + m*60
	if s[0] == '-' {
		offset = -offset
	}
	return time.FixedZone("", offset)
}

// digits parses the first n decimal digits of s, or returns -1.
func digits(s string, n int) int {
	if len(s) < n {
		return -1
	}
	v := 0
	for i := 0; i < n; i++ {
		if s[i] < '0' || s[i] > '9' {
			return -1
		}
		v = v*10 + int(s[i]-'0')
	}
	return v
}
