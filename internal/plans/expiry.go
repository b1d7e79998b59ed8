package plans

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDuration возвращается, если в строке длительности нет известной единицы.
var ErrInvalidDuration = errors.New("invalid duration")

var firstNumber = regexp.MustCompile(`\d+`)

// ExpiryFromDuration прибавляет к start длительность вида "30 days", "2 weeks", "1 month".
// Берётся первое число в строке (1, если чисел нет), единица ищется в порядке year, month, week, day.
func ExpiryFromDuration(start time.Time, duration string) (time.Time, error) {
	d := strings.ToLower(strings.TrimSpace(duration))

	n := 1
	if m := firstNumber.FindString(d); m != "" {
		v, err := strconv.Atoi(m)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDuration, duration)
		}
		n = v
	}

	switch {
	case strings.Contains(d, "year"):
		return start.AddDate(n, 0, 0), nil
	case strings.Contains(d, "month"):
		return start.AddDate(0, n, 0), nil
	case strings.Contains(d, "week"):
		return start.AddDate(0, 0, 7*n), nil
	case strings.Contains(d, "day"):
		return start.AddDate(0, 0, n), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDuration, duration)
	}
}

// IsActive сообщает, действует ли тариф в момент now. Истёкший ровно в now тариф уже не активен.
func IsActive(planName string, expiry *time.Time, now time.Time) bool {
	if strings.TrimSpace(planName) == "" || expiry == nil {
		return false
	}
	return expiry.After(now)
}
