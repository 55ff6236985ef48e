// Package ledger holds the bookkeeping rules for lesson credits: balance
// arithmetic, default notes, low-balance detection and dashboard statistics.
// It has no I/O; services apply these rules inside their transactions.
package ledger

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// LowBalanceThreshold flags students with fewer remaining lessons for renewal.
	LowBalanceThreshold = 5
	// MinPasscodeLength is the minimum length of a first-run passcode.
	MinPasscodeLength = 6
	// RecentLimit bounds the "latest activity" lists on the dashboard.
	RecentLimit = 5
)

// LogType tags a balance change.
type LogType string

// Supported balance change types.
const (
	Consume LogType = "consume"
	Refill  LogType = "refill"
)

var (
	// ErrInsufficientBalance indicates a consume larger than the remaining balance.
	ErrInsufficientBalance = errors.New("insufficient lesson balance")
	// ErrInvalidAmount indicates a zero-sized balance change.
	ErrInvalidAmount = errors.New("lesson amount must not be zero")
	// ErrUnknownLogType indicates a type other than consume or refill.
	ErrUnknownLogType = errors.New("unknown lesson change type")
)

// ParseLogType normalises raw input into a LogType.
func ParseLogType(raw string) (LogType, error) {
	switch LogType(strings.ToLower(strings.TrimSpace(raw))) {
	case Consume:
		return Consume, nil
	case Refill:
		return Refill, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLogType, raw)
	}
}

// Balance is a student's credit position.
type Balance struct {
	Remaining int
	Total     int
}

// Magnitude returns the absolute value of a signed lesson amount.
func Magnitude(amount int) int {
	if amount < 0 {
		return -amount
	}
	return amount
}

// ApplyChange returns the balance after applying amount lessons of the given type.
// The sign of amount is ignored; the type decides the direction. Consumption never
// drives Remaining below zero and never touches Total.
func ApplyChange(current Balance, t LogType, amount int) (Balance, error) {
	size := Magnitude(amount)
	if size == 0 {
		return current, ErrInvalidAmount
	}

	switch t {
	case Consume:
		if size > current.Remaining {
			return current, ErrInsufficientBalance
		}
		return Balance{Remaining: current.Remaining - size, Total: current.Total}, nil
	case Refill:
		return Balance{Remaining: current.Remaining + size, Total: current.Total + size}, nil
	default:
		return current, ErrUnknownLogType
	}
}

// DefaultNote is the note recorded when the operator leaves it blank.
func DefaultNote(t LogType) string {
	if t == Consume {
		return "lesson consumed"
	}
	return "lesson refilled"
}

// ResolveNote trims note and substitutes the default for blank input.
func ResolveNote(t LogType, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return DefaultNote(t)
	}
	return note
}

// IsLowBalance reports whether remaining is under the renewal threshold.
func IsLowBalance(remaining int) bool {
	return remaining < LowBalanceThreshold
}
