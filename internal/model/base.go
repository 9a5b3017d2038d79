package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// ── Comma-separated TEXT custom type ──

// StringList maps a comma-separated TEXT column to []string.
// Used for role sets and co-offering department codes.
type StringList []string

// Scan parses "a,b,c" into a slice; empty text becomes an empty slice.
func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("StringList.Scan: unsupported type %T", src)
	}
	if s == "" {
		*l = StringList{}
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(StringList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*l = out
	return nil
}

// Value serializes the slice back to comma-separated text.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "", nil
	}
	return strings.Join(l, ","), nil
}

// Contains reports whether the list holds the given entry.
func (l StringList) Contains(s string) bool {
	for _, e := range l {
		if e == s {
			return true
		}
	}
	return false
}

// BaseModel audit timestamps embedded by mutable models.
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
