package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of a custom order embedded in a message.
// pending is the only non-terminal state.
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderAccepted OrderStatus = "accepted"
	OrderRejected OrderStatus = "rejected"
	OrderExpired  OrderStatus = "expired"
)

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderAccepted || s == OrderRejected || s == OrderExpired
}

// OrderMeta carries the structured fields of a custom-order message.
type OrderMeta struct {
	OrderID      int64       `json:"order_id"`
	ServiceID    int64       `json:"service_id"`
	ServiceTitle string      `json:"service_title,omitempty"`
	Amount       float64     `json:"amount"`
	ExpiryChoice string      `json:"expiry_choice"`
	Note         string      `json:"note,omitempty"`
	Status       OrderStatus `json:"status"`
}

// Canonical expiry choices offered when creating a custom order. The backend
// historically used several vocabularies ("30_min" vs "30_minutes"); this set
// is the one the client sends, legacy aliases are accepted on parse only.
const (
	Expiry30Min = "30_min"
	Expiry1Hour = "1_hour"
	Expiry1Day  = "1_day"
	Expiry3Days = "3_days"
	Expiry1Week = "1_week"
)

var expiryDurations = map[string]time.Duration{
	Expiry30Min: 30 * time.Minute,
	Expiry1Hour: time.Hour,
	Expiry1Day:  24 * time.Hour,
	Expiry3Days: 72 * time.Hour,
	Expiry1Week: 7 * 24 * time.Hour,
}

var expiryLabels = map[string]string{
	Expiry30Min: "30 minutes",
	Expiry1Hour: "1 hour",
	Expiry1Day:  "1 day",
	Expiry3Days: "3 days",
	Expiry1Week: "1 week",
}

var expiryAliases = map[string]string{
	"30_minutes": Expiry30Min,
	"one_hour":   Expiry1Hour,
	"24_hours":   Expiry1Day,
	"one_day":    Expiry1Day,
	"three_days": Expiry3Days,
	"7_days":     Expiry1Week,
	"one_week":   Expiry1Week,
}

// CanonicalExpiry normalizes an expiry choice, resolving legacy aliases.
func CanonicalExpiry(choice string) (string, bool) {
	if _, ok := expiryDurations[choice]; ok {
		return choice, true
	}
	if canonical, ok := expiryAliases[choice]; ok {
		return canonical, true
	}
	return "", false
}

// ExpiryDuration maps a canonical expiry choice to its duration.
func ExpiryDuration(choice string) (time.Duration, bool) {
	canonical, ok := CanonicalExpiry(choice)
	if !ok {
		return 0, false
	}
	return expiryDurations[canonical], true
}

// ExpiryLabel returns the human-readable form of an expiry choice.
// Unknown choices are returned as-is rather than guessed at.
func ExpiryLabel(choice string) string {
	if canonical, ok := CanonicalExpiry(choice); ok {
		return expiryLabels[canonical]
	}
	return choice
}

// ExpiryChoices lists the canonical choices in menu order.
func ExpiryChoices() []string {
	return []string{Expiry30Min, Expiry1Hour, Expiry1Day, Expiry3Days, Expiry1Week}
}

// Line prefixes of the templated custom-order body. The template is the
// human-readable rendering of OrderMeta and, for old messages that predate
// the structured field, the fallback parse source.
const (
	orderBodyHeader  = "I'd like to offer you a custom order."
	orderServiceLine = "Service: "
	orderPriceLine   = "Price: $"
	orderExpiryLine  = "Expires in: "
	orderIDLine      = "Order #"
)

// ComposeOrderBody renders the fixed custom-order message template.
func ComposeOrderBody(meta *OrderMeta) string {
	var b strings.Builder
	b.WriteString(orderBodyHeader)
	b.WriteString("\n" + orderServiceLine + meta.ServiceTitle)
	b.WriteString("\n" + orderPriceLine + strconv.FormatFloat(meta.Amount, 'f', 2, 64))
	b.WriteString("\n" + orderExpiryLine + ExpiryLabel(meta.ExpiryChoice))
	if meta.Note != "" {
		b.WriteString("\n" + NoteLabel + meta.Note)
	}
	b.WriteString(fmt.Sprintf("\n%s%d", orderIDLine, meta.OrderID))
	return b.String()
}

// ParseOrderBody attempts to recover order metadata from a templated body.
// It is a backward-compatibility shim: OrderMeta, when present, always wins.
func ParseOrderBody(body string) (*OrderMeta, bool) {
	if !strings.HasPrefix(body, orderBodyHeader) {
		return nil, false
	}
	meta := &OrderMeta{Status: OrderPending}
	found := false
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, orderServiceLine):
			meta.ServiceTitle = strings.TrimPrefix(line, orderServiceLine)
		case strings.HasPrefix(line, orderPriceLine):
			amount, err := strconv.ParseFloat(strings.TrimPrefix(line, orderPriceLine), 64)
			if err == nil {
				meta.Amount = amount
			}
		case strings.HasPrefix(line, orderExpiryLine):
			meta.ExpiryChoice = labelToChoice(strings.TrimPrefix(line, orderExpiryLine))
		case strings.HasPrefix(line, NoteLabel):
			meta.Note = strings.TrimPrefix(line, NoteLabel)
		case strings.HasPrefix(line, orderIDLine):
			id, err := strconv.ParseInt(strings.TrimPrefix(line, orderIDLine), 10, 64)
			if err == nil {
				meta.OrderID = id
				found = true
			}
		}
	}
	if !found {
		return nil, false
	}
	return meta, true
}

func labelToChoice(label string) string {
	for choice, l := range expiryLabels {
		if l == label {
			return choice
		}
	}
	return label
}
