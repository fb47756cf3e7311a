package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// TimestampLayout renders ISO-8601 with an explicit numeric UTC offset (+00:00).
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Buckets maps a source currency code to its ranked list of rates.
type Buckets map[string][]Rate

// MarshalJSON emits tracked currencies first, in tracked order, followed by any
// other codes alphabetically. Every tracked currency is present, empty or not.
func (b Buckets) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	seen := make(map[string]struct{}, len(Currencies))
	keys := make([]string, 0, len(b)+len(Currencies))
	for _, c := range Currencies {
		keys = append(keys, c.Code)
		seen[c.Code] = struct{}{}
	}
	extra := make([]string, 0)
	for code := range b {
		if _, ok := seen[code]; !ok {
			extra = append(extra, code)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	for i, code := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshal(code)
		if err != nil {
			return nil, err
		}
		rates := b[code]
		if rates == nil {
			rates = []Rate{}
		}
		v, err := marshal(rates)
		if err != nil {
			return nil, fmt.Errorf("marshal %s bucket: %w", code, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Snapshot is the complete ranked result of one fetch run.
type Snapshot struct {
	UpdatedAt time.Time
	Target    string
	Rates     Buckets
}

type snapshotJSON struct {
	UpdatedAt string  `json:"updated_at"`
	Target    string  `json:"target"`
	Rates     Buckets `json:"rates"`
}

// NewSnapshot creates an empty snapshot with a bucket for every tracked currency.
func NewSnapshot(updatedAt time.Time) *Snapshot {
	rates := make(Buckets, len(Currencies))
	for _, c := range Currencies {
		rates[c.Code] = []Rate{}
	}
	return &Snapshot{UpdatedAt: updatedAt.UTC(), Target: Target, Rates: rates}
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return marshal(snapshotJSON{
		UpdatedAt: s.UpdatedAt.Format(TimestampLayout),
		Target:    s.Target,
		Rates:     s.Rates,
	})
}

// marshal is json.Marshal without HTML escaping, so provider URLs keep their
// literal '&'.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		UpdatedAt string            `json:"updated_at"`
		Target    string            `json:"target"`
		Rates     map[string][]Rate `json:"rates"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, raw.UpdatedAt)
	if err != nil {
		return fmt.Errorf("parse updated_at: %w", err)
	}
	s.UpdatedAt = ts.UTC()
	s.Target = raw.Target
	s.Rates = Buckets(raw.Rates)
	if s.Rates == nil {
		s.Rates = Buckets{}
	}
	return nil
}

// Add appends a record to a currency bucket without reordering.
func (s *Snapshot) Add(code string, r Rate) {
	s.Rates[code] = append(s.Rates[code], r)
}

// Rank sorts every bucket best rate first.
func (s *Snapshot) Rank() {
	for code := range s.Rates {
		SortBucket(s.Rates[code])
	}
}

// Count is the total number of records across all buckets.
func (s *Snapshot) Count() int {
	n := 0
	for _, rates := range s.Rates {
		n += len(rates)
	}
	return n
}

// Best returns the top-ranked record for code, or nil when the bucket is empty.
func (s *Snapshot) Best(code string) *Rate {
	rates := s.Rates[code]
	if len(rates) == 0 {
		return nil
	}
	best := rates[0]
	return &best
}
