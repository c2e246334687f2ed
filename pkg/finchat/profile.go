package finchat

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Profile holds the static user record loaded at startup. It is read-only for
// the lifetime of the process, so no locking is needed.
type Profile struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	BankBalance float64  `json:"bank_balance"`
	Portfolio   []string `json:"portfolio"`

	holdings map[string]struct{}
}

type profileFile struct {
	User *Profile `json:"user"`
}

// LoadProfile reads and validates the profile JSON file. The expected shape is
// {"user": {"name", "email", "bank_balance", "portfolio"}}. Any failure here
// is treated as fatal by the caller.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var file profileFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if file.User == nil {
		return nil, fmt.Errorf("profile %s: missing required \"user\" object", path)
	}
	p := file.User
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, fmt.Errorf("profile %s: user.name is required", path)
	}
	p.index()
	return p, nil
}

// index normalizes the portfolio to deduplicated uppercase tickers and builds
// the membership set used by Holds.
func (p *Profile) index() {
	p.holdings = make(map[string]struct{}, len(p.Portfolio))
	normalized := make([]string, 0, len(p.Portfolio))
	for _, sym := range p.Portfolio {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		if _, ok := p.holdings[sym]; ok {
			continue
		}
		p.holdings[sym] = struct{}{}
		normalized = append(normalized, sym)
	}
	p.Portfolio = normalized
}

// Holds reports whether the portfolio contains the given ticker. The symbol
// is uppercased before the membership test.
func (p *Profile) Holds(symbol string) bool {
	_, ok := p.holdings[strings.ToUpper(strings.TrimSpace(symbol))]
	return ok
}

// Holdings returns a copy of the normalized portfolio in file order.
func (p *Profile) Holdings() []string {
	out := make([]string, len(p.Portfolio))
	copy(out, p.Portfolio)
	return out
}
