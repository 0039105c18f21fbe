package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/numisight/numisight/internal/db"
)

// ImageLocator resolves the public URL of a coin's image.
type ImageLocator interface {
	Find(period Period, dynasty, kingName, code string) string
}

// Store provides search and maintenance operations over the coin catalog.
type Store struct {
	db      *db.DB
	periods []Period
	images  ImageLocator
}

// NewStore creates a Store searching the given periods in order. A nil
// locator leaves every ImageURL empty.
func NewStore(database *db.DB, periods []Period, images ImageLocator) *Store {
	if len(periods) == 0 {
		periods = AllPeriods
	}
	return &Store{db: database, periods: periods, images: images}
}

// Periods returns the periods this store searches.
func (s *Store) Periods() []Period {
	return append([]Period(nil), s.periods...)
}

// AddKey inserts or replaces a dynasty key.
func (s *Store) AddKey(ctx context.Context, k DynastyKey) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dynasty_keys (period, code, dynasty, king_name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(period, code) DO UPDATE SET
			dynasty = excluded.dynasty,
			king_name = excluded.king_name`,
		string(k.Period), k.Code, k.Dynasty, k.KingName,
	)
	if err != nil {
		return fmt.Errorf("inserting dynasty key %s/%s: %w", k.Period, k.Code, err)
	}
	return nil
}

// AddCoin inserts or replaces a coin row.
func (s *Store) AddCoin(ctx context.Context, c Coin) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coins (period, s_no, code, details)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(period, s_no) DO UPDATE SET
			code = excluded.code,
			details = excluded.details`,
		string(c.Period), c.SNo, c.Code, c.Details,
	)
	if err != nil {
		return fmt.Errorf("inserting coin %s/%d: %w", c.Period, c.SNo, err)
	}
	return nil
}

// Search returns the coins whose dynasty key mentions any of the terms in
// its dynasty or king name. Periods are searched in order; within a period
// keys keep insertion order and coins follow their serial number.
func (s *Store) Search(ctx context.Context, terms []string) ([]Match, error) {
	terms = nonEmpty(terms)
	if len(terms) == 0 {
		return nil, nil
	}

	var matches []Match
	for _, period := range s.periods {
		keys, err := s.matchKeys(ctx, period, terms)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			coins, err := s.coinsWithPrefix(ctx, period, key.Code)
			if err != nil {
				return nil, err
			}
			for _, c := range coins {
				m := Match{
					Period:   period,
					SNo:      c.SNo,
					Code:     c.Code,
					Details:  c.Details,
					Dynasty:  key.Dynasty,
					KingName: key.KingName,
				}
				if s.images != nil {
					m.ImageURL = s.images.Find(period, key.Dynasty, key.KingName, c.Code)
				}
				matches = append(matches, m)
			}
		}
	}
	return matches, nil
}

func (s *Store) matchKeys(ctx context.Context, period Period, terms []string) ([]DynastyKey, error) {
	clauses := make([]string, 0, len(terms))
	args := []any{string(period)}
	for _, term := range terms {
		clauses = append(clauses, `(dynasty LIKE ? ESCAPE '\' OR king_name LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(term) + "%"
		args = append(args, pattern, pattern)
	}

	query := "SELECT code, dynasty, king_name FROM dynasty_keys WHERE period = ? AND (" +
		strings.Join(clauses, " OR ") + ") ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s dynasty keys: %w", period, err)
	}
	defer rows.Close()

	var keys []DynastyKey
	for rows.Next() {
		k := DynastyKey{Period: period}
		if err := rows.Scan(&k.Code, &k.Dynasty, &k.KingName); err != nil {
			return nil, fmt.Errorf("scanning dynasty key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) coinsWithPrefix(ctx context.Context, period Period, prefix string) ([]Coin, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s_no, code, details FROM coins
		WHERE period = ? AND substr(code, 1, length(?)) = ?
		ORDER BY s_no`,
		string(period), prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s coins for %q: %w", period, prefix, err)
	}
	defer rows.Close()

	var coins []Coin
	for rows.Next() {
		c := Coin{Period: period}
		if err := rows.Scan(&c.SNo, &c.Code, &c.Details); err != nil {
			return nil, fmt.Errorf("scanning coin: %w", err)
		}
		coins = append(coins, c)
	}
	return coins, rows.Err()
}

// Stats returns key and coin counts for each searched period.
func (s *Store) Stats(ctx context.Context) ([]PeriodStats, error) {
	stats := make([]PeriodStats, 0, len(s.periods))
	for _, period := range s.periods {
		ps := PeriodStats{Period: period}
		err := s.db.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM dynasty_keys WHERE period = ?),
				(SELECT COUNT(*) FROM coins WHERE period = ?)`,
			string(period), string(period),
		).Scan(&ps.Keys, &ps.Coins)
		if err != nil {
			return nil, fmt.Errorf("counting %s catalog: %w", period, err)
		}
		stats = append(stats, ps)
	}
	return stats, nil
}

// escapeLike escapes the LIKE wildcards in s so it matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nonEmpty(terms []string) []string {
	out := terms[:0:0]
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
