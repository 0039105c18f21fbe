package catalog

import (
	"context"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Reporter receives import progress. progress.Reporter satisfies it.
type Reporter interface {
	Start(total int)
	Update(current int, message string)
	Finish()
}

// periodFile is one period's section of a catalog file.
type periodFile struct {
	Keys  []DynastyKey `yaml:"keys"`
	Coins []Coin       `yaml:"coins"`
}

// ImportResult counts the rows written by Import.
type ImportResult struct {
	Keys  int
	Coins int
}

// Import loads a YAML catalog of the form
//
//	ancient:
//	  keys:
//	    - {code: AK1, dynasty: Kushan, king_name: Kanishka}
//	  coins:
//	    - {s_no: 1, code: AK1-01, details: "..."}
//
// into the store. Existing rows with the same period and code (keys) or
// serial number (coins) are replaced.
func (s *Store) Import(ctx context.Context, r io.Reader, rep Reporter) (ImportResult, error) {
	var doc map[string]periodFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return ImportResult{}, fmt.Errorf("decoding catalog: %w", err)
	}

	names := make([]string, 0, len(doc))
	total := 0
	for name, pf := range doc {
		if _, ok := ParsePeriod(name); !ok {
			return ImportResult{}, fmt.Errorf("unknown period %q in catalog", name)
		}
		names = append(names, name)
		total += len(pf.Keys) + len(pf.Coins)
	}
	sort.Slice(names, func(i, j int) bool { return periodRank(names[i]) < periodRank(names[j]) })

	if rep != nil {
		rep.Start(total)
		defer rep.Finish()
	}

	var res ImportResult
	done := 0
	for _, name := range names {
		period := Period(name)
		pf := doc[name]
		for _, k := range pf.Keys {
			if k.Code == "" {
				return res, fmt.Errorf("%s dynasty key without code", period)
			}
			k.Period = period
			if err := s.AddKey(ctx, k); err != nil {
				return res, err
			}
			res.Keys++
			done++
			if rep != nil {
				rep.Update(done, fmt.Sprintf("%s key %s", period, k.Code))
			}
		}
		for _, c := range pf.Coins {
			if c.Code == "" {
				return res, fmt.Errorf("%s coin %d without code", period, c.SNo)
			}
			c.Period = period
			if err := s.AddCoin(ctx, c); err != nil {
				return res, err
			}
			res.Coins++
			done++
			if rep != nil {
				rep.Update(done, fmt.Sprintf("%s coin %s", period, c.Code))
			}
		}
	}
	return res, nil
}

func periodRank(name string) int {
	for i, p := range AllPeriods {
		if string(p) == name {
			return i
		}
	}
	return len(AllPeriods)
}
