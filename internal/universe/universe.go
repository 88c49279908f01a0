// Package universe resolves named symbol lists into the concrete set of
// tickers a scan covers. Lists are curated and compiled in; ad hoc
// symbols can be mixed with list names on the command line.
package universe

import (
	"fmt"
	"sort"
	"strings"
)

// Built-in lists. Keys are the names accepted by Resolve.
var lists = map[string][]string{
	"us_liquid_tech": {
		"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN", "META", "TSLA", "AMD",
		"AVGO", "CRM", "ORCL", "ADBE", "NFLX", "INTC", "QCOM", "TXN",
		"NOW", "UBER", "SHOP", "PLTR", "SNOW", "PANW", "CRWD", "NET",
		"DDOG", "MDB", "SQ", "COIN", "ABNB", "MU",
	},
	"us_blue_chip": {
		"JPM", "V", "MA", "UNH", "HD", "PG", "JNJ", "KO", "PEP", "WMT",
		"DIS", "MCD", "NKE", "CAT", "BA", "GS", "MS", "AXP", "IBM",
		"GE", "MMM", "CVX", "XOM", "LLY", "ABBV", "MRK", "PFE", "TMO",
		"COST", "LOW",
	},
	"us_growth": {
		"CELH", "DKNG", "RBLX", "TTD", "AFRM", "SOFI", "HOOD", "DUOL",
		"TOST", "IOT", "GTLB", "S", "ZS", "OKTA", "TWLO", "U", "PATH",
		"APP", "MELI", "SE",
	},
	"uk_large_cap": {
		"AZN.L", "SHEL.L", "HSBA.L", "ULVR.L", "BP.L", "GSK.L", "RIO.L",
		"REL.L", "DGE.L", "AAL.L", "BARC.L", "LLOY.L", "NG.L", "VOD.L",
		"PRU.L", "TSCO.L", "BATS.L", "CPG.L", "RR.L", "LSEG.L",
	},
}

// Names returns the available list names, sorted.
func Names() []string {
	names := make([]string, 0, len(lists))
	for name := range lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a copy of one named list.
func Get(name string) ([]string, error) {
	symbols, ok := lists[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown universe %q (available: %s)",
			name, strings.Join(Names(), ", "))
	}
	out := make([]string, len(symbols))
	copy(out, symbols)
	return out, nil
}

// Resolve expands a mix of list names and raw symbols into a single
// deduplicated, order-preserving symbol slice. An entry is treated as a
// list name when one exists, otherwise as a literal ticker.
func Resolve(entries []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	add := func(symbol string) {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" || seen[symbol] {
			return
		}
		seen[symbol] = true
		out = append(out, symbol)
	}

	for _, entry := range entries {
		if symbols, ok := lists[strings.ToLower(strings.TrimSpace(entry))]; ok {
			for _, s := range symbols {
				add(s)
			}
			continue
		}
		add(entry)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("empty universe")
	}
	return out, nil
}
