// Package all links every account data connector into the binary. Import it
// for its side effects:
//
//	import _ "bankroll/internal/broker/all"
package all

import (
	_ "bankroll/internal/broker/alpaca"
	_ "bankroll/internal/broker/ledger"
	_ "bankroll/internal/broker/statement"
)
