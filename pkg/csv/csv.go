// Package csv renders stored transactions as a downloadable CSV document.
package csv

import (
	"bytes"
	"fmt"

	"github.com/spendlens/spendlens/pkg/store"
)

// FilterFunc decides whether a transaction is included in the export.
type FilterFunc func(store.StoredTransaction) bool

// Create renders transactions to CSV bytes. A nil filter includes
// everything.
func Create(txns []store.StoredTransaction, filter FilterFunc) []byte {
	var buf bytes.Buffer
	buf.WriteString("Date,Description,Merchant,Amount,Category\n")
	for _, t := range txns {
		if filter == nil || filter(t) {
			buf.WriteString(fmt.Sprintf("%s,%q,%q,%.2f,%s\n",
				t.Date.Format("2006-01-02"),
				t.Description,
				t.MerchantName,
				t.Amount,
				t.CategoryID))
		}
	}
	return buf.Bytes()
}
