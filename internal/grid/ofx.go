package grid

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/aclindsa/ofxgo"
)

// Synthetic header for flattened OFX statements. The column resolver maps it
// like any other export, so OFX files ride the normal pipeline.
var ofxHeader = []string{"Date", "Description", "Amount", "Type"}

func extractOFX(data []byte) ([][]string, error) {
	resp, err := ofxgo.ParseResponse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("extractOFX: parse response: %w", err)
	}

	rows := [][]string{ofxHeader}
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		rows = appendOFXTransactions(rows, stmt.BankTranList)
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		rows = appendOFXTransactions(rows, stmt.BankTranList)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("extractOFX: no bank or credit card transactions in file")
	}
	return rows, nil
}

func appendOFXTransactions(rows [][]string, list *ofxgo.TransactionList) [][]string {
	for _, txn := range list.Transactions {
		date := txn.DtPosted.Time
		if date.IsZero() {
			date = txn.DtUser.Time
		}
		if date.IsZero() {
			continue
		}

		// Name carries the counterparty; Memo is the fallback, and both
		// together beat either alone.
		desc := strings.TrimSpace(txn.Name.String())
		if memo := strings.TrimSpace(txn.Memo.String()); memo != "" && memo != desc {
			if desc == "" {
				desc = memo
			} else {
				desc = desc + " " + memo
			}
		}

		amount, _ := txn.TrnAmt.Float64()
		rows = append(rows, []string{
			date.Format("2006-01-02"),
			desc,
			strconv.FormatFloat(amount, 'f', 2, 64),
			ofxDirection(txn, amount),
		})
	}
	return rows
}

// ofxDirection renders an explicit type cell so signed OFX amounts never fall
// back to the ambiguous single-column sign convention.
func ofxDirection(txn ofxgo.Transaction, amount float64) string {
	switch txn.TrnType {
	case ofxgo.TrnTypeCredit, ofxgo.TrnTypeDep, ofxgo.TrnTypeDirectDep, ofxgo.TrnTypeInt:
		return "Income"
	case ofxgo.TrnTypeDebit, ofxgo.TrnTypePayment, ofxgo.TrnTypeCheck,
		ofxgo.TrnTypeFee, ofxgo.TrnTypeSrvChg, ofxgo.TrnTypeATM, ofxgo.TrnTypePOS:
		return "Expense"
	case ofxgo.TrnTypeXfer:
		return "Transfer"
	}
	if amount >= 0 {
		return "Income"
	}
	return "Expense"
}
