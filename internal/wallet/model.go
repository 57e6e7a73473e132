package wallet

import (
	"fmt"
	"time"

	"github.com/pocketbook/pocketbook/internal/docstore"
)

// Collection is the document collection holding wallet records.
const Collection = "wallets"

// Wallet is an account-like bucket holding a running balance and lifetime
// income/expense totals. Balance, TotalIncome and TotalExpenses are written
// only by the ledger service and satisfy
// balance == totalIncome - totalExpenses at every commit point.
type Wallet struct {
	ID            string
	OwnerID       string
	Name          string
	IconRef       string
	Balance       int64
	TotalIncome   int64
	TotalExpenses int64
	CreatedAt     time.Time
}

// Wire field names other collaborators rely on.
const (
	fieldName          = "name"
	fieldOwner         = "uid"
	fieldIcon          = "image"
	fieldBalance       = "amount"
	fieldTotalIncome   = "totalIncome"
	fieldTotalExpenses = "totalExpenses"
	fieldCreated       = "created"
)

func encode(w Wallet) docstore.Document {
	doc := docstore.Document{
		fieldName:          w.Name,
		fieldOwner:         w.OwnerID,
		fieldBalance:       w.Balance,
		fieldTotalIncome:   w.TotalIncome,
		fieldTotalExpenses: w.TotalExpenses,
		fieldCreated:       docstore.FormatTime(w.CreatedAt),
	}
	if w.IconRef != "" {
		doc[fieldIcon] = w.IconRef
	} else {
		doc[fieldIcon] = nil
	}
	return doc
}

// decode validates the stored shape before it reaches any service. A wallet
// document missing its owner or carrying malformed totals is corrupt, not
// merely empty.
func decode(id string, doc docstore.Document) (Wallet, error) {
	w := Wallet{
		ID:      id,
		OwnerID: docstore.String(doc, fieldOwner),
		Name:    docstore.String(doc, fieldName),
		IconRef: docstore.String(doc, fieldIcon),
	}
	if w.OwnerID == "" {
		return Wallet{}, fmt.Errorf("wallet %s: missing owner", id)
	}

	var err error
	if w.Balance, err = docstore.Int64(doc, fieldBalance); err != nil {
		return Wallet{}, fmt.Errorf("wallet %s: %w", id, err)
	}
	if w.TotalIncome, err = docstore.Int64(doc, fieldTotalIncome); err != nil {
		return Wallet{}, fmt.Errorf("wallet %s: %w", id, err)
	}
	if w.TotalExpenses, err = docstore.Int64(doc, fieldTotalExpenses); err != nil {
		return Wallet{}, fmt.Errorf("wallet %s: %w", id, err)
	}
	if w.CreatedAt, err = docstore.Time(doc, fieldCreated); err != nil {
		return Wallet{}, fmt.Errorf("wallet %s: %w", id, err)
	}
	return w, nil
}
