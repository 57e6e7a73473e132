package transaction

import (
	"fmt"
	"time"

	"github.com/pocketbook/pocketbook/internal/docstore"
)

// Collection is the document collection holding transaction records.
const Collection = "transactions"

// Kind distinguishes the two transaction directions.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Transaction is a single dated income or expense event attributed to one
// wallet. Amount is a positive magnitude in minor currency units; the sign
// of its effect derives purely from Kind.
type Transaction struct {
	ID          string
	OwnerID     string
	WalletID    string
	Kind        Kind
	Amount      int64
	Category    string
	Description string
	Date        time.Time
	ReceiptRef  string
}

const (
	fieldKind        = "type"
	fieldAmount      = "amount"
	fieldCategory    = "category"
	fieldDescription = "description"
	fieldDate        = "date"
	fieldWallet      = "walletId"
	fieldReceipt     = "image"
	fieldOwner       = "uid"
)

func encode(t Transaction) docstore.Document {
	doc := docstore.Document{
		fieldKind:        string(t.Kind),
		fieldAmount:      t.Amount,
		fieldCategory:    t.Category,
		fieldDescription: t.Description,
		fieldDate:        docstore.FormatTime(t.Date),
		fieldWallet:      t.WalletID,
		fieldOwner:       t.OwnerID,
	}
	if t.ReceiptRef != "" {
		doc[fieldReceipt] = t.ReceiptRef
	} else {
		doc[fieldReceipt] = nil
	}
	return doc
}

func decode(id string, doc docstore.Document) (Transaction, error) {
	t := Transaction{
		ID:          id,
		OwnerID:     docstore.String(doc, fieldOwner),
		WalletID:    docstore.String(doc, fieldWallet),
		Kind:        Kind(docstore.String(doc, fieldKind)),
		Category:    docstore.String(doc, fieldCategory),
		Description: docstore.String(doc, fieldDescription),
		ReceiptRef:  docstore.String(doc, fieldReceipt),
	}
	if !t.Kind.Valid() {
		return Transaction{}, fmt.Errorf("transaction %s: unknown kind %q", id, t.Kind)
	}
	if t.WalletID == "" {
		return Transaction{}, fmt.Errorf("transaction %s: missing wallet", id)
	}

	var err error
	if t.Amount, err = docstore.Int64(doc, fieldAmount); err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: %w", id, err)
	}
	if t.Date, err = docstore.Time(doc, fieldDate); err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: %w", id, err)
	}
	return t, nil
}
