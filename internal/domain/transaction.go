package domain

import (
	"github.com/shopspring/decimal"
)

// RequiredColumns is the column set every input batch must carry. A batch
// missing any of these is rejected wholesale at extraction time.
var RequiredColumns = []string{
	"transaction_id",
	"originator_name",
	"beneficiary_name",
	"amount",
	"currency",
	"value_date",
	"originator_country",
	"beneficiary_country",
	"purpose",
}

// OptionalColumns are enrichment columns that pass through unchanged when
// present in the input; anything outside this allow-list is discarded.
var OptionalColumns = []string{
	"industry",
	"transaction_type",
	"channel",
	"customer_segment",
	"relationship_length",
	"product",
}

// Transaction is one financial transfer as read from the input batch.
// Extra holds the optional allow-listed columns that were present, keyed by
// column name; Batch.OptionalColumns fixes their order for output.
type Transaction struct {
	TransactionID      string
	OriginatorName     string
	OriginatorCountry  string
	BeneficiaryName    string
	BeneficiaryCountry string
	Amount             decimal.Decimal
	Currency           string
	ValueDate          string
	Purpose            string

	Extra map[string]string
}

// Batch is a typed handle over one validated input table. Downstream stages
// trust it by construction: the schema pass in the extractor has already
// verified required columns, unique transaction IDs and non-negative amounts.
type Batch struct {
	BatchID string

	// OptionalColumns lists the allow-listed optional columns present in the
	// source, in canonical order. Used to keep CSV output deterministic.
	OptionalColumns []string

	Transactions []Transaction
}
