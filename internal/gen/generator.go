// Package gen produces synthetic transaction batches for load testing and
// demos. Output matches the screening input schema, with a configurable share
// of rows carrying injected suspicious patterns.
package gen

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

type corridor struct {
	country  string
	currency string
}

var corridors = []corridor{
	{"US", "USD"}, {"GB", "GBP"}, {"DE", "EUR"},
	{"IN", "INR"}, {"AE", "AED"}, {"NG", "NGN"},
	{"RU", "RUB"}, {"CN", "CNY"}, {"BR", "BRL"},
}

var highRiskCountries = []string{"NG", "RU", "CN"}

var industries = []string{
	"Wheat Farming",
	"National Commercial Banks",
	"Software Development",
	"Tourism Services",
	"Drugs and Sundries",
	"Oil & Gas Extraction",
	"Security Brokers",
}

var channels = []string{"SWIFT", "SEPA", "RTGS", "NEFT"}

var purposes = []string{
	"invoice settlement",
	"consulting fees",
	"equipment purchase",
	"raw material supply",
	"software licensing",
	"freight charges",
}

var companySuffixes = []string{"Ltd", "GmbH", "Inc", "LLC", "PLC", "BV"}

var companyStems = []string{
	"Northgate", "Halview", "Brassport", "Cinder", "Oakline", "Ferrow",
	"Quillstone", "Medlar", "Vantor", "Greystoke", "Lindenmere", "Corvale",
}

// Generator produces deterministic pseudo-random batches from a seed.
type Generator struct {
	rng *rand.Rand
}

func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) companyName() string {
	stem := companyStems[g.rng.Intn(len(companyStems))]
	suffix := companySuffixes[g.rng.Intn(len(companySuffixes))]
	return stem + " " + suffix
}

// transactionID draws the UUID bytes from the seeded source so the same seed
// reproduces the same IDs.
func (g *Generator) transactionID() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// math/rand Read never fails.
		panic(err)
	}
	return id.String()
}

// Row generates a single synthetic transaction. Roughly one in five rows
// carries a suspicious pattern: structuring amounts just under the reporting
// threshold, or a high-risk corridor into the US.
func (g *Generator) Row() domain.Transaction {
	origin := corridors[g.rng.Intn(len(corridors))]
	bene := corridors[g.rng.Intn(len(corridors))]

	amount := decimal.NewFromFloat(50 + g.rng.Float64()*99950).Round(2)
	valueDate := time.Now().AddDate(0, 0, -g.rng.Intn(365)).Format("2006-01-02")

	tx := domain.Transaction{
		TransactionID:      g.transactionID(),
		OriginatorName:     g.companyName(),
		BeneficiaryName:    g.companyName(),
		Amount:             amount,
		Currency:           origin.currency,
		ValueDate:          valueDate,
		OriginatorCountry:  origin.country,
		BeneficiaryCountry: bene.country,
		Purpose:            purposes[g.rng.Intn(len(purposes))],
		Extra: map[string]string{
			"industry": industries[g.rng.Intn(len(industries))],
			"channel":  channels[g.rng.Intn(len(channels))],
		},
	}

	if g.rng.Float64() < 0.2 {
		switch g.rng.Intn(3) {
		case 0: // layering
			tx.Amount = decimal.NewFromFloat(5000 + g.rng.Float64()*10000).Round(2)
			tx.Extra["channel"] = "SWIFT"
		case 1: // structuring, just under the reporting threshold
			thresholds := []int64{9500, 9700, 9900}
			tx.Amount = decimal.NewFromInt(thresholds[g.rng.Intn(len(thresholds))])
		case 2: // high-risk corridor
			tx.OriginatorCountry = highRiskCountries[g.rng.Intn(len(highRiskCountries))]
			tx.BeneficiaryCountry = "US"
		}
	}

	return tx
}

// WriteCSV writes n synthetic rows in the screening input schema, with the
// industry and channel optional columns populated.
func (g *Generator) WriteCSV(w io.Writer, n int) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, domain.RequiredColumns...), "industry", "channel")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < n; i++ {
		tx := g.Row()
		record := []string{
			tx.TransactionID,
			tx.OriginatorName,
			tx.BeneficiaryName,
			tx.Amount.String(),
			tx.Currency,
			tx.ValueDate,
			tx.OriginatorCountry,
			tx.BeneficiaryCountry,
			tx.Purpose,
			tx.Extra["industry"],
			tx.Extra["channel"],
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", strconv.Itoa(i), err)
		}
	}

	cw.Flush()
	return cw.Error()
}
