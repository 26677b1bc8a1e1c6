package cardgen

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alovak/cardledger/internal/expiry"
	"github.com/alovak/cardledger/ledger/models"
)

const (
	panLen = 16

	// BatchMax bounds a single batch generation request.
	BatchMax = 1000

	expiryBaseYear   = 2026
	expiryYearWindow = 5
)

// Domain-separation tags: every derived field reads its own digit stream so
// changing one field's derivation never shifts another's.
const (
	tagPAN         = "pan"
	tagCVV         = "cvv"
	tagVerify      = "verify"
	tagExpiryMonth = "expiry_month"
	tagExpiryYear  = "expiry_year"
	tagHolder      = "holder"
	tagBatch       = "batch"
)

// Network binds a card network to its fixed issuing metadata.
type Network struct {
	Name     string
	Prefix   string
	Country  string
	Issuer   string
	BINRange string
}

// Exactly two supported networks, selected by seed parity.
var networks = [2]Network{
	{Name: "VISA", Prefix: "4", Country: "US", Issuer: "Chase Bank", BINRange: "400000-499999"},
	{Name: "MASTERCARD", Prefix: "51", Country: "US", Issuer: "Citibank", BINRange: "510000-559999"},
}

var holderNames = []string{
	"ALEX MORGAN",
	"JORDAN LEE",
	"SAM RIVERA",
	"CASEY KIM",
	"TAYLOR BROOKS",
	"ROBIN SHAW",
	"DANA WRIGHT",
	"JESSE COLE",
}

// Generator derives synthetic card records from seeds. A Generator carries an
// identity and a clock only for batch seeding; Generate itself is pure.
type Generator struct {
	id  uuid.UUID
	now func() time.Time
}

func New() *Generator {
	return &Generator{id: uuid.New(), now: time.Now}
}

// NewWithClock is for tests that need reproducible batch entropy.
func NewWithClock(id uuid.UUID, now func() time.Time) *Generator {
	return &Generator{id: id, now: now}
}

// NetworkFor returns the network a seed maps to.
func NetworkFor(seed uint64) Network {
	return networks[seed%2]
}

// Generate deterministically derives a card record: identical (seed, index)
// inputs always produce an identical record.
func (g *Generator) Generate(seed, index uint64) models.Card {
	s := mixSeed(seed, index)
	net := NetworkFor(seed)

	body := net.Prefix + digits(s, tagPAN, panLen-len(net.Prefix)-1)
	pan := body + luhnCheckDigit(body)

	month := 1 + int(hashValue(s, tagExpiryMonth)%12)
	year := expiryBaseYear + int(hashValue(s, tagExpiryYear)%expiryYearWindow)

	return models.Card{
		PAN:              pan,
		Expiry:           expiry.CardFace(month, year),
		ExpiryTS:         expiry.BoundedTimestamp(month, year),
		CVV:              digits(s, tagCVV, 3),
		Network:          net.Name,
		Country:          net.Country,
		Issuer:           net.Issuer,
		BINRange:         net.BINRange,
		Cardholder:       holderNames[hashValue(s, tagHolder)%uint64(len(holderNames))],
		VerificationCode: digits(s, tagVerify, 6),
	}
}

// GenerateBatch derives count records seeded from batch-creation entropy
// (current time, loop index, generator identity). A batch is therefore not
// reproducible even though Generate is pure per record.
func (g *Generator) GenerateBatch(count int) ([]models.Card, error) {
	if count < 1 || count > BatchMax {
		return nil, fmt.Errorf("batch count must be 1..%d (got %d)", BatchMax, count)
	}
	nanos := uint64(g.now().UnixNano())
	cards := make([]models.Card, 0, count)
	for i := 0; i < count; i++ {
		cards = append(cards, g.Generate(g.batchSeed(nanos, uint64(i)), uint64(i)))
	}
	return cards, nil
}

func (g *Generator) batchSeed(nanos, i uint64) uint64 {
	h := sha256.New()
	h.Write(g.id[:])
	h.Write([]byte(tagBatch))
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], nanos)
	binary.BigEndian.PutUint64(buf[8:], i)
	h.Write(buf[:])
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}

// mixSeed folds the record index into the seed so per-index records from one
// seed stay uncorrelated.
func mixSeed(seed, index uint64) uint64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], seed)
	binary.BigEndian.PutUint64(buf[8:], index)
	sum := sha256.Sum256(buf[:])
	return binary.BigEndian.Uint64(sum[:8])
}

// hashDigit is the single digit primitive: H(seed, tag, position) mod 10.
// SHA-256 mixing keeps adjacent digits uncorrelated.
func hashDigit(seed uint64, tag string, pos uint64) byte {
	return byte(hashAt(seed, tag, pos) % 10)
}

// hashValue derives a whole value for a field (month, year, name pick).
func hashValue(seed uint64, tag string) uint64 {
	return hashAt(seed, tag, 0)
}

func hashAt(seed uint64, tag string, pos uint64) uint64 {
	h := sha256.New()
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], seed)
	binary.BigEndian.PutUint64(buf[8:], pos)
	h.Write(buf[:8])
	h.Write([]byte(tag))
	h.Write(buf[8:])
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}

func digits(seed uint64, tag string, n int) string {
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = '0' + hashDigit(seed, tag, uint64(i))
	}
	return string(b)
}
