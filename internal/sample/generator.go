package sample

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/avisingh/tradescan/internal/model"
)

// Per-category product template pools. A category absent from this map
// generates nothing.
var productTemplates = map[string][]string{
	"industrial machinery": {
		"CNC Milling Machine", "Industrial Lathe", "Hydraulic Press Machine",
		"Metal Cutting Machine", "Drilling Machine", "Grinding Machine",
		"Injection Molding Machine", "Conveyor Belt System", "Power Press",
		"Industrial Mixer", "Packaging Machine", "Welding Machine",
	},
	"electronic components": {
		"LED Display Module", "Power Supply Unit", "Circuit Breaker",
		"Transformer", "Relay Switch", "Sensor Module", "PCB Board",
		"Microcontroller", "Capacitor Bank", "Resistor Set",
	},
	"textile fabrics": {
		"Cotton Fabric Roll", "Polyester Fabric", "Silk Material",
		"Denim Fabric", "Linen Cloth", "Georgette Fabric",
		"Canvas Material", "Velvet Fabric", "Rayon Cloth",
	},
	"plastic raw materials": {
		"PVC Granules", "HDPE Pellets", "PP Raw Material",
		"PET Resin", "LDPE Material", "ABS Plastic Granules",
		"Polycarbonate Sheets", "Acrylic Material",
	},
	"safety equipment": {
		"Safety Helmet", "Industrial Gloves", "Safety Goggles",
		"Fire Extinguisher", "Safety Harness", "Reflective Jacket",
		"Ear Protection", "Face Shield", "First Aid Kit",
	},
}

var companies = []string{
	"Prime Industries", "Global Traders", "Supreme Enterprises",
	"Perfect Manufacturing", "Royal Systems", "Elite Solutions",
}

var cities = []string{
	"Mumbai, Maharashtra", "Delhi, Delhi", "Bangalore, Karnataka",
	"Ahmedabad, Gujarat", "Chennai, Tamil Nadu", "Pune, Maharashtra",
}

var prefixes = []string{"Heavy Duty", "Industrial Grade", "Premium", "High Quality", ""}

// Generator produces synthetic backfill records. It never fails: unknown
// categories simply yield nothing.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// New seeds the generator. The same seed produces the same record sequence,
// which tests rely on.
func New(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Generate draws up to count records from the category's template pool,
// capped at four variations per template. Every record carries the sample
// source marker.
func (g *Generator) Generate(category string, count int) []model.RawRecord {
	templates := productTemplates[category]
	if len(templates) == 0 || count <= 0 {
		return nil
	}

	limit := count
	if poolCap := len(templates) * 4; limit > poolCap {
		limit = poolCap
	}

	records := make([]model.RawRecord, 0, limit)
	for i := 0; i < limit; i++ {
		template := templates[g.rng.Intn(len(templates))]
		prefix := prefixes[g.rng.Intn(len(prefixes))]
		name := template
		if prefix != "" {
			name = prefix + " " + template
		}

		price := 1000 + g.rng.Intn(499001)
		records = append(records, model.RawRecord{
			Name:         name,
			PriceText:    "₹ " + groupDigits(price),
			PriceNumeric: model.Float64(float64(price)),
			Company:      companies[g.rng.Intn(len(companies))],
			Location:     cities[g.rng.Intn(len(cities))],
			Category:     category,
			Rating:       g.rating(),
			URL:          fmt.Sprintf("https://example.com/product/%d", 1000+g.rng.Intn(9000)),
			Source:       model.SampleSource,
			ScrapedAt:    g.now(),
		})
	}
	return records
}

// rating is absent for roughly 30% of records.
func (g *Generator) rating() string {
	if g.rng.Float64() <= 0.3 {
		return ""
	}
	return fmt.Sprintf("%.1f ★", 3.5+g.rng.Float64()*1.5)
}

// groupDigits renders an integer with thousands separators.
func groupDigits(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
