package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/internal/schema"
)

// maxUniqueAttempts bounds the retry-until-unseen loop for unique attributes.
const maxUniqueAttempts = 1000

var (
	firstNames = []string{"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry"}
	lastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
	domains    = []string{"example.com", "test.com", "demo.com", "mail.com"}
	words      = []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}
	companies  = []string{"Acme Corp", "Globex", "Initech", "Umbrella Co", "Stark Industries", "Wayne Enterprises"}
	sentences  = []string{
		"This is a sample text generated for testing purposes.",
		"Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
		"The quick brown fox jumps over the lazy dog.",
		"Software development requires careful planning and execution.",
		"Synthetic data keeps downstream pipelines honest.",
	}
)

// Faker is the default ValueProvider: a seeded pseudo-random generator that
// dispatches on the attribute's generator tag. All randomness flows through
// one rand.Rand, so the same seed and schema reproduce the same values.
type Faker struct {
	rng     *rand.Rand
	counter int
}

func NewFaker(seed int64) *Faker {
	return &Faker{rng: rand.New(rand.NewSource(seed))}
}

// Generate produces one value for the attribute, or a deferred marker when
// the attribute is a link - links are resolved by the caller, never here.
func (f *Faker) Generate(attr *schema.AttributeDefinition) (GeneratedValue, error) {
	if attr.Link != "" {
		return Deferred(), nil
	}

	switch attr.Generator {
	case "uuid":
		id, err := uuid.NewRandomFromReader(f.rng)
		if err != nil {
			return GeneratedValue{}, fmt.Errorf("uuid generation failed: %w", err)
		}
		return Concrete(id.String()), nil
	case "name", "person_name":
		return Concrete(f.pick(firstNames) + " " + f.pick(lastNames)), nil
	case "first_name":
		return Concrete(f.pick(firstNames)), nil
	case "last_name":
		return Concrete(f.pick(lastNames)), nil
	case "email":
		f.counter++
		return Concrete(fmt.Sprintf("user%d_%d@%s", f.counter, f.rng.Intn(100000), f.pick(domains))), nil
	case "phone":
		return Concrete(fmt.Sprintf("+1-%03d-%03d-%04d", f.rng.Intn(1000), f.rng.Intn(1000), f.rng.Intn(10000))), nil
	case "address":
		return Concrete(fmt.Sprintf("%d Main Street, City, State %05d", f.rng.Intn(9999)+1, f.rng.Intn(100000))), nil
	case "company":
		return Concrete(f.pick(companies)), nil
	case "word":
		return Concrete(f.pick(words)), nil
	case "sentence", "text":
		return Concrete(f.pick(sentences)), nil
	case "url":
		return Concrete(fmt.Sprintf("https://example.com/page/%d", f.rng.Intn(1000))), nil
	case "int", "integer":
		min := f.intConstraint(attr, "min", 1)
		max := f.intConstraint(attr, "max", 1000000)
		if max < min {
			return GeneratedValue{}, fmt.Errorf("attribute %q: int constraint max %d < min %d", attr.Name, max, min)
		}
		return Concrete(min + f.rng.Intn(max-min+1)), nil
	case "float", "decimal":
		min := f.floatConstraint(attr, "min", 0)
		max := f.floatConstraint(attr, "max", 10000)
		if max < min {
			return GeneratedValue{}, fmt.Errorf("attribute %q: float constraint max %g < min %g", attr.Name, max, min)
		}
		return Concrete(min + f.rng.Float64()*(max-min)), nil
	case "price":
		max := f.floatConstraint(attr, "max", 1000)
		cents := int(max * 100)
		if cents < 1 {
			return GeneratedValue{}, fmt.Errorf("attribute %q: price constraint max %g must be at least 0.01", attr.Name, max)
		}
		return Concrete(float64(f.rng.Intn(cents)) / 100), nil
	case "bool", "boolean":
		return Concrete(f.rng.Intn(2) == 1), nil
	case "date":
		return Concrete(f.randomTime().Format("2006-01-02")), nil
	case "timestamp", "datetime":
		return Concrete(f.randomTime().Format("2006-01-02 15:04:05")), nil
	case "choice":
		values, ok := attr.Constraints["values"].([]any)
		if !ok || len(values) == 0 {
			return GeneratedValue{}, fmt.Errorf("attribute %q: choice generator needs a non-empty constraints.values list", attr.Name)
		}
		return Concrete(values[f.rng.Intn(len(values))]), nil
	default:
		return GeneratedValue{}, fmt.Errorf("unknown generator %q for attribute %q", attr.Generator, attr.Name)
	}
}

// RetryUntilUnique calls gen until it returns a value not in seen, failing
// once the attempt bound is exhausted.
func (f *Faker) RetryUntilUnique(gen func() (any, error), seen map[any]bool) (any, error) {
	for attempt := 0; attempt < maxUniqueAttempts; attempt++ {
		v, err := gen()
		if err != nil {
			return nil, err
		}
		if !seen[v] {
			return v, nil
		}
	}
	return nil, fmt.Errorf("could not find an unseen value in %d attempts", maxUniqueAttempts)
}

func (f *Faker) pick(options []string) string {
	return options[f.rng.Intn(len(options))]
}

// randomTime stays inside a fixed window so seeded runs reproduce exactly;
// anchoring to the wall clock would break determinism across invocations.
func (f *Faker) randomTime() time.Time {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(f.rng.Int63n(int64(5 * 365 * 24 * time.Hour))))
}

func (f *Faker) intConstraint(attr *schema.AttributeDefinition, key string, fallback int) int {
	switch v := attr.Constraints[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func (f *Faker) floatConstraint(attr *schema.AttributeDefinition, key string, fallback float64) float64 {
	switch v := attr.Constraints[key].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return fallback
	}
}
