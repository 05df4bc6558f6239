package contacts

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

// Contact is a row of the contacts table, without the generated columns.
type Contact struct {
	Name     string
	Username string
	Password string
	Email    string
	Phone    string
}

var (
	firstNames = []string{"Ada", "Alan", "Barbara", "Dennis", "Edsger", "Frances", "Grace", "Ken", "Margaret", "Niklaus"}
	lastNames  = []string{"Allen", "Hopper", "Kernighan", "Knuth", "Liskov", "Lovelace", "Ritchie", "Thompson", "Turing", "Wirth"}
)

// Faker generates random contacts. Not safe for concurrent use.
type Faker struct {
	src *rand.ChaCha8
	rng *rand.Rand
}

// NewFaker returns a faker with the given seed. The same seed produces the
// same contacts.
func NewFaker(seed [32]byte) *Faker {
	src := rand.NewChaCha8(seed)
	return &Faker{src: src, rng: rand.New(src)}
}

// Contact generates one contact.
func (f *Faker) Contact() Contact {
	first := firstNames[f.rng.IntN(len(firstNames))]
	last := lastNames[f.rng.IntN(len(lastNames))]
	id := f.uuid()

	username := strings.ToLower(first) + "_" + id.String()[:8]
	return Contact{
		Name:     first + " " + last,
		Username: username,
		Password: f.password(),
		Email:    username + "@example.com",
		Phone:    fmt.Sprintf("+1-%03d-%03d-%04d", 200+f.rng.IntN(800), f.rng.IntN(1000), f.rng.IntN(10000)),
	}
}

// Contacts generates count contacts.
func (f *Faker) Contacts(count int) []Contact {
	out := make([]Contact, count)
	for i := range out {
		out[i] = f.Contact()
	}
	return out
}

// Passwords are 5 to 24 characters long.
func (f *Faker) password() string {
	size := 5 + f.rng.IntN(20)
	var buf strings.Builder
	for buf.Len() < size {
		buf.WriteString(strings.ReplaceAll(f.uuid().String(), "-", ""))
	}
	return buf.String()[:size]
}

func (f *Faker) uuid() uuid.UUID {
	// ChaCha8 reads never fail.
	return uuid.Must(uuid.NewRandomFromReader(f.src))
}
