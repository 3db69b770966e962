// internal/words/words.go
package words

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
)

//go:embed words.json
var wordData []byte

// entry is a secret word together with the category shown to every player.
type entry struct {
	Word     string `json:"word"`
	Category string `json:"category"`
}

// Deck hands out secret words for new rounds. It avoids repeating a word
// until the whole list has been dealt once.
type Deck struct {
	mu      sync.Mutex
	entries []entry
	order   []int
	next    int
}

// NewDeck loads the embedded word list and shuffles it.
func NewDeck() (*Deck, error) {
	var entries []entry
	if err := json.Unmarshal(wordData, &entries); err != nil {
		return nil, fmt.Errorf("parsing words.json: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("words.json is empty")
	}

	d := &Deck{entries: entries, order: rand.Perm(len(entries))}
	return d, nil
}

// NewDeckFromList builds a deck from an explicit list. Used by tests.
func NewDeckFromList(pairs map[string]string) *Deck {
	d := &Deck{}
	for word, category := range pairs {
		d.entries = append(d.entries, entry{Word: word, Category: category})
	}
	d.order = rand.Perm(len(d.entries))
	return d
}

// NextWord returns the next word and its category, reshuffling once the
// deck is exhausted.
func (d *Deck) NextWord() (string, string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.next >= len(d.order) {
		d.order = rand.Perm(len(d.entries))
		d.next = 0
	}
	e := d.entries[d.order[d.next]]
	d.next++
	return e.Word, e.Category
}
