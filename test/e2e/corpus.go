// Package e2e provides end-to-end tests over a themed corpus written to disk in every
// supported file type.
package e2e

import (
	"fmt"
	"strings"
)

// Document is one corpus entry before ingest.
type Document struct {
	Key       string // stable name, used as the file stem
	Theme     string
	Title     string
	Body      string
	Signature string // a term that occurs in this document only
}

// Text is the full document text as written to disk: title line, blank line, body.
func (d Document) Text() string {
	return d.Title + "\n\n" + d.Body
}

// theme is a topic with four sentences. Themes share no terms outside the stopword list, so
// documents of different themes have similarity zero.
type theme struct {
	name      string
	sentences [4]string
}

var themes = []theme{
	{"Harbor", [4]string{
		"Tugboats nudge freighters toward the crowded harbor berth.",
		"Dockworkers unload cargo containers beside rusty cranes.",
		"Gulls circle above fishing trawlers returning at dusk.",
		"Tides lift moored sailboats along the breakwater pier.",
	}},
	{"Orchard", [4]string{
		"Pickers harvest ripe apples from gnarled orchard branches.",
		"Beekeepers move hives between blossoming pear rows.",
		"Cider presses crush bruised fruit into amber juice.",
		"Pruning shears shape young saplings every winter.",
	}},
	{"Observatory", [4]string{
		"Astronomers track distant galaxies using giant telescopes.",
		"Spectrographs disperse faint starlight into colorful bands.",
		"Meteor showers streak over moonless desert skies.",
		"Radio dishes listen for pulsars spinning rapidly.",
	}},
	{"Bakery", [4]string{
		"Bakers knead sourdough before sunrise in warm kitchens.",
		"Croissants puff golden inside roaring brick ovens.",
		"Flour dusts wooden counters near cooling baguettes.",
		"Customers queue outside for fresh cinnamon buns.",
	}},
	{"Glacier", [4]string{
		"Glaciers grind valleys into bedrock slowly.",
		"Icebergs calve from towering frozen cliffs.",
		"Crevasses crack blue ice on polar plateaus.",
		"Meltwater streams braid among gravel moraines.",
	}},
	{"Workshop", [4]string{
		"Carpenters plane oak boards for sturdy tables.",
		"Lathes spin maple blanks into smooth spindles.",
		"Chisels carve dovetail joints with patient precision.",
		"Sawdust piles grow beneath humming bandsaws.",
	}},
}

// DocsPerTheme is how many documents each theme contributes.
const DocsPerTheme = 4

// BuildCorpus returns DocsPerTheme documents per theme. Document k of a theme uses every theme
// sentence except sentence k, then its signature as a sentence of its own. Any two documents of
// a theme share two sentences.
func BuildCorpus() []Document {
	var docs []Document
	for ti, th := range themes {
		for k := 0; k < DocsPerTheme; k++ {
			var parts []string
			for si, s := range th.sentences {
				if si != k {
					parts = append(parts, s)
				}
			}
			sig := signature(ti, k)
			parts = append(parts, sig+".")
			docs = append(docs, Document{
				Key:       fmt.Sprintf("%s-%d", strings.ToLower(th.name), k+1),
				Theme:     th.name,
				Title:     fmt.Sprintf("%s %d", th.name, k+1),
				Body:      strings.Join(parts, " "),
				Signature: sig,
			})
		}
	}
	return docs
}

// signature builds a letters-only token that no analyzer splits, such as "zqbc".
func signature(themeIdx, docIdx int) string {
	return "zq" + string(rune('b'+themeIdx)) + string(rune('b'+docIdx))
}
