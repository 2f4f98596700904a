// Package translate formats user-visible messages for the host locale.
package translate

import (
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	mutex   sync.RWMutex
	tag     language.Tag
	printer *message.Printer
)

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("chip8: locale: %v", err)
	}

	SetLanguage(locales...)
}

// SetLanguage selects the printer language from a list of BCP 47 tags,
// falling back to en-US when the list is empty.
func SetLanguage(tags ...string) {
	if len(tags) == 0 {
		tags = []string{"en-US"}
	}

	mutex.Lock()
	defer mutex.Unlock()

	tag = message.MatchLanguage(tags...)
	printer = message.NewPrinter(tag)
}

// Language returns the tag of the active printer.
func Language() language.Tag {
	mutex.RLock()
	defer mutex.RUnlock()

	return tag
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	mutex.RLock()
	defer mutex.RUnlock()

	return printer.Sprintf(key, args...)
}
