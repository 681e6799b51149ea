// Package terrain classifies server-provided sector tokens into the
// small closed set of categories the map consumers care about.
package terrain

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Category is a display-relevant terrain class.
type Category string

const (
	Forest   Category = "forest"
	Field    Category = "field"
	Road     Category = "road"
	Water    Category = "water"
	Mountain Category = "mountain"
	Desert   Category = "desert"
	City     Category = "city"
	Indoor   Category = "indoor"
	Unknown  Category = "unknown"
)

// tokenTable maps the sector tokens observed across servers to
// categories. Lookup is case-insensitive.
var tokenTable = map[string]Category{
	"forest":      Forest,
	"woods":       Forest,
	"jungle":      Forest,
	"field":       Field,
	"plains":      Field,
	"grassland":   Field,
	"hills":       Field,
	"road":        Road,
	"path":        Road,
	"street":      Road,
	"water":       Water,
	"river":       Water,
	"ocean":       Water,
	"swim":        Water,
	"underwater":  Water,
	"mountain":    Mountain,
	"mountains":   Mountain,
	"desert":      Desert,
	"beach":       Desert,
	"city":        City,
	"town":        City,
	"inside":      Indoor,
	"indoors":     Indoor,
	"underground": Indoor,
	"cave":        Indoor,
}

// Classifier resolves sector tokens to categories. Unrecognized tokens
// yield Unknown and are logged once per distinct token per session so a
// chatty server cannot flood the log.
type Classifier struct {
	logger *zap.Logger

	mu   sync.Mutex
	seen map[string]bool
}

// NewClassifier creates a Classifier.
//
// Precondition: logger must be non-nil.
func NewClassifier(logger *zap.Logger) *Classifier {
	return &Classifier{
		logger: logger,
		seen:   make(map[string]bool),
	}
}

// Classify maps a sector token to its Category. Empty and unrecognized
// tokens return Unknown; classification never fails.
func (c *Classifier) Classify(token string) Category {
	if token == "" {
		return Unknown
	}
	if cat, ok := tokenTable[strings.ToLower(token)]; ok {
		return cat
	}

	c.mu.Lock()
	logIt := !c.seen[token]
	c.seen[token] = true
	c.mu.Unlock()

	if logIt {
		c.logger.Debug("unrecognized terrain token", zap.String("token", token))
	}
	return Unknown
}
