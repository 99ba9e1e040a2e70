package internal

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// ResultCache keeps recent completion records by hand id and the last hand of each table.
type ResultCache struct {
	results   *lru.Cache
	lastHands *lru.Cache
}

func NewResultCache(size int) (*ResultCache, error) {
	results, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize results cache")
	}
	lastHands, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize last hands cache")
	}
	return &ResultCache{
		results:   results,
		lastHands: lastHands,
	}, nil
}

func (c *ResultCache) Add(tableID string, handID string, result interface{}) error {
	if tableID == "" {
		return fmt.Errorf("Invalid table ID [%s]", tableID)
	} else if handID == "" {
		return fmt.Errorf("Invalid hand ID [%s]", handID)
	}
	c.results.Add(handID, result)
	c.lastHands.Add(tableID, handID)
	return nil
}

func (c *ResultCache) Get(handID string) (interface{}, bool) {
	return c.results.Get(handID)
}

func (c *ResultCache) LastHand(tableID string) (string, bool) {
	v, exists := c.lastHands.Get(tableID)
	if !exists {
		return "", false
	}
	return v.(string), true
}
