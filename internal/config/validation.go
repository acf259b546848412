package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/khanglvm/forkfeat/internal/arff"
	"github.com/khanglvm/forkfeat/internal/features"
	"github.com/khanglvm/forkfeat/internal/logging"
)

// Validate checks every section and reports all problems at once as an
// *InvalidConfigError.
func (c *Config) Validate() error {
	var settings []*Setting
	reject := func(key string, err error) {
		settings = append(settings, &Setting{Key: key, Err: err})
	}

	if strings.TrimSpace(c.Store.Path) == "" {
		reject("store.path", errors.New("is empty"))
	}

	if err := c.Bounds().Validate(); err != nil {
		reject("windows", err)
	}

	if _, err := c.SchemaOptions(); err != nil {
		reject("features", err)
	}

	groups, err := c.EventGroups()
	if err != nil {
		reject("groups", err)
	} else if _, err := features.Catalog(groups); err != nil {
		reject("groups", err)
	}

	if _, err := arff.ParseFormat(c.Output.Format); err != nil {
		reject("output.format", err)
	}
	if strings.ContainsAny(c.Output.Relation, " \t,{}") || c.Output.Relation == "" {
		reject("output.relation", fmt.Errorf("%q must be a single non-empty token", c.Output.Relation))
	}

	if c.Extract.Workers < 1 {
		reject("extract.workers", fmt.Errorf("must be at least 1, got %d", c.Extract.Workers))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		reject("log.level", err)
	}
	if err := logging.ValidateFormat(c.Log.Format); err != nil {
		reject("log.format", err)
	}

	if len(settings) == 0 {
		return nil
	}
	return &InvalidConfigError{Settings: settings}
}
