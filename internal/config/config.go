package config

import (
	"errors"

	"github.com/openkcm/common-sdk/pkg/commoncfg"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
)

var (
	ErrConfigurationValuesError = errors.New("configuration value error")
	ErrNonDefinedTaskType       = errors.New("task type is unknown")
	ErrRepeatedTaskType         = errors.New("task type is specified more than once")
	ErrEmptyDatabasePrefix      = errors.New("tenant database prefix cannot be empty")
)

// Config holds all application configuration parameters
type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash"`

	Database         Database   `yaml:"database"`
	DatabaseReplicas []Database `yaml:"databaseReplicas"`

	Scheduler    Scheduler    `yaml:"scheduler"`
	Provisioning Provisioning `yaml:"provisioning"`
	Catalog      Catalog      `yaml:"catalog"`
	Metrics      Metrics      `yaml:"metrics"`
}

func (c *Config) Validate() error {
	err := c.Scheduler.Validate()
	if err != nil {
		return errs.Wrap(ErrConfigurationValuesError, err)
	}

	err = c.Provisioning.Validate()
	if err != nil {
		return errs.Wrap(ErrConfigurationValuesError, err)
	}

	return nil
}

// Database holds database config
type Database struct {
	Name     string              `yaml:"name"`
	Port     string              `yaml:"port"`
	Host     commoncfg.SourceRef `yaml:"host"`
	User     commoncfg.SourceRef `yaml:"user"`
	Secret   commoncfg.SourceRef `yaml:"secret"`
	Migrator Migrator            `yaml:"migrator"`
}

// Migrator holds the location of the goose migration directories.
type Migrator struct {
	Control string `yaml:"control"`
}

// Provisioning holds the tenant database provisioning config
type Provisioning struct {
	// DatabasePrefix is prepended to the organization slug when the caller
	// does not name the tenant database explicitly.
	DatabasePrefix string `yaml:"databasePrefix"`
	// WarmUpOnStart opens connection handles for every active organization
	// during server startup instead of on first access.
	WarmUpOnStart bool `yaml:"warmUpOnStart"`
}

func (p *Provisioning) Validate() error {
	if p.DatabasePrefix == "" {
		return ErrEmptyDatabasePrefix
	}

	return nil
}

// Catalog holds the installable application catalog seed
type Catalog struct {
	// Applications is an optional SourceRef to a YAML list of catalog entries
	// that replaces the built-in application list.
	Applications commoncfg.SourceRef `yaml:"applications"`
}

// ApplicationSeed is one entry of the configured application catalog.
type ApplicationSeed struct {
	Name     string `yaml:"name"`
	Slug     string `yaml:"slug"`
	Category string `yaml:"category"`
}

// Metrics holds the metrics endpoint config
type Metrics struct {
	Address string `yaml:"address"`
}

// Scheduler holds a scheduler config
type Scheduler struct {
	TaskQueue Redis  `yaml:"taskQueue"`
	Tasks     []Task `yaml:"tasks"`
}

func (s *Scheduler) Validate() error {
	checkedTasks := make(map[string]struct{}, len(s.Tasks))
	for _, task := range s.Tasks {
		_, found := DefinedTasks[task.TaskType]
		if !found {
			return ErrNonDefinedTaskType
		}

		_, found = checkedTasks[task.TaskType]
		if found {
			return ErrRepeatedTaskType
		}

		checkedTasks[task.TaskType] = struct{}{}
	}

	return nil
}

// Task holds a task config
type Task struct {
	Cronspec string `yaml:"cronspec"`
	TaskType string `yaml:"taskType"`
	Retries  int    `yaml:"retries"`
}

type Redis struct {
	Host commoncfg.SourceRef `yaml:"host"`
	Port string              `yaml:"port"`
	ACL  RedisACL            `yaml:"acl"`
}

type RedisACL struct {
	Enabled  bool                `yaml:"enabled"`
	Password commoncfg.SourceRef `yaml:"password"`
	Username commoncfg.SourceRef `yaml:"username"`
}
