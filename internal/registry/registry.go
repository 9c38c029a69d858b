// Package registry loads the farmed-account roster from a YAML file,
// validates it against an embedded JSON schema and hot-reloads it on file
// change. The round driver takes explicit snapshots; no process-wide mutable
// account set exists.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"perpfarm/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Spec identifies one account: display name, phone and the gateway session id
// its conversation runs on.
type Spec struct {
	Name    string `mapstructure:"name"`
	Phone   string `mapstructure:"phone"`
	Session string `mapstructure:"session"`
}

type fileConfig struct {
	Accounts []Spec `mapstructure:"accounts"`
}

// Snapshot is a read-only view of the roster at one version.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Specs    []Spec
}

// ChangeListener is invoked after every accepted reload.
type ChangeListener func(Snapshot)

const accountsSchema = `{
  "type": "object",
  "required": ["accounts"],
  "properties": {
    "accounts": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["phone", "session"],
        "properties": {
          "name":    {"type": "string"},
          "phone":   {"type": "string", "minLength": 5},
          "session": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// Registry watches the accounts file and serves snapshots. A reload that
// fails schema validation is rejected and the previous snapshot stays live.
type Registry struct {
	path   string
	v      *viper.Viper
	schema *jsonschema.Schema

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewRegistry reads the accounts file and starts watching it.
func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("account registry requires path")
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("accounts.schema.json", strings.NewReader(accountsSchema)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile("accounts.schema.json")
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read accounts file failed: %w", err)
	}
	r := &Registry{path: path, v: v, schema: schema}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("accounts reload rejected (%s): %v", evt.Name, err)
			return
		}
		r.notify()
	})
	v.WatchConfig()
	return r, nil
}

// Snapshot returns the current roster.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

// Subscribe registers a listener and immediately delivers the current
// snapshot.
func (r *Registry) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	snap := cloneSnapshot(r.snapshot)
	r.mu.Unlock()
	go runListener(fn, snap)
}

func (r *Registry) notify() {
	r.mu.RLock()
	snap := cloneSnapshot(r.snapshot)
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		go runListener(fn, snap)
	}
}

func runListener(fn ChangeListener, snap Snapshot) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("accounts listener panic: %v", rec)
		}
	}()
	fn(snap)
}

func (r *Registry) reload() error {
	if err := r.validateFile(); err != nil {
		return err
	}
	var fileCfg fileConfig
	if err := r.v.Unmarshal(&fileCfg); err != nil {
		return fmt.Errorf("parse accounts file failed: %w", err)
	}
	specs := make([]Spec, 0, len(fileCfg.Accounts))
	for _, spec := range fileCfg.Accounts {
		spec.Name = strings.TrimSpace(spec.Name)
		spec.Phone = strings.TrimSpace(spec.Phone)
		spec.Session = strings.TrimSpace(spec.Session)
		specs = append(specs, spec)
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Specs:    specs,
	}
	r.mu.Unlock()
	logger.Infof("account registry loaded %d accounts from %s", len(specs), filepath.Base(r.path))
	return nil
}

// validateFile checks the raw YAML document against the embedded schema
// before viper gets to interpret it.
func (r *Registry) validateFile() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("accounts file is not valid YAML: %w", err)
	}
	if err := r.schema.Validate(doc); err != nil {
		return fmt.Errorf("accounts file schema violation: %w", err)
	}
	return nil
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := src
	dst.Specs = append([]Spec(nil), src.Specs...)
	return dst
}
