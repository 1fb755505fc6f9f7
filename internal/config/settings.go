package config

import (
	_ "embed"
	"encoding/json"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Config is the full settings document. It is loaded once and handed out by
// value; components receive the sub-structs they need at construction and
// never read this package's state directly.
type Config struct {
	Directory DirectoryConfig `json:"directory"`

	Classifier ClassifierConfig `json:"classifier"`

	Checker CheckerConfig `json:"checker"`

	Backends BackendsConfig `json:"backends"`

	Cache struct {
		Enabled    bool   `json:"enabled"`
		TTLMinutes uint32 `json:"ttl_minutes"`
	} `json:"cache"`

	GeoLite struct {
		CountryDBPath string `json:"country_db_path"`
	} `json:"geolite"`
}

// DirectoryConfig drives the ASN directory client.
type DirectoryConfig struct {
	BaseURL       string `json:"base_url"`
	RelayURL      string `json:"relay_url,omitempty"`
	SocksProxy    string `json:"socks_proxy,omitempty"`
	TimeoutMs     uint32 `json:"timeout"`
	RequestGapMs  uint32 `json:"request_gap"`
	MinPrefixBits int    `json:"min_prefix_bits"`
	MaxPrefixBits int    `json:"max_prefix_bits"`
	PrefixSample  int    `json:"prefix_sample"`
}

// ClassifierConfig is the data-driven ruleset for operator classification.
// Vocabularies are matched case-insensitively against name+description.
type ClassifierConfig struct {
	ExcludeKeywords     []string            `json:"exclude_keywords"`
	ResidentialKeywords []string            `json:"residential_keywords"`
	KnownOperators      map[string][]string `json:"known_operators"`
	KnownOperatorIDs    map[string][]string `json:"known_operator_ids"`
	CountryAgnostic     string              `json:"country_agnostic"`
	FallbackTake        int                 `json:"fallback_take"`
	MinSelect           int                 `json:"min_select"`
	MaxSelect           int                 `json:"max_select"`
}

// CheckerConfig bounds the probing stage.
type CheckerConfig struct {
	Threads            uint32  `json:"threads"`
	ProbeGapMs         uint32  `json:"probe_gap"`
	RetryCeiling       uint32  `json:"retry_ceiling"`
	EmptyBackoffMs     uint32  `json:"empty_backoff"`
	BlacklistThreshold float64 `json:"blacklist_threshold"`
	SaveThreshold      float64 `json:"save_threshold"`
}

// BackendsConfig lists the reputation sources. Zones and endpoints are data,
// not code, so deployments can swap sources without a rebuild.
type BackendsConfig struct {
	Zen struct {
		Zone      string `json:"zone"`
		TimeoutMs uint32 `json:"timeout"`
	} `json:"zen"`

	MultiZone struct {
		Name      string   `json:"name"`
		Zones     []string `json:"zones"`
		TimeoutMs uint32   `json:"timeout"`
	} `json:"multi_zone"`

	SingleZone struct {
		Name      string `json:"name"`
		Zone      string `json:"zone"`
		TimeoutMs uint32 `json:"timeout"`
	} `json:"single_zone"`

	HTTPApi struct {
		Name      string `json:"name"`
		URL       string `json:"url"`
		TimeoutMs uint32 `json:"timeout"`
	} `json:"http_api"`
}

const settingsFilePath = "data/settings.json"

var (
	//go:embed default_settings.json
	defaultConfig []byte

	configValue atomic.Value

	InProductionMode bool
)

func init() {
	configValue.Store(Config{})
}

// ReadSettings loads the settings file, creating it from the embedded
// defaults when missing.
func ReadSettings() {
	data, err := os.ReadFile(settingsFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Settings file not found, creating with default configuration")

			if err := os.MkdirAll("data", os.ModePerm); err != nil {
				log.Error("Error creating directory for settings file:", err)
				return
			}
			if err := os.WriteFile(settingsFilePath, defaultConfig, os.ModePerm); err != nil {
				log.Error("Error writing default settings file:", err)
				return
			}

			data = defaultConfig
		} else {
			log.Error("Error reading settings file:", err)
			return
		}
	}

	var newConfig Config
	if err := json.Unmarshal(data, &newConfig); err != nil {
		log.Error("Error unmarshalling settings file:", err)
		return
	}

	configValue.Store(newConfig)
	log.Debug("Settings file loaded successfully")
}

// GetConfig returns the current configuration atomically.
func GetConfig() Config {
	return configValue.Load().(Config)
}

func SetProductionMode(productionMode bool) {
	InProductionMode = productionMode
}
