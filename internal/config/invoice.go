package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InvoiceConfig is the branding printed on generated invoices.
type InvoiceConfig struct {
	BusinessName   string `mapstructure:"businessName"`
	Address        string `mapstructure:"address"`
	Phone          string `mapstructure:"phone"`
	CurrencyCode   string `mapstructure:"currencyCode"`
	CurrencySymbol string `mapstructure:"currencySymbol"`
	Footer         string `mapstructure:"footer"`
}

func DefaultInvoiceConfig() InvoiceConfig {
	return InvoiceConfig{
		BusinessName:   "KsheerMitra",
		CurrencyCode:   "INR",
		CurrencySymbol: "Rs.",
		Footer:         "Thank you for choosing fresh milk.",
	}
}

type InvoiceConfigHolder struct {
	current atomic.Value // holds InvoiceConfig
}

// NewInvoiceConfigHolder reads invoice.yml from the given directories (or the
// default search path) and keeps it fresh while the file changes on disk.
func NewInvoiceConfigHolder(log *zap.Logger, paths ...string) (*InvoiceConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("invoice-config")

	v := viper.New()
	v.SetConfigName("invoice")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{"/etc/ksheermitra", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("KSHEERMITRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoiceConfig()
	v.SetDefault("invoice.businessName", defaults.BusinessName)
	v.SetDefault("invoice.currencyCode", defaults.CurrencyCode)
	v.SetDefault("invoice.currencySymbol", defaults.CurrencySymbol)
	v.SetDefault("invoice.footer", defaults.Footer)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		found = false
	}

	var cfg InvoiceConfig
	if err := v.UnmarshalKey("invoice", &cfg); err != nil {
		return nil, err
	}
	if err := validateInvoiceConfig(cfg); err != nil {
		return nil, err
	}

	holder := &InvoiceConfigHolder{}
	holder.current.Store(cfg)

	if found {
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated InvoiceConfig
			if err := v.UnmarshalKey("invoice", &updated); err != nil {
				log.Warn("reload failed", zap.Error(err))
				return
			}
			if err := validateInvoiceConfig(updated); err != nil {
				log.Warn("invalid config ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("reloaded", zap.String("file", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

// NewStaticInvoiceConfigHolder returns a holder that never reloads.
func NewStaticInvoiceConfigHolder(cfg InvoiceConfig) *InvoiceConfigHolder {
	holder := &InvoiceConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *InvoiceConfigHolder) Get() InvoiceConfig {
	return h.current.Load().(InvoiceConfig)
}

func validateInvoiceConfig(cfg InvoiceConfig) error {
	if strings.TrimSpace(cfg.BusinessName) == "" {
		return errors.New("invoice.businessName cannot be empty")
	}
	if strings.TrimSpace(cfg.CurrencyCode) == "" {
		return errors.New("invoice.currencyCode cannot be empty")
	}
	return nil
}
