package whatsapp

import (
	"github.com/ksheermitra/backend/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.whatsapp",
	fx.Provide(NewFromConfig),
)

// NewFromConfig returns nil when WhatsApp is not configured; callers treat a
// nil Sender as disabled.
func NewFromConfig(cfg config.Config, log *zap.Logger) Sender {
	if !cfg.WhatsApp.Enabled() {
		return nil
	}
	return New(Config{
		APIURL:        cfg.WhatsApp.APIURL,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		APIKey:        cfg.WhatsApp.APIKey,
	}, log)
}
