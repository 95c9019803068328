package providers

import (
	"github.com/ksheermitra/backend/internal/providers/email"
	"github.com/ksheermitra/backend/internal/providers/pdf"
	"github.com/ksheermitra/backend/internal/providers/storage"
	"github.com/ksheermitra/backend/internal/providers/whatsapp"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
	storage.Module,
	whatsapp.Module,
)
