package modules

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/memohai/contactbook/internal/boot"
	"github.com/memohai/contactbook/internal/contacts"
	"github.com/memohai/contactbook/internal/views"
	"github.com/memohai/contactbook/templates"
)

var DomainModule = fx.Module(
	"domain",
	fx.Provide(
		contacts.NewService,
		provideViews,
	),
)

func provideViews(lc fx.Lifecycle, log *slog.Logger, rc *boot.RuntimeConfig) (*views.Registry, error) {
	registry, err := views.New(views.Options{
		Dir:      rc.TemplatesDir,
		Fallback: templates.FS,
		Reload:   rc.TemplateReload,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return registry.Close()
		},
	})
	return registry, nil
}
