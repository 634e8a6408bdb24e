//go:build wireinject
// +build wireinject

package checkout

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/internal/checkout/handler"
	"github.com/tair/course-checkout/pkg/config"
	"github.com/tair/course-checkout/pkg/metrics"
)

// InitializeService builds the checkout HTTP handler and its background sweeper
func InitializeService(
	db *gorm.DB,
	cfg *config.Config,
	rdb Redis,
	publisher domain.EventPublisher,
	m *metrics.Checkout,
	tokens handler.TokenValidator,
) (*Service, error) {
	wire.Build(
		AllHandlersSet,
		handler.NewCheckoutHandlerWithDI,
		wire.Struct(new(Service), "*"),
	)
	return nil, nil
}
