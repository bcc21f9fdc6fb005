package di

import (
	"context"
	"fmt"

	"github.com/aristath/rebalancer/internal/clients/exchangerate"
	"github.com/aristath/rebalancer/internal/clients/yahoo"
	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/metrics"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/notify"
	"github.com/aristath/rebalancer/internal/reports"
	"github.com/aristath/rebalancer/internal/services"
	"github.com/rs/zerolog"
)

// InitializeServices creates the price oracle, the decision engine and the
// rebalancing service, and attaches the configured notifiers
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.Metrics = metrics.NewRegistry()

	container.YahooClient = yahoo.NewClient(yahoo.Config{
		BaseURL:              cfg.Prices.YahooBaseURL,
		RequestsPerSecond:    cfg.Prices.RequestsPerSecond,
		MaxConsecutiveErrors: cfg.Prices.MaxConsecutiveErrors,
	}, log)
	container.YahooClient.SetRecorder(container.Metrics)

	var rates domain.RateSource = container.YahooClient
	if cfg.Prices.FXSource == config.FXSourceExchangeRate {
		container.ExchangeRateClient = exchangerate.NewClient(cfg.Prices.ExchangeRateBaseURL, log)
		container.ExchangeRateClient.SetRecorder(container.Metrics)
		rates = container.ExchangeRateClient
	}

	container.PriceService = services.NewPriceService(container.YahooClient, rates, log)

	container.SetupService = services.NewSetupService(
		container.DB,
		container.AssetRepo,
		container.AllocationRepo,
		container.ActionRepo,
		cfg.ReferenceCurrency,
		log,
	)

	container.Engine = rebalancing.NewEngine(
		container.PriceService,
		cfg.ReferenceCurrency,
		cfg.MinTradePercentage,
		log,
	)

	container.RebalancingService = rebalancing.NewService(
		container.Engine,
		container.DB.Conn(),
		container.AssetRepo,
		container.AllocationRepo,
		container.ActionRepo,
		log,
	)
	container.RebalancingService.SetRecorder(container.Metrics)

	if cfg.Notify.Enabled() {
		container.RebalancingService.AddNotifier(notify.NewEmailNotifier(cfg.Notify, log))
		log.Info().Strs("to", cfg.Notify.To).Msg("E-mail notification enabled")
	}

	if cfg.Reports.Enabled() {
		publisher, err := reports.NewS3Publisher(ctx, cfg.Reports, log)
		if err != nil {
			return fmt.Errorf("failed to initialize report archive: %w", err)
		}
		container.RebalancingService.AddNotifier(publisher)
		log.Info().Str("bucket", cfg.Reports.Bucket).Msg("Report archive enabled")
	}

	log.Info().
		Str("reference_currency", cfg.ReferenceCurrency).
		Float64("min_trade_percentage", cfg.MinTradePercentage).
		Str("fx_source", cfg.Prices.FXSource).
		Msg("Services initialized")

	return nil
}
