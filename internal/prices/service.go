// Package prices resolves best-effort reference prices in USDT via the
// Jupiter quote API, with a cache in front. A nil price means the quote
// service had no answer; callers never fail on it.
package prices

import (
	"context"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/constants"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/jupiter"
	"github.com/aman-zulfiqar/solana-token-tracker/internal/storage"
)

// quoteUnits is the raw amount quoted: one whole token at the assumed
// 6-decimal precision, matching the USDT quote side.
const quoteUnits = 1_000_000

// Quoter is the slice of the Jupiter client the service needs.
type Quoter interface {
	Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error)
}

// Service answers price lookups for a mint.
type Service struct {
	quoter Quoter
	cache  storage.PriceCache // optional
	logger *logrus.Logger
}

// NewService creates a price service. Cache may be nil.
func NewService(quoter Quoter, cache storage.PriceCache, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{quoter: quoter, cache: cache, logger: logger}
}

// Price returns the USDT price of one token of the mint, or nil when
// unavailable. Quote failures are logged, never propagated.
func (s *Service) Price(ctx context.Context, mint string) *float64 {
	if s.cache != nil {
		if price, ok, err := s.cache.GetPrice(ctx, mint); err != nil {
			s.logger.WithError(err).Debug("price cache read failed")
		} else if ok {
			return &price
		}
	}

	resp, err := s.quoter.Quote(ctx, jupiter.QuoteRequest{
		InputMint:  mint,
		OutputMint: constants.USDTMint.String(),
		Amount:     strconv.Itoa(quoteUnits),
	})
	if err != nil {
		s.logger.WithError(err).WithField("mint", mint).Warn("jupiter quote failed")
		return nil
	}

	out, err := strconv.ParseFloat(resp.OutAmount, 64)
	if err != nil {
		s.logger.WithError(err).WithField("outAmount", resp.OutAmount).Warn("unparseable quote amount")
		return nil
	}

	price := out / quoteUnits
	if s.cache != nil {
		if err := s.cache.SetPrice(ctx, mint, price); err != nil {
			s.logger.WithError(err).Debug("price cache write failed")
		}
	}
	return &price
}
