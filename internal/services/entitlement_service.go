// internal/services/entitlement_service.go
package services

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/customer"
	"github.com/stripe/stripe-go/v74/sub"

	"github.com/merchstudio/photostudio-backend/internal/config"
	"github.com/merchstudio/photostudio-backend/internal/models"
)

// EntitlementService resolves what plan an instance is on. Billing lives
// in Stripe; checkout stores the instance id as customer metadata, which
// is the join key used here.
type EntitlementService struct {
	config *config.Config
}

func NewEntitlementService(config *config.Config) *EntitlementService {
	// Initialize Stripe
	stripe.Key = config.Billing.StripeSecretKey

	return &EntitlementService{config: config}
}

// FreeEntitlement is the default plan for instances without billing
// configured or without an active subscription.
func (s *EntitlementService) FreeEntitlement() *models.Entitlement {
	return &models.Entitlement{
		PlanTier:   models.PlanTierFree,
		ImageQuota: s.config.Billing.FreeImageQuota,
		Active:     true,
		Source:     "default",
	}
}

// Lookup resolves the billing snapshot of an instance. No customer or no
// active subscription resolves to the free tier; only remote failures are
// reported as errors.
func (s *EntitlementService) Lookup(ctx context.Context, instanceID string) (*models.Entitlement, error) {
	if s.config.Billing.StripeSecretKey == "" {
		return s.FreeEntitlement(), nil
	}

	cust, err := s.findCustomer(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to search for customer: %w", err)
	}
	if cust == nil {
		return s.FreeEntitlement(), nil
	}

	premium, err := s.hasPremiumSubscription(ctx, cust.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if !premium {
		return s.FreeEntitlement(), nil
	}

	return &models.Entitlement{
		PlanTier:   models.PlanTierPremium,
		ImageQuota: s.config.Billing.PremiumImageQuota,
		Active:     true,
		Source:     "stripe",
	}, nil
}

func (s *EntitlementService) findCustomer(ctx context.Context, instanceID string) (*stripe.Customer, error) {
	params := &stripe.CustomerSearchParams{
		SearchParams: stripe.SearchParams{
			Query:   fmt.Sprintf("metadata['instanceId']:'%s'", instanceID),
			Context: ctx,
		},
	}
	params.Limit = stripe.Int64(1)

	iter := customer.Search(params)
	for iter.Next() {
		return iter.Customer(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return nil, nil
}

func (s *EntitlementService) hasPremiumSubscription(ctx context.Context, customerID string) (bool, error) {
	params := &stripe.SubscriptionListParams{
		Customer: customerID,
		Status:   string(stripe.SubscriptionStatusActive),
	}
	params.Context = ctx

	iter := sub.List(params)
	for iter.Next() {
		subscription := iter.Subscription()

		// Without a pinned price, any active subscription counts.
		if s.config.Billing.PremiumPriceID == "" {
			return true, nil
		}
		if subscription.Items == nil {
			continue
		}
		for _, item := range subscription.Items.Data {
			if item.Price != nil && item.Price.ID == s.config.Billing.PremiumPriceID {
				return true, nil
			}
		}
	}
	if err := iter.Err(); err != nil {
		return false, err
	}

	return false, nil
}
