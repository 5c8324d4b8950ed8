package config

// BookingConfig holds the display prices, in VND, per seat type.
type BookingConfig struct {
	PriceNormal   int64 `env:"BOOKING_PRICE_NORMAL"   envDefault:"90000"`
	PriceSweetbox int64 `env:"BOOKING_PRICE_SWEETBOX" envDefault:"180000"`
}

// Sanitize applies guardrails to booking configuration values.
func (b *BookingConfig) Sanitize() {
	if b.PriceNormal < 0 {
		b.PriceNormal = 0
	}
	if b.PriceSweetbox < 0 {
		b.PriceSweetbox = 0
	}
}
