package acquirer

import (
	"github.com/nicolasmmb/go-card-gateway/internal/card"
	"github.com/nicolasmmb/go-card-gateway/internal/domain"
)

// Selector picks the acquirer a payment is routed to from the card BIN.
type Selector interface {
	SelectAcquirer(bin string) domain.AcquirerID
}

// ParitySelector routes BINs with an even digit sum to Acquirer A and the rest to Acquirer B.
type ParitySelector struct{}

func (ParitySelector) SelectAcquirer(bin string) domain.AcquirerID {
	if card.IsEvenSumOfDigits(bin) {
		return domain.AcquirerA
	}
	return domain.AcquirerB
}
