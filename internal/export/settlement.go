package export

import (
	"math"

	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

// BatchSettlement is the money split of one closed batch between the business
// and the club.
type BatchSettlement struct {
	Total          int64
	ClubCommission int64
	NetPayable     int64
}

// SettleBatch computes the club commission on a batch's aggregate total and
// the net amount left after deducting it.
func SettleBatch(group services.BatchGroup, commissionRate float64) BatchSettlement {
	commission := int64(math.Round(float64(group.AggregateTotal) * commissionRate))
	return BatchSettlement{
		Total:          group.AggregateTotal,
		ClubCommission: commission,
		NetPayable:     group.AggregateTotal - commission,
	}
}
